package textenc

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	jsoniter "github.com/json-iterator/go"
)

// Vocabulary is a word-level encoder: words ranked by corpus frequency,
// offset past the reserved ids, everything else mapped to UnkID.
type Vocabulary struct {
	words  []string // rank order; id = index + 3
	wordID map[string]int32
}

// vocabFile is the JSON layout Save writes. Only the ranked word list
// is stored; the id map is rebuilt on load.
type vocabFile struct {
	Words []string `json:"words"`
}

// Tokenize lowercases text and splits it into words, dropping
// punctuation but keeping in-word apostrophes.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

// BuildVocabulary indexes the words of a corpus by descending frequency
// (ties broken alphabetically, so builds are deterministic). maxSize
// caps the total vocabulary size including the three reserved ids; zero
// or negative keeps every word.
func BuildVocabulary(texts []string, maxSize int) *Vocabulary {
	counts := make(map[string]int)
	for _, text := range texts {
		for _, word := range Tokenize(text) {
			counts[word]++
		}
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if maxSize > int(UnkID)+1 && len(words) > maxSize-int(UnkID)-1 {
		words = words[:maxSize-int(UnkID)-1]
	}
	return newVocabulary(words)
}

func newVocabulary(words []string) *Vocabulary {
	v := &Vocabulary{words: words, wordID: make(map[string]int32, len(words))}
	for i, word := range words {
		v.wordID[word] = int32(i) + UnkID + 1
	}
	return v
}

// Encode tokenizes text and maps each word to its id, StartID first,
// out-of-vocabulary words to UnkID.
func (v *Vocabulary) Encode(text string) ([]int32, error) {
	words := Tokenize(text)
	ids := make([]int32, 0, len(words)+1)
	ids = append(ids, StartID)
	for _, word := range words {
		if id, ok := v.wordID[word]; ok {
			ids = append(ids, id)
		} else {
			ids = append(ids, UnkID)
		}
	}
	return ids, nil
}

// Decode maps ids back to words. Pad and start ids are dropped, unknown
// ids render as <unk>.
func (v *Vocabulary) Decode(tokens []int32) (string, error) {
	words := make([]string, 0, len(tokens))
	for _, id := range tokens {
		switch {
		case id == PadID || id == StartID:
		case id == UnkID:
			words = append(words, "<unk>")
		case id >= UnkID+1 && int(id-UnkID-1) < len(v.words):
			words = append(words, v.words[id-UnkID-1])
		default:
			return "", fmt.Errorf("token id %d out of range for vocabulary of %d", id, v.VocabSize())
		}
	}
	return strings.Join(words, " "), nil
}

// VocabSize returns the id space size: ranked words plus reserved ids.
func (v *Vocabulary) VocabSize() int {
	return len(v.words) + int(UnkID) + 1
}

// PadID returns the reserved padding id.
func (v *Vocabulary) PadID() int32 {
	return PadID
}

// Lookup returns the id for a word, or UnkID when absent.
func (v *Vocabulary) Lookup(word string) int32 {
	if id, ok := v.wordID[word]; ok {
		return id
	}
	return UnkID
}

// Save writes the vocabulary as JSON.
func (v *Vocabulary) Save(path string) error {
	data, err := jsoniter.ConfigFastest.Marshal(vocabFile{Words: v.words})
	if err != nil {
		return fmt.Errorf("failed to marshal vocabulary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write vocabulary: %w", err)
	}
	return nil
}

// LoadVocabulary reads a vocabulary saved by Save.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	var file vocabFile
	if err := jsoniter.ConfigFastest.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	return newVocabulary(file.Words), nil
}
