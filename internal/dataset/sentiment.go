package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Sentiment labels.
const (
	SentimentNegative int32 = 0
	SentimentPositive int32 = 1
)

// TextExample is one labeled text sample.
type TextExample struct {
	Text  string
	Label int32
}

// TextDataset is an in-memory labeled text corpus.
type TextDataset struct {
	Examples []TextExample
}

// NumSamples returns the number of examples in the corpus.
func (d *TextDataset) NumSamples() int {
	return len(d.Examples)
}

// Split partitions the corpus positionally into train and validation
// sets, mirroring Dataset.Split.
func (d *TextDataset) Split(validationRatio float32) (train, validation *TextDataset) {
	splitIdx := int(float32(d.NumSamples()) * (1.0 - validationRatio))
	if splitIdx < 0 {
		splitIdx = 0
	}
	if splitIdx > d.NumSamples() {
		splitIdx = d.NumSamples()
	}
	return &TextDataset{Examples: d.Examples[:splitIdx]}, &TextDataset{Examples: d.Examples[splitIdx:]}
}

// Texts returns all example texts in order.
func (d *TextDataset) Texts() []string {
	texts := make([]string, len(d.Examples))
	for i, ex := range d.Examples {
		texts[i] = ex.Text
	}
	return texts
}

// Labels returns all example labels in order.
func (d *TextDataset) Labels() []int32 {
	labels := make([]int32, len(d.Examples))
	for i, ex := range d.Examples {
		labels[i] = ex.Label
	}
	return labels
}

// LoadSentimentTSV loads a corpus from a tab-separated file with one
// example per line: label<TAB>text, label 0 (negative) or 1 (positive).
// Blank lines and lines starting with # are skipped.
func LoadSentimentTSV(filename string) (*TextDataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var examples []TextExample
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labelStr, text, found := strings.Cut(line, "\t")
		if !found {
			return nil, fmt.Errorf("line %d: no tab separator", lineNo)
		}
		label, err := parseSentimentLabel(labelStr)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		examples = append(examples, TextExample{Text: strings.TrimSpace(text), Label: label})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("no examples in %s", filename)
	}
	return &TextDataset{Examples: examples}, nil
}

// LoadSentimentCSV loads a corpus from a two-column CSV: label,text.
// A header row is detected by its non-numeric first field and skipped.
func LoadSentimentCSV(filename string) (*TextDataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) > 0 {
		if _, err := strconv.Atoi(records[0][0]); err != nil {
			records = records[1:]
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no examples in %s", filename)
	}

	examples := make([]TextExample, 0, len(records))
	for i, record := range records {
		if len(record) != 2 {
			return nil, fmt.Errorf("row %d: got %d columns, want 2", i+1, len(record))
		}
		label, err := parseSentimentLabel(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		examples = append(examples, TextExample{Text: strings.TrimSpace(record[1]), Label: label})
	}
	return &TextDataset{Examples: examples}, nil
}

func parseSentimentLabel(s string) (int32, error) {
	label, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid label %q: %w", s, err)
	}
	if label != 0 && label != 1 {
		return 0, fmt.Errorf("label out of range {0, 1}: %d", label)
	}
	return int32(label), nil
}

// SentimentCorpus returns the embedded fallback corpus: short review
// snippets, half positive and half negative, interleaved so positional
// splits stay balanced. Big enough for the lesson to overfit visibly,
// small enough to train in seconds.
func SentimentCorpus() *TextDataset {
	raw := []TextExample{
		{"an absolute joy from the first scene to the last", SentimentPositive},
		{"a dull slog that never finds its footing", SentimentNegative},
		{"the cast is superb and the script sparkles with wit", SentimentPositive},
		{"wooden acting and a plot full of holes", SentimentNegative},
		{"beautifully shot and genuinely moving", SentimentPositive},
		{"i wanted my two hours back before the halfway mark", SentimentNegative},
		{"a warm funny film with real heart", SentimentPositive},
		{"the jokes land flat and the pacing drags badly", SentimentNegative},
		{"one of the best films of the year hands down", SentimentPositive},
		{"a tired rehash of better movies", SentimentNegative},
		{"smart tense and satisfying right to the end", SentimentPositive},
		{"messy confusing and far too long", SentimentNegative},
		{"the soundtrack alone is worth the ticket", SentimentPositive},
		{"not a single believable moment in the whole thing", SentimentNegative},
		{"a charming little gem that deserves a wider audience", SentimentPositive},
		{"the ending is as lazy as the setup", SentimentNegative},
		{"gripping from start to finish with a terrific lead", SentimentPositive},
		{"flat characters and dialogue that lands with a thud", SentimentNegative},
		{"clever inventive and constantly surprising", SentimentPositive},
		{"predictable from the opening credits onward", SentimentNegative},
		{"i laughed i cried i bought another ticket", SentimentPositive},
		{"a loud empty spectacle with nothing to say", SentimentNegative},
		{"quietly brilliant and beautifully acted", SentimentPositive},
		{"the worst thing i have watched in years", SentimentNegative},
		{"a rich story told with patience and craft", SentimentPositive},
		{"sloppy editing ruins what little tension there is", SentimentNegative},
		{"an uplifting crowd pleaser that earns every cheer", SentimentPositive},
		{"cheap thrills and hollow drama nothing more", SentimentNegative},
		{"every frame feels considered and alive", SentimentPositive},
		{"by the end i no longer cared who survived", SentimentNegative},
		{"a triumph of mood and momentum", SentimentPositive},
		{"an overlong trailer for a film that never arrives", SentimentNegative},
	}
	return &TextDataset{Examples: raw}
}
