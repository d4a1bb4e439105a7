package textenc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Encoder = (*Vocabulary)(nil)
	_ Encoder = (*TiktokenEncoder)(nil)
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and strips punctuation",
			text: "Don't Stop! Believing...",
			want: []string{"don't", "stop", "believing"},
		},
		{
			name: "keeps digits",
			text: "Top 10 films of 2024",
			want: []string{"top", "10", "films", "of", "2024"},
		},
		{
			name: "empty text",
			text: "  \t\n ",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}

func TestBuildVocabularyRanksByFrequency(t *testing.T) {
	texts := []string{
		"the cat sat on the mat",
		"the dog sat",
	}
	vocab := BuildVocabulary(texts, 0)

	// the(3 uses) then sat(2), then singles alphabetically.
	assert.Equal(t, int32(3), vocab.Lookup("the"))
	assert.Equal(t, int32(4), vocab.Lookup("sat"))
	assert.Equal(t, int32(5), vocab.Lookup("cat"))
	assert.Equal(t, int32(6), vocab.Lookup("dog"))
	assert.Equal(t, int32(7), vocab.Lookup("mat"))
	assert.Equal(t, int32(8), vocab.Lookup("on"))
	assert.Equal(t, 9, vocab.VocabSize())
	assert.Equal(t, UnkID, vocab.Lookup("flew"))
}

func TestBuildVocabularyCapsSize(t *testing.T) {
	texts := []string{"the cat sat on the mat", "the dog sat"}
	vocab := BuildVocabulary(texts, 5)

	assert.Equal(t, 5, vocab.VocabSize())
	assert.Equal(t, int32(3), vocab.Lookup("the"))
	assert.Equal(t, int32(4), vocab.Lookup("sat"))
	// Everything below the cap falls back to unknown.
	assert.Equal(t, UnkID, vocab.Lookup("cat"))
}

func TestBuildVocabularyDeterministic(t *testing.T) {
	texts := []string{"alpha beta gamma delta epsilon zeta"}
	a := BuildVocabulary(texts, 0)
	b := BuildVocabulary(texts, 0)
	for _, word := range Tokenize(texts[0]) {
		assert.Equal(t, a.Lookup(word), b.Lookup(word), "word %q", word)
	}
}

func TestVocabularyEncode(t *testing.T) {
	vocab := BuildVocabulary([]string{"the cat sat on the mat", "the dog sat"}, 0)

	ids, err := vocab.Encode("The cat flew!")
	require.NoError(t, err)
	assert.Equal(t, []int32{StartID, 3, 5, UnkID}, ids)
}

func TestVocabularyDecode(t *testing.T) {
	vocab := BuildVocabulary([]string{"the cat sat on the mat", "the dog sat"}, 0)

	text, err := vocab.Decode([]int32{PadID, PadID, StartID, 3, 5, UnkID})
	require.NoError(t, err)
	assert.Equal(t, "the cat <unk>", text)

	_, err = vocab.Decode([]int32{99})
	assert.Error(t, err)
}

func TestPadSequence(t *testing.T) {
	tests := []struct {
		name   string
		seq    []int32
		length int
		want   []int32
	}{
		{
			name:   "short sequence is pre-padded",
			seq:    []int32{1, 5, 6},
			length: 5,
			want:   []int32{0, 0, 1, 5, 6},
		},
		{
			name:   "long sequence keeps its tail",
			seq:    []int32{1, 5, 6, 7, 8},
			length: 3,
			want:   []int32{6, 7, 8},
		},
		{
			name:   "exact length is unchanged",
			seq:    []int32{1, 5},
			length: 2,
			want:   []int32{1, 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PadSequence(tt.seq, tt.length, PadID))
		})
	}
}

func TestEncodeBatch(t *testing.T) {
	vocab := BuildVocabulary([]string{"good good bad"}, 0)

	sequences, err := EncodeBatch(vocab, []string{"good", "bad bad bad bad"}, 4)
	require.NoError(t, err)
	require.Len(t, sequences, 2)
	assert.Equal(t, []int32{PadID, PadID, StartID, 3}, sequences[0])
	// Five tokens truncated to the last four.
	assert.Equal(t, []int32{4, 4, 4, 4}, sequences[1])
}

func TestVocabularySaveLoad(t *testing.T) {
	vocab := BuildVocabulary([]string{"the cat sat on the mat"}, 0)
	path := filepath.Join(t.TempDir(), "vocab.json")

	require.NoError(t, vocab.Save(path))
	loaded, err := LoadVocabulary(path)
	require.NoError(t, err)

	assert.Equal(t, vocab.VocabSize(), loaded.VocabSize())
	for _, word := range []string{"the", "cat", "sat", "on", "mat"} {
		assert.Equal(t, vocab.Lookup(word), loaded.Lookup(word), "word %q", word)
	}

	ids, err := loaded.Encode("the mat")
	require.NoError(t, err)
	text, err := loaded.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "the mat", text)
}

func TestLoadVocabularyMissingFile(t *testing.T) {
	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
