package textenc

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenEncoder wraps an OpenAI BPE encoding behind the Encoder
// interface, so the sentiment lesson can swap subword input for the
// word-level vocabulary with a flag.
//
// BPE has no padding id; sequences are padded with id 0, which is also
// a live token. Harmless for classification, wrong for generation.
type TiktokenEncoder struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTiktokenEncoder loads a named encoding ("cl100k_base",
// "p50k_base", "r50k_base"). The encoding tables are fetched on first
// use, so this needs network access or a warm tiktoken cache.
func NewTiktokenEncoder(encodingName string) (*TiktokenEncoder, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TiktokenEncoder{encoding: encoding, name: encodingName}, nil
}

// Encode converts text to token ids.
func (t *TiktokenEncoder) Encode(text string) ([]int32, error) {
	tokens := t.encoding.Encode(text, nil, nil)
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = int32(tok)
	}
	return ids, nil
}

// Decode converts token ids back to text.
func (t *TiktokenEncoder) Decode(tokens []int32) (string, error) {
	ints := make([]int, len(tokens))
	for i, tok := range tokens {
		ints[i] = int(tok)
	}
	return t.encoding.Decode(ints), nil
}

// VocabSize returns the encoding's id space. tiktoken-go does not
// expose it, so the known sizes are hardcoded per encoding.
func (t *TiktokenEncoder) VocabSize() int {
	switch t.name {
	case "cl100k_base":
		return 100256
	case "p50k_base", "r50k_base":
		return 50257
	default:
		return 100256
	}
}

// PadID returns 0; see the type comment.
func (t *TiktokenEncoder) PadID() int32 {
	return 0
}

// Name returns the encoding name.
func (t *TiktokenEncoder) Name() string {
	return t.name
}
