package textenc

// Reserved ids in word-level vocabularies, following the Keras IMDB
// convention.
const (
	PadID   int32 = 0
	StartID int32 = 1
	UnkID   int32 = 2
)

// Encoder converts between text and token ids.
type Encoder interface {
	// Encode converts text to token ids.
	Encode(text string) ([]int32, error)

	// Decode converts token ids back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the number of distinct ids the encoder can
	// emit, the embedding table size to pair with it.
	VocabSize() int

	// PadID returns the id used to fill short sequences.
	PadID() int32
}

// PadSequence shapes seq to exactly length tokens. Short sequences are
// pre-padded and long ones keep their last tokens, so the real text
// always sits at the end where a recurrent model's final state sees it.
func PadSequence(seq []int32, length int, padID int32) []int32 {
	out := make([]int32, length)
	if len(seq) >= length {
		copy(out, seq[len(seq)-length:])
		return out
	}
	pad := length - len(seq)
	for i := 0; i < pad; i++ {
		out[i] = padID
	}
	copy(out[pad:], seq)
	return out
}

// EncodeBatch encodes every text and pads each sequence to seqLen.
func EncodeBatch(enc Encoder, texts []string, seqLen int) ([][]int32, error) {
	sequences := make([][]int32, len(texts))
	for i, text := range texts {
		seq, err := enc.Encode(text)
		if err != nil {
			return nil, err
		}
		sequences[i] = PadSequence(seq, seqLen, enc.PadID())
	}
	return sequences, nil
}
