package textenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestTiktoken skips when the encoding tables cannot be loaded, so
// offline runs stay green.
func newTestTiktoken(t *testing.T) *TiktokenEncoder {
	t.Helper()
	enc, err := NewTiktokenEncoder("cl100k_base")
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	return enc
}

func TestTiktokenEncoderRoundtrip(t *testing.T) {
	enc := newTestTiktoken(t)

	tests := []string{
		"Hello, world!",
		"a film of rare warmth",
		"",
	}
	for _, text := range tests {
		ids, err := enc.Encode(text)
		require.NoError(t, err)
		decoded, err := enc.Decode(ids)
		require.NoError(t, err)
		assert.Equal(t, text, decoded)
	}
}

func TestTiktokenEncoderMetadata(t *testing.T) {
	enc := newTestTiktoken(t)
	assert.Equal(t, 100256, enc.VocabSize())
	assert.Equal(t, int32(0), enc.PadID())
	assert.Equal(t, "cl100k_base", enc.Name())
}

func TestTiktokenEncoderRejectsUnknownEncoding(t *testing.T) {
	_, err := NewTiktokenEncoder("no_such_encoding")
	assert.Error(t, err)
}

func TestTiktokenWorksWithPadSequence(t *testing.T) {
	enc := newTestTiktoken(t)
	ids, err := enc.Encode("so good")
	require.NoError(t, err)
	padded := PadSequence(ids, 8, enc.PadID())
	assert.Len(t, padded, 8)
	// Real tokens keep their place at the tail.
	assert.Equal(t, ids[len(ids)-1], padded[7])
}
