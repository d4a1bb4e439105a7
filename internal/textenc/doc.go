// Package textenc turns raw text into the int32 token sequences the
// embedding layers consume.
//
// Two encoders share one interface: Vocabulary, a word-level index
// built from a training corpus with the classic reserved ids (0 pad,
// 1 start, 2 unknown), and TiktokenEncoder, a thin wrapper over the
// OpenAI BPE vocabularies for a subword comparison. PadSequence and
// EncodeBatch shape either encoder's output to a fixed length.
package textenc
