// Copyright 2025 Primer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package textenc converts text to the token-id sequences the embedding
// layers consume.
//
// Two encoders are provided behind one interface: a word-level
// Vocabulary built from a training corpus, and a TiktokenEncoder
// wrapping an OpenAI BPE encoding.
//
// Example:
//
//	vocab := textenc.BuildVocabulary(trainTexts, 200)
//	seqs, err := textenc.EncodeBatch(vocab, trainTexts, 12)
package textenc

import "github.com/primer-ml/primer/internal/textenc"

// Reserved ids in word-level vocabularies.
const (
	PadID   int32 = textenc.PadID
	StartID int32 = textenc.StartID
	UnkID   int32 = textenc.UnkID
)

// Encoder converts between text and token ids.
type Encoder = textenc.Encoder

// PadSequence shapes seq to exactly length tokens: short sequences are
// pre-padded, long ones keep their last tokens.
func PadSequence(seq []int32, length int, padID int32) []int32 {
	return textenc.PadSequence(seq, length, padID)
}

// EncodeBatch encodes texts and pads every sequence to seqLen.
func EncodeBatch(enc Encoder, texts []string, seqLen int) ([][]int32, error) {
	return textenc.EncodeBatch(enc, texts, seqLen)
}

// Tokenize lower-cases text and splits it into word tokens.
func Tokenize(text string) []string {
	return textenc.Tokenize(text)
}

// Vocabulary is a word-level encoder with reserved pad/start/unknown
// ids.
type Vocabulary = textenc.Vocabulary

// BuildVocabulary builds a vocabulary from the most frequent words in
// texts, capped at maxSize total ids.
func BuildVocabulary(texts []string, maxSize int) *Vocabulary {
	return textenc.BuildVocabulary(texts, maxSize)
}

// LoadVocabulary reads a vocabulary saved with Vocabulary.Save.
func LoadVocabulary(path string) (*Vocabulary, error) {
	return textenc.LoadVocabulary(path)
}

// TiktokenEncoder wraps an OpenAI BPE encoding behind the Encoder
// interface.
type TiktokenEncoder = textenc.TiktokenEncoder

// NewTiktokenEncoder loads a named encoding such as "cl100k_base". The
// encoding tables are fetched on first use, so this needs network
// access or a warm tiktoken cache.
func NewTiktokenEncoder(encodingName string) (*TiktokenEncoder, error) {
	return textenc.NewTiktokenEncoder(encodingName)
}
