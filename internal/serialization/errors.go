package serialization

import "errors"

// Sentinel errors returned while parsing .primer files.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes, not a .primer file")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
	ErrOffsetOverlap      = errors.New("tensor offsets overlap")
	ErrSizeMismatch       = errors.New("tensor size does not match shape and dtype")
)
