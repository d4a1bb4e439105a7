// Package serialization reads and writes the .primer checkpoint format.
//
// A .primer file is a small binary container for named tensors:
//
//	[4 bytes: magic "PRMR"]
//	[4 bytes: version (uint32 LE)]
//	[4 bytes: flags (uint32 LE)]
//	[8 bytes: header size (uint64 LE)]
//	[header: JSON metadata, tensor table and data checksum]
//	[padding to 64-byte alignment]
//	[tensor data: raw bytes in header order]
//
// The header carries a SHA-256 checksum of the data section, so a reader
// can detect truncated or corrupted files before handing tensors to a
// model. Tensors are laid out sorted by name, which makes the byte
// layout of a state dict reproducible.
//
// Example:
//
//	writer, err := serialization.NewWriter("model.primer")
//	if err != nil {
//	    return err
//	}
//	defer writer.Close()
//	if err := writer.WriteStateDict(model.StateDict(), "Sequential", nil); err != nil {
//	    return err
//	}
//
//	reader, err := serialization.NewReader("model.primer")
//	if err != nil {
//	    return err
//	}
//	defer reader.Close()
//	state, err := reader.ReadStateDict(backend)
package serialization
