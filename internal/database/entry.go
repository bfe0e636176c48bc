// Package database implements the textual and binary persistence formats
// for a computed-code table, plus the tagged EntryValue representation that
// replaces an in-band tag_size vs tag_size+8 length dispatch with a
// structural Go type.
package database

import (
	"encoding/binary"
	"fmt"

	"github.com/icodeguard/icodeguard/internal/errs"
)

// EntryKind classifies a DatabaseEntry's value payload.
type EntryKind int

const (
	// KindWholeFile is a code over an entire file or a fragment of one.
	KindWholeFile EntryKind = iota
	// KindSegment is a code over one ELF PT_LOAD segment, with its on-disk
	// length recorded alongside the code.
	KindSegment
)

// EntryValue is the in-memory representation of one DatabaseEntry's value.
// Its Marshal/Unmarshal round-trip the on-the-wire layout: whole-file
// entries are tag_size bytes of code; segment entries are an 8-byte
// little-endian p_filesz followed by tag_size bytes of code.
type EntryValue struct {
	Kind EntryKind
	Size uint64 // meaningful only for KindSegment: the segment's p_filesz
	Code []byte // tag_size bytes
}

// Marshal produces the on-disk byte layout for v.
func (v EntryValue) Marshal() []byte {
	if v.Kind == KindWholeFile {
		return append([]byte(nil), v.Code...)
	}
	out := make([]byte, 8+len(v.Code))
	binary.LittleEndian.PutUint64(out[:8], v.Size)
	copy(out[8:], v.Code)
	return out
}

// UnmarshalEntryValue parses raw using its sole in-band signal: a value
// whose length equals tagSize is a whole-file entry; a value whose length
// equals tagSize+8 is a segment entry with its length prefix stripped.
func UnmarshalEntryValue(tagSize int, raw []byte) (EntryValue, error) {
	switch len(raw) {
	case tagSize:
		return EntryValue{Kind: KindWholeFile, Code: raw}, nil
	case tagSize + 8:
		return EntryValue{
			Kind: KindSegment,
			Size: binary.LittleEndian.Uint64(raw[:8]),
			Code: raw[8:],
		}, nil
	default:
		return EntryValue{}, errs.New(errs.WrongLength,
			fmt.Sprintf("value length %d matches neither tag_size %d nor tag_size+8", len(raw), tagSize))
	}
}
