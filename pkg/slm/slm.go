// Package slm implements the Statistical Language Model container format.
//
// SLM is a single-file, memory-mappable container for trained n-gram models.
// A fixed little-endian header is followed by 8-byte-aligned sections and a
// section directory; the directory is written last and the header patched,
// so a file is either complete or detectably truncated. Identical models
// always serialize to identical bytes.
package slm

// SLM global constants must never change.
const (
	// Magic is the file magic for all SLM containers, encoded as "SLM\0".
	Magic = "SLM\x00"

	// CurrentMajor changes only on breaking format changes. Readers reject
	// any major version other than their own.
	CurrentMajor uint16 = 1

	// CurrentMinor may add new optional sections or fields.
	CurrentMinor uint16 = 0
)

type SectionType uint32

const (
	SectionModelMeta SectionType = 0x0001
	SectionVocab     SectionType = 0x0002
	SectionTables    SectionType = 0x0003
)

// Header is the fixed 40-byte file preamble.
type Header struct {
	Magic            [4]byte
	Major            uint16
	Minor            uint16
	HeaderSize       uint32
	SectionCount     uint32
	SectionDirOffset uint64
	FileSize         uint64
	Flags            uint64
}

// Valid reports whether the header carries the SLM magic and plausible
// structural fields.
func (h *Header) Valid() bool {
	if string(h.Magic[:]) != Magic {
		return false
	}
	if h.HeaderSize < slmHeaderSize {
		return false
	}
	if h.SectionCount == 0 {
		return false
	}
	return true
}

// Compatible reports whether this reader understands the file's major
// version.
func (h *Header) Compatible() bool {
	return h.Major == CurrentMajor
}

// Section is one 24-byte directory entry.
type Section struct {
	Type    uint32
	Version uint32
	Offset  uint64
	Size    uint64
}

// End returns the offset one past the section payload.
func (s *Section) End() uint64 {
	return s.Offset + s.Size
}
