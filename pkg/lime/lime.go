// Package lime implements the LiME capture container format.
//
// LiME stores a capture of a byte-addressable source, typically physical
// memory with large holes in it, as a sequence of segments. Each segment is
// prefixed by a fixed 28-byte little-endian header declaring the inclusive
// address range its payload covers. Addresses absent from every segment are
// simply not present in the file.
package lime

// LiME global constants must never change.
const (
	// Magic identifies a LiME container. The four bytes read "EMiL".
	Magic uint32 = 0x4C694D45

	// Version is the only supported format revision.
	Version uint32 = 1

	// HeaderSize is the fixed size of one encoded segment header.
	HeaderSize = 28
)

// Header is one decoded segment header.
//
// Start and End are inclusive addresses in the captured address space.
// Reserved is carried but never interpreted.
type Header struct {
	Magic    uint32
	Version  uint32
	Start    uint64
	End      uint64
	Reserved uint32
}

// Valid reports whether the header carries the LiME magic.
func (h *Header) Valid() bool {
	return h.Magic == Magic
}

// Compatible reports whether the header's revision is supported.
func (h *Header) Compatible() bool {
	return h.Version == Version
}

// Segment maps one contiguous address range onto the span of the source
// that backs it. Length is always at least 1.
type Segment struct {
	Start  uint64 // first mapped address, inclusive
	Offset int64  // payload offset within the source
	Length uint64 // payload size in bytes
}

// End returns the last mapped address, inclusive.
func (s Segment) End() uint64 {
	return s.Start + s.Length - 1
}
