package lime

import (
	"fmt"
	"io"
)

// BuildIndex scans a container from offset 0 and returns its segment table.
//
// Headers are self-chaining: each header's position follows from the range
// the previous header declared, so the scan is a single forward pass and a
// corrupt header invalidates everything after it. The scan fails fast on the
// first violation; no partial table is ever returned. The returned table is
// ordered by ascending start address with strictly increasing,
// non-overlapping ranges.
func BuildIndex(r io.ReaderAt, size int64) ([]Segment, error) {
	if size < HeaderSize {
		return nil, fmt.Errorf("%w: source holds %d bytes, a header needs %d", ErrHeaderRead, size, HeaderSize)
	}

	var (
		segments []Segment
		buf      [HeaderSize]byte
		offset   int64
	)
	for offset < size {
		if _, err := r.ReadAt(buf[:], offset); err != nil {
			return nil, fmt.Errorf("%w at file offset 0x%x: %v", ErrHeaderRead, offset, err)
		}
		hdr, ok := DecodeHeader(buf[:])
		if !ok {
			return nil, fmt.Errorf("%w at file offset 0x%x", ErrHeaderRead, offset)
		}
		if !hdr.Valid() {
			return nil, fmt.Errorf("%w 0x%x at file offset 0x%x", ErrBadMagic, hdr.Magic, offset)
		}
		if !hdr.Compatible() {
			return nil, fmt.Errorf("%w %d at file offset 0x%x", ErrUnsupportedVersion, hdr.Version, offset)
		}
		if hdr.End < hdr.Start {
			return nil, fmt.Errorf("%w: bad start/end 0x%x/0x%x at file offset 0x%x", ErrBadRange, hdr.Start, hdr.End, offset)
		}
		if n := len(segments); n > 0 && hdr.Start <= segments[n-1].End() {
			return nil, fmt.Errorf("%w: start 0x%x does not clear previous end 0x%x at file offset 0x%x",
				ErrBadRange, hdr.Start, segments[n-1].End(), offset)
		}

		payload := offset + HeaderSize
		length := hdr.End - hdr.Start + 1
		// Bound the declared payload by what the source actually holds.
		// This also forecloses uint64 wrap of end-start+1 and keeps the
		// next offset inside int64.
		if remaining := uint64(size - payload); length == 0 || length > remaining {
			return nil, fmt.Errorf("%w: segment at file offset 0x%x declares 0x%x payload bytes, 0x%x remain",
				ErrBadRange, offset, length, size-payload)
		}

		segments = append(segments, Segment{Start: hdr.Start, Offset: payload, Length: length})
		offset = payload + int64(length)
	}

	if len(segments) == 0 {
		return nil, ErrEmptyContainer
	}
	return segments, nil
}
