package lime

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/sys/unix"
)

// Image is a fully indexed view over one LiME capture.
//
// The segment table is built eagerly during construction and never changes
// afterwards, so an Image is safe for concurrent readers without locking.
// Construction fails outright on any format error; an Image is never left
// partially indexed.
type Image struct {
	src      io.ReaderAt
	size     int64
	header   Header
	segments []Segment
	data     []byte   // mmap backing, nil when the source is not a mapping
	file     *os.File // kept open when mmap is unavailable
}

// Open maps a capture file read-only, indexes it, and returns the view.
// If mmap is unavailable the file handle itself serves reads. The returned
// image must be closed to release the mapping or handle.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	size := st.Size()

	// Prefer mmap where available; segment payloads then cost no copies.
	if size > 0 && size <= int64(int(^uint(0)>>1)) {
		if data, merr := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED); merr == nil {
			_ = f.Close()
			img, err := NewImage(bytes.NewReader(data), size)
			if err != nil {
				_ = unix.Munmap(data)
				return nil, err
			}
			img.data = data
			return img, nil
		}
	}

	img, err := NewImage(f, size)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	img.file = f
	return img, nil
}

// NewImage indexes a capture held by an arbitrary random-access source.
// The source must stay readable for the lifetime of the image.
func NewImage(r io.ReaderAt, size int64) (*Image, error) {
	segments, err := BuildIndex(r, size)
	if err != nil {
		return nil, err
	}
	// The index walked every header, so re-decoding the first one for the
	// record cannot fail.
	hdr, _ := Probe(r)
	return &Image{
		src:      r,
		size:     size,
		header:   hdr,
		segments: segments,
	}, nil
}

// Close releases the mapping or file handle backing the image.
func (img *Image) Close() error {
	if img == nil {
		return nil
	}
	var err error
	if img.data != nil {
		err = unix.Munmap(img.data)
		img.data = nil
	}
	if img.file != nil {
		if cerr := img.file.Close(); err == nil {
			err = cerr
		}
		img.file = nil
	}
	img.src = nil
	img.segments = nil
	return err
}

// Header returns the first segment header of the capture.
func (img *Image) Header() Header {
	return img.header
}

// Segments returns the segment table, ordered by ascending start address.
// The table is shared and must not be modified.
func (img *Image) Segments() []Segment {
	return img.segments
}

// Size returns the total extent of the underlying source in bytes.
func (img *Image) Size() int64 {
	return img.size
}

// MinAddress returns the lowest mapped address.
func (img *Image) MinAddress() uint64 {
	return img.segments[0].Start
}

// MaxAddress returns the highest mapped address.
func (img *Image) MaxAddress() uint64 {
	return img.segments[len(img.segments)-1].End()
}

// search returns the index of the first segment whose end is at or past
// addr. When addr sits in a gap, that is the next segment above it.
func (img *Image) search(addr uint64) int {
	return sort.Search(len(img.segments), func(i int) bool {
		return img.segments[i].End() >= addr
	})
}

// Locate returns the segment covering addr.
func (img *Image) Locate(addr uint64) (Segment, bool) {
	i := img.search(addr)
	if i == len(img.segments) || img.segments[i].Start > addr {
		return Segment{}, false
	}
	return img.segments[i], true
}

// Covered reports whether some segment maps addr.
func (img *Image) Covered(addr uint64) bool {
	_, ok := img.Locate(addr)
	return ok
}

// ReadAt fills p with capture bytes starting at the given address. Reads
// may span consecutive segments when no gap intervenes; touching an
// unmapped address fails with an UnmappedAddressError reporting it.
func (img *Image) ReadAt(p []byte, addr uint64) (int, error) {
	n := 0
	for n < len(p) {
		seg, ok := img.Locate(addr)
		if !ok {
			return n, &UnmappedAddressError{Addr: addr}
		}
		m, err := img.readSegment(p[n:], seg, addr)
		n += m
		if err != nil {
			return n, err
		}
		addr += uint64(m)
		if addr == 0 && n < len(p) {
			// Wrapped past the top of the address space.
			return n, &UnmappedAddressError{Addr: addr}
		}
	}
	return n, nil
}

// ReadAtZero is ReadAt with unmapped addresses reading as zero bytes. It
// fails only when the underlying source itself fails.
func (img *Image) ReadAtZero(p []byte, addr uint64) (int, error) {
	n := 0
	for n < len(p) {
		i := img.search(addr)
		if i == len(img.segments) {
			clear(p[n:])
			n = len(p)
			break
		}
		if seg := img.segments[i]; addr < seg.Start {
			gap := seg.Start - addr
			if want := uint64(len(p) - n); gap > want {
				gap = want
			}
			clear(p[n : n+int(gap)])
			n += int(gap)
			addr += gap
			continue
		}
		m, err := img.readSegment(p[n:], img.segments[i], addr)
		n += m
		if err != nil {
			return n, err
		}
		addr += uint64(m)
		if addr == 0 && n < len(p) {
			clear(p[n:])
			n = len(p)
		}
	}
	return n, nil
}

// readSegment copies bytes for addr out of seg, which must cover addr.
// It reads at most to the end of the segment.
func (img *Image) readSegment(p []byte, seg Segment, addr uint64) (int, error) {
	off := addr - seg.Start
	chunk := seg.Length - off
	if want := uint64(len(p)); chunk > want {
		chunk = want
	}
	n, err := img.src.ReadAt(p[:chunk], seg.Offset+int64(off))
	if err != nil {
		return n, fmt.Errorf("read segment at 0x%x: %w", seg.Start, err)
	}
	return n, nil
}
