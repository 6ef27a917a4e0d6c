package lime

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// testCapture is two adjacent segments, a gap, then a third segment:
// [0x00,0xFF]=0x11, [0x100,0x1FF]=0x22, hole, [0x1000,0x10FF]=0x33.
func testCapture() []byte {
	var blob []byte
	blob = append(blob, segmentBlob(0x000, 0x0FF, 0x11)...)
	blob = append(blob, segmentBlob(0x100, 0x1FF, 0x22)...)
	blob = append(blob, segmentBlob(0x1000, 0x10FF, 0x33)...)
	return blob
}

func writeCapture(t *testing.T, blob []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.lime")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatalf("write capture: %v", err)
	}
	return path
}

func TestOpenIndexesCapture(t *testing.T) {
	t.Parallel()

	img, err := Open(writeCapture(t, testCapture()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if cerr := img.Close(); cerr != nil {
			t.Fatalf("close: %v", cerr)
		}
	}()

	if got := len(img.Segments()); got != 3 {
		t.Fatalf("segment count: got %d want 3", got)
	}
	if img.MinAddress() != 0 || img.MaxAddress() != 0x10FF {
		t.Fatalf("address bounds: got [0x%x,0x%x]", img.MinAddress(), img.MaxAddress())
	}
	hdr := img.Header()
	if hdr.Start != 0 || hdr.End != 0xFF {
		t.Fatalf("first header mismatch: %+v", hdr)
	}
}

func TestOpenRejectsCorruptCapture(t *testing.T) {
	t.Parallel()

	blob := testCapture()
	blob[0] = 'X'

	if _, err := Open(writeCapture(t, blob)); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestImageReadAtWithinSegment(t *testing.T) {
	t.Parallel()

	img, err := NewImage(bytes.NewReader(testCapture()), int64(len(testCapture())))
	if err != nil {
		t.Fatalf("new image: %v", err)
	}

	p := make([]byte, 16)
	n, err := img.ReadAt(p, 0x1010)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != len(p) {
		t.Fatalf("read length: got %d want %d", n, len(p))
	}
	for i, b := range p {
		if b != 0x33 {
			t.Fatalf("byte %d: got 0x%x want 0x33", i, b)
		}
	}
}

func TestImageReadAtSpansAdjacentSegments(t *testing.T) {
	t.Parallel()

	blob := testCapture()
	img, err := NewImage(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("new image: %v", err)
	}

	// 8 bytes either side of the 0x100 boundary.
	p := make([]byte, 16)
	if _, err := img.ReadAt(p, 0xF8); err != nil {
		t.Fatalf("read: %v", err)
	}
	want := append(bytes.Repeat([]byte{0x11}, 8), bytes.Repeat([]byte{0x22}, 8)...)
	if !bytes.Equal(p, want) {
		t.Fatalf("boundary read mismatch: got %x want %x", p, want)
	}
}

func TestImageReadAtFailsInGap(t *testing.T) {
	t.Parallel()

	blob := testCapture()
	img, err := NewImage(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("new image: %v", err)
	}

	p := make([]byte, 32)
	n, err := img.ReadAt(p, 0x1F0)
	var unmapped *UnmappedAddressError
	if !errors.As(err, &unmapped) {
		t.Fatalf("expected UnmappedAddressError, got %v", err)
	}
	if unmapped.Addr != 0x200 {
		t.Fatalf("unmapped address: got 0x%x want 0x200", unmapped.Addr)
	}
	if n != 16 {
		t.Fatalf("partial read length: got %d want 16", n)
	}
}

func TestImageReadAtZeroFillsGap(t *testing.T) {
	t.Parallel()

	blob := testCapture()
	img, err := NewImage(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("new image: %v", err)
	}

	p := bytes.Repeat([]byte{0xEE}, 32)
	n, err := img.ReadAtZero(p, 0x1F0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != len(p) {
		t.Fatalf("read length: got %d want %d", n, len(p))
	}
	want := append(bytes.Repeat([]byte{0x22}, 16), make([]byte, 16)...)
	if !bytes.Equal(p, want) {
		t.Fatalf("zero-fill read mismatch: got %x want %x", p, want)
	}

	// Past the last segment everything reads as zero.
	if _, err := img.ReadAtZero(p, 0x2000); err != nil {
		t.Fatalf("read past end: %v", err)
	}
	if !bytes.Equal(p, make([]byte, len(p))) {
		t.Fatalf("expected all zero bytes, got %x", p)
	}
}

func TestImageLocate(t *testing.T) {
	t.Parallel()

	blob := testCapture()
	img, err := NewImage(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("new image: %v", err)
	}

	cases := []struct {
		addr    uint64
		covered bool
		start   uint64
	}{
		{0x0, true, 0x0},
		{0xFF, true, 0x0},
		{0x100, true, 0x100},
		{0x200, false, 0},
		{0xFFF, false, 0},
		{0x1000, true, 0x1000},
		{0x10FF, true, 0x1000},
		{0x1100, false, 0},
	}
	for _, tc := range cases {
		seg, ok := img.Locate(tc.addr)
		if ok != tc.covered {
			t.Fatalf("locate 0x%x: covered=%v want %v", tc.addr, ok, tc.covered)
		}
		if ok && seg.Start != tc.start {
			t.Fatalf("locate 0x%x: segment start 0x%x want 0x%x", tc.addr, seg.Start, tc.start)
		}
		if img.Covered(tc.addr) != tc.covered {
			t.Fatalf("covered 0x%x: want %v", tc.addr, tc.covered)
		}
	}
}

func TestImageConcurrentReads(t *testing.T) {
	t.Parallel()

	img, err := Open(writeCapture(t, testCapture()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = img.Close() }()

	// The table is immutable after construction; concurrent readers need
	// no locking.
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			p := make([]byte, 64)
			for j := 0; j < 100; j++ {
				if _, err := img.ReadAt(p, 0x1000); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent read: %v", err)
		}
	}
}
