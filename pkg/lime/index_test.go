package lime

import (
	"bytes"
	"errors"
	"testing"
)

// segmentBlob builds one encoded header followed by its payload, with every
// payload byte set to fill.
func segmentBlob(start, end uint64, fill byte) []byte {
	return segmentBlobHeader(Header{Magic: Magic, Version: Version, Start: start, End: end}, fill)
}

func segmentBlobHeader(h Header, fill byte) []byte {
	out := make([]byte, HeaderSize+int(h.End-h.Start+1))
	EncodeHeader(out[:HeaderSize], h)
	for i := HeaderSize; i < len(out); i++ {
		out[i] = fill
	}
	return out
}

func buildIndex(t *testing.T, blob []byte) ([]Segment, error) {
	t.Helper()
	return BuildIndex(bytes.NewReader(blob), int64(len(blob)))
}

func TestBuildIndexSingleSegment(t *testing.T) {
	t.Parallel()

	// The full wire layout, spelled out byte for byte: one header mapping
	// [0,255], then 256 payload bytes, then end of source.
	blob := append([]byte{
		'E', 'M', 'i', 'L',
		0x01, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}, make([]byte, 256)...)

	segs, err := buildIndex(t, blob)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("segment count: got %d want 1", len(segs))
	}
	got := segs[0]
	if got.Start != 0 || got.End() != 255 || got.Offset != 28 || got.Length != 256 {
		t.Fatalf("segment mismatch: %+v", got)
	}
}

func TestBuildIndexMultipleSegmentsWithGaps(t *testing.T) {
	t.Parallel()

	var blob []byte
	blob = append(blob, segmentBlob(0x1000, 0x1FFF, 0xAA)...)
	blob = append(blob, segmentBlob(0x4000, 0x40FF, 0xBB)...)
	blob = append(blob, segmentBlob(0x9000, 0x9000, 0xCC)...)

	segs, err := buildIndex(t, blob)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("segment count: got %d want 3", len(segs))
	}

	want := []Segment{
		{Start: 0x1000, Offset: 28, Length: 0x1000},
		{Start: 0x4000, Offset: 28 + 0x1000 + 28, Length: 0x100},
		{Start: 0x9000, Offset: 28 + 0x1000 + 28 + 0x100 + 28, Length: 1},
	}
	for i, w := range want {
		if segs[i] != w {
			t.Fatalf("segment %d mismatch: got %+v want %+v", i, segs[i], w)
		}
	}
}

func TestBuildIndexRejectsTouchingSegments(t *testing.T) {
	t.Parallel()

	// Second segment starts exactly at the previous end. Accepting it would
	// re-declare an already covered address.
	var blob []byte
	blob = append(blob, segmentBlob(0, 255, 0x11)...)
	blob = append(blob, segmentBlob(255, 511, 0x22)...)

	if _, err := buildIndex(t, blob); !errors.Is(err, ErrBadRange) {
		t.Fatalf("expected ErrBadRange, got %v", err)
	}
}

func TestBuildIndexRejectsOverlapAndRegression(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		start, end uint64
	}{
		{"overlapping", 0x80, 0x1FF},
		{"regressing", 0x10, 0x20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var blob []byte
			blob = append(blob, segmentBlob(0, 255, 0x11)...)
			blob = append(blob, segmentBlob(tc.start, tc.end, 0x22)...)

			if _, err := buildIndex(t, blob); !errors.Is(err, ErrBadRange) {
				t.Fatalf("expected ErrBadRange, got %v", err)
			}
		})
	}
}

func TestBuildIndexRejectsInvertedRange(t *testing.T) {
	t.Parallel()

	blob := make([]byte, HeaderSize)
	EncodeHeader(blob, Header{Magic: Magic, Version: Version, Start: 0x2000, End: 0x1000})

	if _, err := buildIndex(t, blob); !errors.Is(err, ErrBadRange) {
		t.Fatalf("expected ErrBadRange, got %v", err)
	}
}

func TestBuildIndexRejectsBadMagic(t *testing.T) {
	t.Parallel()

	blob := segmentBlob(0, 15, 0x00)
	blob[0] = 'X'

	if _, err := buildIndex(t, blob); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestBuildIndexRejectsVersionTwo(t *testing.T) {
	t.Parallel()

	blob := segmentBlobHeader(Header{Magic: Magic, Version: 2, Start: 0, End: 15}, 0x00)

	if _, err := buildIndex(t, blob); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestBuildIndexRejectsShortSource(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, HeaderSize - 1} {
		if _, err := buildIndex(t, make([]byte, n)); !errors.Is(err, ErrHeaderRead) {
			t.Fatalf("source of %d bytes: expected ErrHeaderRead, got %v", n, err)
		}
	}
}

func TestBuildIndexRejectsTruncatedChain(t *testing.T) {
	t.Parallel()

	// A valid first segment followed by a partial second header.
	var blob []byte
	blob = append(blob, segmentBlob(0, 63, 0x11)...)
	blob = append(blob, make([]byte, HeaderSize-4)...)

	if _, err := buildIndex(t, blob); !errors.Is(err, ErrHeaderRead) {
		t.Fatalf("expected ErrHeaderRead, got %v", err)
	}
}

func TestBuildIndexRejectsPayloadOverrun(t *testing.T) {
	t.Parallel()

	// The header declares 256 payload bytes but only 100 follow.
	blob := segmentBlob(0, 255, 0x11)[:HeaderSize+100]

	if _, err := buildIndex(t, blob); !errors.Is(err, ErrBadRange) {
		t.Fatalf("expected ErrBadRange, got %v", err)
	}
}

func TestBuildIndexRejectsFullAddressSpaceWrap(t *testing.T) {
	t.Parallel()

	// start=0, end=MaxUint64 makes end-start+1 wrap to zero.
	blob := make([]byte, HeaderSize+64)
	EncodeHeader(blob[:HeaderSize], Header{Magic: Magic, Version: Version, Start: 0, End: ^uint64(0)})

	if _, err := buildIndex(t, blob); !errors.Is(err, ErrBadRange) {
		t.Fatalf("expected ErrBadRange, got %v", err)
	}
}
