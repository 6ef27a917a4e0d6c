package lime

import "io"

// Probe checks whether the source begins with a plausible LiME segment
// header. It reads the first HeaderSize bytes and validates magic and
// version, nothing more; the segment chain is not walked.
//
// Probe is the cheap detection path for callers trying several formats
// against an unknown source, so every failure, short source included,
// collapses into a plain rejection. It never mutates anything and may be
// invoked speculatively and repeatedly.
func Probe(r io.ReaderAt) (Header, bool) {
	var buf [HeaderSize]byte
	if _, err := r.ReadAt(buf[:], 0); err != nil {
		return Header{}, false
	}
	hdr, ok := DecodeHeader(buf[:])
	if !ok || !hdr.Valid() || !hdr.Compatible() {
		return Header{}, false
	}
	return hdr, true
}
