package lime

import "encoding/binary"

// DecodeHeader unpacks one header record from exactly HeaderSize bytes.
// It performs no semantic validation: any well-formed 28-byte blob decodes,
// garbage included. Callers check Valid and Compatible themselves.
func DecodeHeader(b []byte) (Header, bool) {
	if len(b) != HeaderSize {
		return Header{}, false
	}
	return Header{
		Magic:    binary.LittleEndian.Uint32(b[0:4]),
		Version:  binary.LittleEndian.Uint32(b[4:8]),
		Start:    binary.LittleEndian.Uint64(b[8:16]),
		End:      binary.LittleEndian.Uint64(b[16:24]),
		Reserved: binary.LittleEndian.Uint32(b[24:28]),
	}, true
}

// EncodeHeader packs one header record into exactly HeaderSize bytes.
func EncodeHeader(dst []byte, h Header) bool {
	if len(dst) != HeaderSize {
		return false
	}
	binary.LittleEndian.PutUint32(dst[0:4], h.Magic)
	binary.LittleEndian.PutUint32(dst[4:8], h.Version)
	binary.LittleEndian.PutUint64(dst[8:16], h.Start)
	binary.LittleEndian.PutUint64(dst[16:24], h.End)
	binary.LittleEndian.PutUint32(dst[24:28], h.Reserved)
	return true
}
