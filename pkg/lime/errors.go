package lime

import (
	"errors"
	"fmt"
)

var (
	// ErrHeaderRead marks a header that could not be read in full, which
	// usually means a truncated container.
	ErrHeaderRead = errors.New("unreadable LiME header")

	// ErrBadMagic marks a header whose magic is not the LiME constant.
	ErrBadMagic = errors.New("bad LiME magic")

	// ErrUnsupportedVersion marks a header with any revision other than 1.
	ErrUnsupportedVersion = errors.New("unsupported LiME version")

	// ErrBadRange marks an inverted, overlapping, non-monotonic, or
	// source-overrunning segment range.
	ErrBadRange = errors.New("bad LiME segment range")

	// ErrEmptyContainer marks a structurally valid container that defines
	// no segments at all.
	ErrEmptyContainer = errors.New("no LiME segments defined")
)

// UnmappedAddressError reports a read of an address no segment covers.
type UnmappedAddressError struct {
	Addr uint64
}

func (e *UnmappedAddressError) Error() string {
	return fmt.Sprintf("address 0x%x is not mapped by any segment", e.Addr)
}
