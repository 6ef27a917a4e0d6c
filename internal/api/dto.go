package api

import (
	"fmt"

	"github.com/samcharles93/limeview/internal/registry"
	"github.com/samcharles93/limeview/pkg/lime"
)

// Addresses travel as hex strings: JSON numbers cannot carry a full
// uint64 without loss past 2^53.

type OpenImageRequest struct {
	Path string `json:"path"`
}

type ImageInfo struct {
	Name         string `json:"name"`
	ID           string `json:"id"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	SegmentCount int    `json:"segment_count"`
	MinAddress   string `json:"min_address"`
	MaxAddress   string `json:"max_address"`
}

type SegmentInfo struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Offset int64  `json:"offset"`
	Length uint64 `json:"length"`
}

type SegmentsResponse struct {
	Name     string        `json:"name"`
	Segments []SegmentInfo `json:"segments"`
}

type ReadResponse struct {
	Name   string `json:"name"`
	Addr   string `json:"addr"`
	Length int    `json:"length"`
	Data   string `json:"data"` // base64
}

type DeleteResponse struct {
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}

func imageInfo(e *registry.Entry) ImageInfo {
	img := e.Image
	return ImageInfo{
		Name:         e.Name,
		ID:           e.ID.String(),
		Path:         e.Path,
		Size:         img.Size(),
		SegmentCount: len(img.Segments()),
		MinAddress:   hexAddr(img.MinAddress()),
		MaxAddress:   hexAddr(img.MaxAddress()),
	}
}

func segmentInfo(s lime.Segment) SegmentInfo {
	return SegmentInfo{
		Start:  hexAddr(s.Start),
		End:    hexAddr(s.End()),
		Offset: s.Offset,
		Length: s.Length,
	}
}

func hexAddr(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}
