// Package api exposes registered captures over a small REST surface.
package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/limeview/internal/logger"
	"github.com/samcharles93/limeview/internal/registry"
	"github.com/samcharles93/limeview/pkg/lime"
)

// maxReadLength bounds a single ranged read so one request cannot buffer
// an arbitrarily large slice of the capture.
const maxReadLength = 4 << 20

type Server struct {
	reg *registry.Registry
	log logger.Logger
}

func NewServer(reg *registry.Registry, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{reg: reg, log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/images", s.handleOpenImage)
	e.GET("/v1/images", s.handleListImages)
	e.GET("/v1/images/:name", s.handleGetImage)
	e.GET("/v1/images/:name/segments", s.handleSegments)
	e.GET("/v1/images/:name/read", s.handleRead)
	e.DELETE("/v1/images/:name", s.handleCloseImage)
}

func (s *Server) handleOpenImage(c *echo.Context) error {
	req, err := decodeJSON[OpenImageRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Path == "" {
		return writeBadRequest(c, "path is required")
	}
	entry, err := s.reg.Stack(req.Path)
	if err != nil {
		s.log.Warn("open failed", "path", req.Path, "error", err)
		return writeOpenError(c, err)
	}
	return c.JSON(http.StatusCreated, imageInfo(entry))
}

func (s *Server) handleListImages(c *echo.Context) error {
	entries := s.reg.List()
	infos := make([]ImageInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, imageInfo(e))
	}
	return c.JSON(http.StatusOK, map[string]any{"images": infos})
}

func (s *Server) handleGetImage(c *echo.Context) error {
	entry, ok := s.reg.Get(c.Param("name"))
	if !ok {
		return writeNotFound(c, "no such image")
	}
	return c.JSON(http.StatusOK, imageInfo(entry))
}

func (s *Server) handleSegments(c *echo.Context) error {
	entry, ok := s.reg.Get(c.Param("name"))
	if !ok {
		return writeNotFound(c, "no such image")
	}
	segments := entry.Image.Segments()
	infos := make([]SegmentInfo, 0, len(segments))
	for _, seg := range segments {
		infos = append(infos, segmentInfo(seg))
	}
	return c.JSON(http.StatusOK, SegmentsResponse{Name: entry.Name, Segments: infos})
}

func (s *Server) handleRead(c *echo.Context) error {
	entry, ok := s.reg.Get(c.Param("name"))
	if !ok {
		return writeNotFound(c, "no such image")
	}
	addr, err := parseAddr(c.QueryParam("addr"))
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("addr: %v", err))
	}
	length, err := strconv.Atoi(c.QueryParam("length"))
	if err != nil || length <= 0 {
		return writeBadRequest(c, "length must be a positive integer")
	}
	if length > maxReadLength {
		return writeBadRequest(c, fmt.Sprintf("length exceeds %d", maxReadLength))
	}
	zero := c.QueryParam("zero") == "true"

	p := make([]byte, length)
	if zero {
		_, err = entry.Image.ReadAtZero(p, addr)
	} else {
		_, err = entry.Image.ReadAt(p, addr)
	}
	if err != nil {
		var unmapped *lime.UnmappedAddressError
		if errors.As(err, &unmapped) {
			return writeError(c, http.StatusRequestedRangeNotSatisfiable, "unmapped_address", err.Error())
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}

	return c.JSON(http.StatusOK, ReadResponse{
		Name:   entry.Name,
		Addr:   hexAddr(addr),
		Length: length,
		Data:   base64.StdEncoding.EncodeToString(p),
	})
}

func (s *Server) handleCloseImage(c *echo.Context) error {
	name := c.Param("name")
	if err := s.reg.Close(name); err != nil {
		if errors.Is(err, registry.ErrUnknownImage) {
			return writeNotFound(c, "no such image")
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.JSON(http.StatusOK, DeleteResponse{Name: name, Deleted: true})
}

// parseAddr accepts decimal or 0x-prefixed hexadecimal addresses.
func parseAddr(s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("missing")
	}
	return strconv.ParseUint(s, 0, 64)
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
