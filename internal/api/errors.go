package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/limeview/internal/registry"
	"github.com/samcharles93/limeview/pkg/lime"
)

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": apiError{Type: errType, Message: msg},
	})
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

// writeOpenError maps the failure modes of stacking a capture file.
func writeOpenError(c *echo.Context, err error) error {
	switch {
	case os.IsNotExist(err):
		return writeNotFound(c, err.Error())
	case errors.Is(err, registry.ErrNotDetected):
		return writeError(c, http.StatusUnprocessableEntity, "not_detected", err.Error())
	case isFormatError(err):
		return writeError(c, http.StatusUnprocessableEntity, "invalid_format", err.Error())
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func isFormatError(err error) bool {
	for _, target := range []error{
		lime.ErrHeaderRead,
		lime.ErrBadMagic,
		lime.ErrUnsupportedVersion,
		lime.ErrBadRange,
		lime.ErrEmptyContainer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
