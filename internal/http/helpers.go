package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"spendbook/internal/core"
)

var (
	errInvalidPosition = errors.New("invalid position")
	errUnknownAction   = errors.New("unknown action")
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, errInvalidPosition),
		errors.Is(err, errUnknownAction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStalePosition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the text shown to the client. Storage failures are
// reported generically; the details only go to the log.
func messageFor(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "storage failure"
	}
	return err.Error()
}

// parsePosition reads a 1-based position. Range checking is left to the
// list so that 0 and overly large values report ErrOutOfRange.
func parsePosition(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: missing", errInvalidPosition)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidPosition, s)
	}
	return n, nil
}
