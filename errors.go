package assets

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidSize is returned when a rasterization target has a zero,
// negative or oversized dimension.
var ErrInvalidSize = errors.New("assets: invalid target size")

// FetchError reports a transport failure while fetching a URI.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("assets: fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IOError reports a failure reading a file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("assets: read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// maxStatusBody is the number of body bytes StatusError.Error keeps.
const maxStatusBody = 200

// StatusError reports a non-success HTTP status. Body holds the response
// body with invalid UTF-8 replaced.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > maxStatusBody {
		n := maxStatusBody
		for n > 0 && !utf8.RuneStart(body[n]) {
			n--
		}
		body = body[:n] + "..."
	}
	return fmt.Sprintf("assets: unexpected status %d: %s", e.Status, body)
}

// DecodeError reports bytes that are neither a decodable raster image nor
// a parseable SVG document.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("assets: decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var errInvalidSourceKey = errors.New("invalid source key")
