package svg

import (
	"errors"
	"fmt"
)

// MaxDimension bounds the width and height of a rasterized document.
const MaxDimension = 1 << 14

var (
	// ErrZeroSize is returned when a render target has a zero dimension.
	ErrZeroSize = errors.New("svg: zero-size render target")

	// ErrNotSVG is returned when the document root is not an <svg> element.
	ErrNotSVG = errors.New("svg: root element is not <svg>")

	// ErrNoIntrinsicSize is returned when width, height and viewBox are all
	// missing or non-positive.
	ErrNoIntrinsicSize = errors.New("svg: document has no positive size")

	// ErrTooLarge is returned when a render target would exceed MaxDimension
	// on either axis.
	ErrTooLarge = errors.New("svg: render target too large")
)

// ParseError reports a document that could not be parsed as SVG.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("svg: parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
