// Package svg parses SVG documents and rasterizes them.
//
// Shapes, paths, gradients and strokes are handled by oksvg and rasterx.
// Text elements are shaped with go-text and drawn from the outlines of faces
// found in a fontdb.Database.
package svg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/gogpu/assets/fontdb"
	"github.com/srwiley/oksvg"
)

// defaultSize is used when a document has neither width, height nor viewBox.
const defaultSize = 100

// ViewBox is the user-space rectangle mapped onto the viewport.
type ViewBox struct {
	X, Y, W, H float64
}

// Options controls parsing.
type Options struct {
	// Fonts resolves font families for text elements. Nil means
	// fontdb.Default, loaded only if the document contains text.
	Fonts *fontdb.Database
}

// Tree is a parsed SVG document.
//
// A Tree is immutable from the caller's point of view and safe for
// concurrent use. Rendering is serialized internally.
type Tree struct {
	width, height float64
	viewBox       ViewBox

	fonts *fontdb.Database
	texts []textRun

	// mu guards icon, whose target transform is mutated per render.
	mu   sync.Mutex
	icon *oksvg.SvgIcon
}

// Width returns the intrinsic width in CSS pixels.
func (t *Tree) Width() float64 { return t.width }

// Height returns the intrinsic height in CSS pixels.
func (t *Tree) Height() float64 { return t.height }

// ViewBox returns the document's user-space rectangle.
func (t *Tree) ViewBox() ViewBox { return t.viewBox }

// HasText reports whether the document contains text elements.
func (t *Tree) HasText() bool { return len(t.texts) > 0 }

// Parse parses an SVG document.
//
// Errors are *ParseError values. Parse never panics on malformed input.
func Parse(data []byte, opts Options) (*Tree, error) {
	head, err := scan(data)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	// Documents sized only by width/height get a matching viewBox.
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.X, icon.ViewBox.Y = head.viewBox.X, head.viewBox.Y
		icon.ViewBox.W, icon.ViewBox.H = head.viewBox.W, head.viewBox.H
	}

	return &Tree{
		width:   head.width,
		height:  head.height,
		viewBox: head.viewBox,
		fonts:   opts.Fonts,
		texts:   head.texts,
		icon:    icon,
	}, nil
}

// header is what the XML prepass extracts: the root geometry and text runs.
type header struct {
	width, height float64
	viewBox       ViewBox
	texts         []textRun
}

// scan walks the document once with encoding/xml. It validates the root
// element, resolves the intrinsic size and collects text runs.
func scan(data []byte) (*header, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var (
		h       *header
		styles  []textStyle
		current *textRun
		depth   int
		textAt  int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			if h == nil {
				if el.Name.Local != "svg" {
					return nil, ErrNotSVG
				}
				if h, err = rootHeader(el); err != nil {
					return nil, err
				}
				styles = append(styles, defaultTextStyle().inherit(el.Attr))
				continue
			}

			style := styles[len(styles)-1].inherit(el.Attr)
			styles = append(styles, style)

			if el.Name.Local == "text" && current == nil {
				current = &textRun{style: style}
				current.x, _ = parseLength(firstValue(attr(el.Attr, "x")), 0)
				current.y, _ = parseLength(firstValue(attr(el.Attr, "y")), 0)
				textAt = depth
			}

		case xml.EndElement:
			if current != nil && depth == textAt {
				current.text = strings.Join(strings.Fields(current.text), " ")
				if current.text != "" {
					h.texts = append(h.texts, *current)
				}
				current = nil
			}
			if len(styles) > 0 {
				styles = styles[:len(styles)-1]
			}
			depth--

		case xml.CharData:
			if current != nil {
				current.text += string(el)
			}
		}
	}

	if h == nil {
		return nil, ErrNotSVG
	}
	return h, nil
}

func rootHeader(el xml.StartElement) (*header, error) {
	h := &header{}

	if nonFinite(attr(el.Attr, "width")) || nonFinite(attr(el.Attr, "height")) {
		return nil, ErrNoIntrinsicSize
	}

	vb, hasViewBox := parseViewBox(attr(el.Attr, "viewBox"))
	if hasViewBox {
		h.viewBox = vb
	}

	w, hasW := parseLength(attr(el.Attr, "width"), 0)
	hh, hasH := parseLength(attr(el.Attr, "height"), 0)

	switch {
	case hasW && hasH:
	case hasW && hasViewBox:
		hh = w * vb.H / vb.W
	case hasH && hasViewBox:
		w = hh * vb.W / vb.H
	case hasViewBox:
		w, hh = vb.W, vb.H
	default:
		if !hasW {
			w = defaultSize
		}
		if !hasH {
			hh = defaultSize
		}
	}

	if w <= 0 || hh <= 0 {
		return nil, ErrNoIntrinsicSize
	}
	h.width, h.height = w, hh
	if !hasViewBox {
		h.viewBox = ViewBox{W: w, H: hh}
	}
	return h, nil
}

func attr(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func firstValue(list string) string {
	fields := strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// parseLength parses a CSS length in px, pt or unitless form. Percentages,
// unknown units and values that are not finite report false.
func parseLength(s string, fallback float64) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, false
	}
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "px"):
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "pt"):
		s, scale = s[:len(s)-2], 4.0/3.0
	case strings.HasSuffix(s, "%"):
		return fallback, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !isFinite(v) {
		return fallback, false
	}
	return v * scale, true
}

// nonFinite reports whether s is a number that is NaN, infinite or out of
// float64 range, with or without a px or pt unit.
func nonFinite(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "px"), "pt")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.Is(err, strconv.ErrRange)
	}
	return !isFinite(v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func parseViewBox(s string) (ViewBox, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
	if len(fields) != 4 {
		return ViewBox{}, false
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil || !isFinite(n) {
			return ViewBox{}, false
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return ViewBox{}, false
	}
	return ViewBox{X: v[0], Y: v[1], W: v[2], H: v[3]}, true
}
