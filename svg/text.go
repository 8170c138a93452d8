package svg

import (
	"encoding/xml"
	"image"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/gogpu/assets/fontdb"
	"github.com/srwiley/oksvg"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const defaultFontSize = 16

type anchor uint8

const (
	anchorStart anchor = iota
	anchorMiddle
	anchorEnd
)

// textStyle holds the inherited presentation attributes text needs.
type textStyle struct {
	families []string
	size     float64
	fill     color.Color // nil means none
	opacity  float64
	anchor   anchor
}

func defaultTextStyle() textStyle {
	return textStyle{
		families: []string{"sans-serif"},
		size:     defaultFontSize,
		fill:     color.Black,
		opacity:  1,
	}
}

// inherit returns the style of a child element with attrs applied on top of s.
// Both presentation attributes and the style attribute are honored; style
// declarations win.
func (s textStyle) inherit(attrs []xml.Attr) textStyle {
	props := make(map[string]string, len(attrs))
	for _, a := range attrs {
		props[a.Name.Local] = a.Value
	}
	for _, decl := range strings.Split(props["style"], ";") {
		name, value, ok := strings.Cut(decl, ":")
		if ok {
			props[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}

	if v, ok := props["font-family"]; ok {
		var families []string
		for _, f := range strings.Split(v, ",") {
			if f = strings.Trim(strings.TrimSpace(f), `"'`); f != "" {
				families = append(families, f)
			}
		}
		if len(families) > 0 {
			s.families = families
		}
	}
	if v, ok := props["font-size"]; ok {
		if size, ok := parseLength(v, s.size); ok && size > 0 {
			s.size = size
		}
	}
	if v, ok := props["fill"]; ok {
		if c, err := oksvg.ParseSVGColor(v); err == nil {
			s.fill = c
		}
	}
	for _, key := range []string{"opacity", "fill-opacity"} {
		if v, ok := props[key]; ok {
			if o, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				s.opacity *= min(max(o, 0), 1)
			}
		}
	}
	switch props["text-anchor"] {
	case "middle":
		s.anchor = anchorMiddle
	case "end":
		s.anchor = anchorEnd
	case "start":
		s.anchor = anchorStart
	}
	return s
}

// textRun is one <text> element flattened to a single line.
type textRun struct {
	style textStyle
	x, y  float64
	text  string
}

var shaperPool = sync.Pool{
	New: func() any { return &shaping.HarfbuzzShaper{} },
}

// drawText draws every text run onto dst. sx and sy map user units to
// pixels; the viewBox origin maps to (0, 0).
func (t *Tree) drawText(dst *image.RGBA, sx, sy float64) {
	if len(t.texts) == 0 {
		return
	}
	db := t.fonts
	if db == nil {
		db = fontdb.Default()
	}

	b := dst.Bounds()
	var buf sfnt.Buffer
	for _, run := range t.texts {
		if run.style.fill == nil || run.style.opacity == 0 {
			continue
		}
		face, err := db.Query(run.style.families...)
		if err != nil {
			logger().Debug("svg: no face for text", "families", run.style.families, "err", err)
			continue
		}

		size := run.style.size * sy
		glyphs, advance := shape(face, run.text, size)
		penX := (run.x - t.viewBox.X) * sx
		penY := (run.y - t.viewBox.Y) * sy
		switch run.style.anchor {
		case anchorMiddle:
			penX -= advance / 2
		case anchorEnd:
			penX -= advance
		}

		z := vector.NewRasterizer(b.Dx(), b.Dy())
		drawn := false
		for _, g := range glyphs {
			gx := penX + fixedToFloat(g.XOffset)
			gy := penY - fixedToFloat(g.YOffset)
			penX += fixedToFloat(g.Advance)

			segments, err := face.SFNT.LoadGlyph(&buf, sfnt.GlyphIndex(g.GlyphID), floatToFixed(size), nil)
			if err != nil {
				continue
			}
			drawn = appendOutline(z, segments, float32(gx), float32(gy)) || drawn
		}
		if !drawn {
			continue
		}

		fill := color.NRGBAModel.Convert(run.style.fill).(color.NRGBA)
		fill.A = uint8(float64(fill.A) * run.style.opacity)
		z.Draw(dst, b, image.NewUniform(fill), image.Point{})
	}
}

// shape runs the text through HarfBuzz and returns the glyphs with the
// total horizontal advance in pixels.
func shape(face *fontdb.Face, text string, size float64) ([]shaping.Glyph, float64) {
	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(face.Font),
		Size:      floatToFixed(size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := shaperPool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	shaperPool.Put(hb)

	return out.Glyphs, fixedToFloat(out.Advance)
}

// appendOutline adds one glyph's contours to z, translated to (dx, dy).
// sfnt outlines are already in pixels with y pointing down.
func appendOutline(z *vector.Rasterizer, segments sfnt.Segments, dx, dy float32) bool {
	if len(segments) == 0 {
		return false
	}
	pt := func(p fixed.Point26_6) (float32, float32) {
		return dx + float32(p.X)/64, dy + float32(p.Y)/64
	}
	open := false
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(pt(seg.Args[0]))
			open = true
		case sfnt.SegmentOpLineTo:
			z.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			z.QuadTo(x1, y1, x2, y2)
		case sfnt.SegmentOpCubeTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			x3, y3 := pt(seg.Args[2])
			z.CubeTo(x1, y1, x2, y2, x3, y3)
		}
	}
	if open {
		z.ClosePath()
	}
	return true
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
