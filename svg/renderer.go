package svg

import (
	"fmt"
	"image"

	"github.com/gogpu/assets/fontdb"
	"github.com/gogpu/assets/source"
)

// RenderParams identifies an SVG to render as a mask.
type RenderParams struct {
	// Path names the document in the renderer's byte source.
	Path string
	// Size is the target size in device pixels. Only the width determines
	// the scale; the output keeps the document's aspect ratio.
	Size image.Point
}

// Renderer renders SVG documents to alpha masks, for monochrome icons that
// are tinted at paint time. It does not cache; callers that need caching
// key their own cache on RenderParams.
type Renderer struct {
	source source.ByteSource
	fonts  *fontdb.Database
}

// NewRenderer returns a renderer that loads documents from src. A nil fonts
// database means fontdb.Default.
func NewRenderer(src source.ByteSource, fonts *fontdb.Database) *Renderer {
	return &Renderer{source: src, fonts: fonts}
}

// Render loads, parses and rasterizes the document at p.Path and returns
// its alpha channel. A zero or negative dimension in p.Size fails with
// ErrZeroSize, and one beyond MaxDimension with ErrTooLarge, before
// anything is loaded. A document whose aspect ratio would push the scaled
// height past MaxDimension also fails with ErrTooLarge.
func (r *Renderer) Render(p RenderParams) (*image.Alpha, error) {
	if p.Size.X <= 0 || p.Size.Y <= 0 {
		return nil, ErrZeroSize
	}
	if p.Size.X > MaxDimension || p.Size.Y > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, p.Size.X, p.Size.Y)
	}

	data, err := r.source.Load(p.Path)
	if err != nil {
		return nil, err
	}

	tree, err := Parse(data, Options{Fonts: r.fonts})
	if err != nil {
		return nil, fmt.Errorf("svg: %s: %w", p.Path, err)
	}

	ratio := float64(p.Size.X) / tree.Width()
	rgba, err := tree.Rasterize(ratio)
	if err != nil {
		return nil, fmt.Errorf("svg: %s: %w", p.Path, err)
	}

	mask := image.NewAlpha(rgba.Bounds())
	for i := 3; i < len(rgba.Pix); i += 4 {
		mask.Pix[i/4] = rgba.Pix[i]
	}
	logger().Debug("svg: mask rendered", "path", p.Path, "size", rgba.Bounds().Size())
	return mask, nil
}
