package svg

import (
	"fmt"
	"image"

	"github.com/srwiley/rasterx"
)

// Render draws the tree onto dst at a uniform scale of ratio, with the
// viewBox origin at dst's top-left corner. Content outside dst is clipped.
func (t *Tree) Render(dst *image.RGBA, ratio float64) {
	if ratio <= 0 {
		return
	}
	b := dst.Bounds()
	if b.Empty() {
		return
	}

	w, h := t.width*ratio, t.height*ratio

	t.mu.Lock()
	t.icon.SetTarget(0, 0, w, h)
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b)
	t.icon.Draw(rasterx.NewDasher(b.Dx(), b.Dy(), scanner), 1)
	t.mu.Unlock()

	t.drawText(dst, w/t.viewBox.W, h/t.viewBox.H)
}

// RasterSize returns the pixel size Rasterize would allocate for ratio:
// (Width*ratio, Height*ratio) truncated to whole pixels and at least 1x1.
// A result beyond MaxDimension on either axis fails with ErrTooLarge.
func (t *Tree) RasterSize(ratio float64) (image.Point, error) {
	fw, fh := t.width*ratio, t.height*ratio
	if !isFinite(fw) || !isFinite(fh) || fw >= MaxDimension+1 || fh >= MaxDimension+1 {
		return image.Point{}, fmt.Errorf("%w: %gx%g", ErrTooLarge, fw, fh)
	}
	return image.Pt(max(int(fw), 1), max(int(fh), 1)), nil
}

// Rasterize renders the tree into a new image of RasterSize(ratio).
func (t *Tree) Rasterize(ratio float64) (*image.RGBA, error) {
	size, err := t.RasterSize(ratio)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rectangle{Max: size})
	t.Render(img, ratio)
	return img, nil
}
