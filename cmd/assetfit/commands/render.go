package commands

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/gogpu/assets"
)

// errNothingPainted is returned when an image settled but produced no
// pixels, for example a vector that failed to rasterize.
var errNothingPainted = errors.New("nothing was painted")

// canvas is an assets.Window backed by an in-memory image. Images are
// resampled into the device rectangle of the bounds they are painted at.
type canvas struct {
	img     *image.NRGBA
	scale   float64
	refresh chan struct{}
	painted bool
}

func newCanvas(size assets.DeviceSize, scale float64) *canvas {
	return &canvas{
		img:     image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height)),
		scale:   scale,
		refresh: make(chan struct{}, 1),
	}
}

func (c *canvas) ScaleFactor() float64 { return c.scale }

func (c *canvas) PaintImage(bounds assets.Bounds, data *assets.ImageData, grayscale bool) error {
	if grayscale {
		data = data.Grayscale()
	}
	return c.PaintSurface(bounds, data.Image())
}

func (c *canvas) PaintSurface(bounds assets.Bounds, surface image.Image) error {
	r := deviceRect(bounds.Scale(c.scale))
	if r.Empty() {
		return nil
	}
	draw.CatmullRom.Scale(c.img, r, surface, surface.Bounds(), draw.Over, nil)
	c.painted = true
	return nil
}

func (c *canvas) Refresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

func deviceRect(b assets.Bounds) image.Rectangle {
	return image.Rect(
		int(math.Round(b.Origin.X)),
		int(math.Round(b.Origin.Y)),
		int(math.Round(b.Origin.X+b.Size.Width)),
		int(math.Round(b.Origin.Y+b.Size.Height)),
	)
}

// fitImage loads key and paints it into a box of the configured size. It
// blocks until the image and, for vectors, its rasterization are ready.
func fitImage(ctx context.Context, rt *assets.Runtime, key assets.SourceKey, out OutputConfig) (*image.NRGBA, error) {
	fit, err := assets.ParseObjectFit(out.Fit)
	if err != nil {
		return nil, err
	}

	res, err := assets.Load(rt, assets.ImageAsset{}, key).Await(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := res.Get(); err != nil {
		return nil, err
	}

	box := assets.Bounds{Size: assets.Size{Width: out.Width, Height: out.Height}}
	c := newCanvas(box.Scale(out.Scale).DeviceSize(), out.Scale)
	img := assets.Img{Source: imageSource(key), Fit: fit, Grayscale: out.Grayscale}

	// The decoded image is ready, so at most one more load (the vector
	// rasterization) can be pending.
	img.Paint(rt, c, box)
	if !c.painted {
		select {
		case <-c.refresh:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		img.Paint(rt, c, box)
	}
	if !c.painted {
		return nil, fmt.Errorf("%s: %w", key, errNothingPainted)
	}
	return c.img, nil
}

func imageSource(key assets.SourceKey) assets.ImageSource {
	if key.IsURI() {
		return assets.FromURI(key.Value())
	}
	return assets.FromFile(key.Value())
}

// parseInput maps a command line argument to a source. Arguments with a
// scheme are URIs; anything else is a file path made absolute.
func parseInput(arg string) (assets.SourceKey, error) {
	if strings.Contains(arg, "://") {
		u, err := url.Parse(arg)
		if err != nil {
			return assets.SourceKey{}, fmt.Errorf("invalid URI %q: %w", arg, err)
		}
		return assets.URI(u.String()), nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return assets.SourceKey{}, err
	}
	return assets.Path(abs), nil
}

// outputName derives the PNG file name for a source.
func outputName(key assets.SourceKey) string {
	var base string
	if key.IsURI() {
		if u, err := url.Parse(key.Value()); err == nil {
			base = path.Base(u.Path)
		}
	} else {
		base = filepath.Base(key.Value())
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	return base + ".png"
}

func writePNG(file string, img image.Image) error {
	f, err := os.Create(file) //nolint:gosec // path is provided by user
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", file, err)
	}
	return f.Close()
}
