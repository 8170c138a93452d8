package assets

import (
	"fmt"
	"math"
	"strings"
)

// Point is a position in layout pixels.
type Point struct {
	X, Y float64
}

// Size is an extent in layout pixels.
type Size struct {
	Width, Height float64
}

// DeviceSize is an extent in whole device pixels.
type DeviceSize struct {
	Width, Height int
}

// Empty reports whether either dimension is zero or negative.
func (s DeviceSize) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Bounds is an axis-aligned rectangle.
type Bounds struct {
	Origin Point
	Size   Size
}

// Scale multiplies origin and size by f, converting layout pixels to device
// pixels for a display scale factor.
func (b Bounds) Scale(f float64) Bounds {
	return Bounds{
		Origin: Point{X: b.Origin.X * f, Y: b.Origin.Y * f},
		Size:   Size{Width: b.Size.Width * f, Height: b.Size.Height * f},
	}
}

// DeviceSize rounds the size up to whole pixels.
func (b Bounds) DeviceSize() DeviceSize {
	return DeviceSize{
		Width:  int(math.Ceil(b.Size.Width)),
		Height: int(math.Ceil(b.Size.Height)),
	}
}

// ObjectFit selects how an image is placed within its box.
type ObjectFit uint8

const (
	// ObjectFitContain scales uniformly to fit entirely inside the box,
	// centred. It is the zero value.
	ObjectFitContain ObjectFit = iota

	// ObjectFitFill stretches to the box, ignoring aspect ratio.
	ObjectFitFill

	// ObjectFitCover scales uniformly to cover the box, centred. The image
	// may overflow.
	ObjectFitCover

	// ObjectFitNone paints at natural size from the box origin.
	ObjectFitNone
)

// String returns the CSS keyword for f.
func (f ObjectFit) String() string {
	switch f {
	case ObjectFitContain:
		return "contain"
	case ObjectFitFill:
		return "fill"
	case ObjectFitCover:
		return "cover"
	case ObjectFitNone:
		return "none"
	default:
		return fmt.Sprintf("ObjectFit(%d)", uint8(f))
	}
}

// ParseObjectFit parses a CSS object-fit keyword.
func ParseObjectFit(s string) (ObjectFit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contain":
		return ObjectFitContain, nil
	case "fill":
		return ObjectFitFill, nil
	case "cover":
		return ObjectFitCover, nil
	case "none":
		return ObjectFitNone, nil
	}
	return 0, fmt.Errorf("assets: unknown object-fit %q", s)
}

// Bounds returns where an image of the given pixel size is painted inside
// box. An image with a zero dimension yields an empty rectangle at the box
// origin.
func (f ObjectFit) Bounds(box Bounds, image DeviceSize) Bounds {
	if image.Empty() {
		return Bounds{Origin: box.Origin}
	}

	iw, ih := float64(image.Width), float64(image.Height)
	bw, bh := box.Size.Width, box.Size.Height
	imageRatio := iw / ih
	boxRatio := bw / bh

	var size Size
	switch f {
	case ObjectFitFill:
		return box
	case ObjectFitNone:
		return Bounds{Origin: box.Origin, Size: Size{Width: iw, Height: ih}}
	case ObjectFitCover:
		if boxRatio > imageRatio {
			size = Size{Width: bw, Height: ih * bw / iw}
		} else {
			size = Size{Width: iw * bh / ih, Height: bh}
		}
	default:
		if boxRatio > imageRatio {
			size = Size{Width: iw * bh / ih, Height: bh}
		} else {
			size = Size{Width: bw, Height: ih * bw / iw}
		}
	}

	return Bounds{
		Origin: Point{
			X: box.Origin.X + (bw-size.Width)/2,
			Y: box.Origin.Y + (bh-size.Height)/2,
		},
		Size: size,
	}
}
