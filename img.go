package assets

import (
	"image"
)

type imageSourceKind uint8

const (
	sourceKey imageSourceKind = iota + 1
	sourceData
	sourceSurface
)

// ImageSource is what an Img displays: a URI or file loaded through the
// cache, pixels already in memory, or a platform surface painted as is.
type ImageSource struct {
	kind    imageSourceKind
	key     SourceKey
	data    *ImageData
	surface image.Image
}

// FromURI returns a source fetched over HTTP.
func FromURI(uri string) ImageSource {
	return ImageSource{kind: sourceKey, key: URI(uri)}
}

// FromFile returns a source read from the file system.
func FromFile(path string) ImageSource {
	return ImageSource{kind: sourceKey, key: Path(path)}
}

// FromData returns a source for already decoded pixels. It bypasses the
// cache.
func FromData(data *ImageData) ImageSource {
	return ImageSource{kind: sourceData, data: data}
}

// FromSurface returns a source painted directly, bypassing the cache and
// decoding.
func FromSurface(surface image.Image) ImageSource {
	return ImageSource{kind: sourceSurface, surface: surface}
}

// Window is the paint surface an Img draws into.
type Window interface {
	// ScaleFactor is the number of device pixels per layout pixel.
	ScaleFactor() float64
	PaintImage(bounds Bounds, data *ImageData, grayscale bool) error
	PaintSurface(bounds Bounds, surface image.Image) error
	// Refresh requests another frame. It is called when a pending load
	// settles and may be called from any goroutine.
	Refresh()
}

// Img paints an ImageSource into a layout box.
type Img struct {
	Source    ImageSource
	Fit       ObjectFit
	Grayscale bool
}

// NaturalSize returns the intrinsic size of the image if it is available
// without blocking. Layout uses it to size boxes left on auto.
func (i Img) NaturalSize(rt *Runtime) (DeviceSize, bool) {
	switch i.Source.kind {
	case sourceData:
		return i.Source.data.Size(), true
	case sourceSurface:
		b := i.Source.surface.Bounds()
		return DeviceSize{Width: b.Dx(), Height: b.Dy()}, true
	case sourceKey:
		res, ok := Use(rt, ImageAsset{}, i.Source.key, nil)
		if !ok || res.Failed() {
			return DeviceSize{}, false
		}
		return res.Value.NaturalSize(), true
	}
	return DeviceSize{}, false
}

// Paint draws the image into bounds. It never blocks: while the image is
// loading nothing is painted and w.Refresh is called once it is ready.
// Failures are logged and paint nothing.
func (i Img) Paint(rt *Runtime, w Window, bounds Bounds) {
	switch i.Source.kind {
	case sourceData:
		i.paintData(w, bounds, i.Source.data)

	case sourceSurface:
		b := i.Source.surface.Bounds()
		fitted := i.Fit.Bounds(bounds, DeviceSize{Width: b.Dx(), Height: b.Dy()})
		if err := w.PaintSurface(fitted, i.Source.surface); err != nil {
			Logger().Error("assets: paint surface failed", "err", err)
		}

	case sourceKey:
		res, ok := Use(rt, ImageAsset{}, i.Source.key, w)
		if !ok || res.Failed() {
			return
		}
		decoded := res.Value
		if !decoded.IsVector() {
			i.paintData(w, bounds, decoded.Raster)
			return
		}

		fitted := i.Fit.Bounds(bounds, decoded.NaturalSize())
		key := VectorKey{
			Tree:        decoded.Vector,
			Fingerprint: decoded.Fingerprint,
			Size:        fitted.Scale(w.ScaleFactor()).DeviceSize(),
		}
		raster, ok := Use(rt, VectorAsset{}, key, w)
		if !ok || raster.Failed() {
			return
		}
		if err := w.PaintImage(fitted, raster.Value, i.Grayscale); err != nil {
			Logger().Error("assets: paint image failed", "source", i.Source.key, "err", err)
		}
	}
}

func (i Img) paintData(w Window, bounds Bounds, data *ImageData) {
	fitted := i.Fit.Bounds(bounds, data.Size())
	if err := w.PaintImage(fitted, data, i.Grayscale); err != nil {
		Logger().Error("assets: paint image failed", "err", err)
	}
}
