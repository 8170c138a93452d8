package assets

import (
	"image"
	"sync/atomic"

	"github.com/gogpu/assets/internal/imagebuf"
)

// MaxDimension is the largest width or height an image may have.
const MaxDimension = imagebuf.MaxDimension

// ImageID identifies an ImageData for the lifetime of the process. Paint
// backends use it to key GPU uploads.
type ImageID uint64

var nextImageID atomic.Uint64

// ImageData is an immutable decoded image: non-premultiplied RGBA8 pixels,
// row-major with no padding.
type ImageData struct {
	id  ImageID
	buf *imagebuf.Buffer
}

func newImageData(buf *imagebuf.Buffer) *ImageData {
	return &ImageData{id: ImageID(nextImageID.Add(1)), buf: buf}
}

// NewImageData copies img into a new ImageData.
func NewImageData(img image.Image) (*ImageData, error) {
	buf, err := imagebuf.FromImage(img)
	if err != nil {
		return nil, err
	}
	return newImageData(buf), nil
}

// ID returns the process-unique identifier.
func (d *ImageData) ID() ImageID { return d.id }

// Size returns the pixel dimensions.
func (d *ImageData) Size() DeviceSize {
	return DeviceSize{Width: d.buf.Width(), Height: d.buf.Height()}
}

// Pix returns the pixel bytes. The slice is shared and must not be modified.
func (d *ImageData) Pix() []byte { return d.buf.Pix() }

// Stride returns the number of bytes per row.
func (d *ImageData) Stride() int { return d.buf.Stride() }

// Premultiplied returns the pixels with alpha premultiplied, computed once.
// The slice is shared and must not be modified.
func (d *ImageData) Premultiplied() []byte { return d.buf.Premultiplied() }

// Image returns an image.Image view of the pixels. It must not be modified.
func (d *ImageData) Image() *image.NRGBA { return d.buf.ToImage() }

// Grayscale returns a new ImageData converted to luminance, keeping alpha.
func (d *ImageData) Grayscale() *ImageData {
	return newImageData(d.buf.Grayscale())
}
