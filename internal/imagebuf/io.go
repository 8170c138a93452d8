package imagebuf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when the bytes carry no known raster signature.
	ErrUnsupportedFormat = errors.New("imagebuf: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("imagebuf: empty data")
)

// Decode sniffs data and decodes it into an RGBA8 buffer, whatever the
// source color model or bit depth.
func Decode(data []byte) (*Buffer, Format, error) {
	if len(data) == 0 {
		return nil, FormatUnknown, ErrEmptyData
	}
	format, ok := Sniff(data)
	if !ok {
		return nil, FormatUnknown, ErrUnsupportedFormat
	}
	buf, err := DecodeFormat(data, format)
	return buf, format, err
}

// codec pairs a format's header reader with its full decoder.
type codec struct {
	config func(io.Reader) (image.Config, error)
	decode func(io.Reader) (image.Image, error)
}

var codecs = map[Format]codec{
	FormatPNG:  {png.DecodeConfig, png.Decode},
	FormatJPEG: {jpeg.DecodeConfig, jpeg.Decode},
	FormatGIF:  {gif.DecodeConfig, gif.Decode},
	FormatBMP:  {bmp.DecodeConfig, bmp.Decode},
	FormatTIFF: {tiff.DecodeConfig, tiff.Decode},
	FormatWebP: {webp.DecodeConfig, webp.Decode},
}

// DecodeFormat decodes data with the decoder for format. The header is
// read first so that oversized images fail with ErrTooLarge before any
// pixel memory is allocated.
func DecodeFormat(data []byte, format Format) (*Buffer, error) {
	c, ok := codecs[format]
	if !ok {
		return nil, ErrUnsupportedFormat
	}

	cfg, err := c.config(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imagebuf: decode %s: %w", format, err)
	}
	if err := checkDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, fmt.Errorf("imagebuf: decode %s %dx%d: %w", format, cfg.Width, cfg.Height, err)
	}

	img, err := c.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imagebuf: decode %s: %w", format, err)
	}

	return FromImage(img)
}

// FromImage converts any image.Image into an RGBA8 buffer.
func FromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	buf, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	// Fast path for NRGBA images, which already match the layout.
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range buf.height {
			srcStart := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.RowBytes(y), nrgba.Pix[srcStart:srcStart+buf.Stride()])
		}
		return buf, nil
	}

	// Everything else goes through the NRGBA color model so premultiplied
	// sources are un-premultiplied correctly.
	dst := &image.NRGBA{Pix: buf.data, Stride: buf.Stride(), Rect: image.Rect(0, 0, buf.width, buf.height)}
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
	return buf, nil
}

// ToImage returns an *image.NRGBA view sharing the buffer's pixels.
func (b *Buffer) ToImage() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.data,
		Stride: b.Stride(),
		Rect:   image.Rect(0, 0, b.width, b.height),
	}
}

// At implements image.Image.
func (b *Buffer) At(x, y int) color.Color {
	r, g, bl, a := b.RGBA(x, y)
	return color.NRGBA{R: r, G: g, B: bl, A: a}
}

// Bounds implements image.Image.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model {
	return color.NRGBAModel
}

// EncodePNG encodes the buffer as PNG to the given writer.
func (b *Buffer) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, b.ToImage()); err != nil {
		return fmt.Errorf("imagebuf: encode png: %w", err)
	}
	return nil
}

// Normalize converts a rendered image into the same RGBA8 representation the
// raster decode path produces, by way of a PNG encode/decode round trip.
func Normalize(img image.Image) (*Buffer, error) {
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return nil, fmt.Errorf("imagebuf: encode png: %w", err)
	}
	return DecodeFormat(encoded.Bytes(), FormatPNG)
}
