// Package imagebuf provides the RGBA8 pixel buffer shared by every decoded
// asset, together with format sniffing and the decode/encode pipeline.
//
// All decoders normalize into a single representation: 8-bit,
// non-premultiplied RGBA with a tightly packed stride. Renderers that need
// premultiplied data get it lazily through Buffer.Premultiplied.
package imagebuf

import (
	"errors"
	"sync"
)

// MaxDimension bounds either side of a buffer. Larger requests fail with
// ErrTooLarge instead of attempting the allocation.
const MaxDimension = 1 << 14

// BytesPerPixel is the size of one RGBA8 pixel.
const BytesPerPixel = 4

// Common errors for buffer operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("imagebuf: invalid dimensions")

	// ErrTooLarge is returned when a side exceeds MaxDimension.
	ErrTooLarge = errors.New("imagebuf: dimensions too large")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("imagebuf: data buffer too small")

	// ErrOutOfBounds is returned when pixel coordinates are outside image bounds.
	ErrOutOfBounds = errors.New("imagebuf: coordinates out of bounds")
)

// Buffer is an RGBA8 (non-premultiplied) pixel buffer.
//
// A Buffer handed out by the asset cache is treated as immutable; SetRGBA
// is only used while a buffer is being built. Concurrent reads are safe.
type Buffer struct {
	data   []byte
	width  int
	height int

	// Lazy premultiplication cache
	premulOnce sync.Once
	premulData []byte
}

// New allocates a zeroed (transparent) buffer.
func New(width, height int) (*Buffer, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	return &Buffer{
		data:   make([]byte, width*height*BytesPerPixel),
		width:  width,
		height: height,
	}, nil
}

// FromRaw wraps existing RGBA8 data without copying. The caller must not
// modify data afterwards.
func FromRaw(data []byte, width, height int) (*Buffer, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	required := width * height * BytesPerPixel
	if len(data) < required {
		return nil, ErrDataTooSmall
	}
	return &Buffer{
		data:   data[:required],
		width:  width,
		height: height,
	}, nil
}

func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidDimensions
	}
	if width > MaxDimension || height > MaxDimension {
		return ErrTooLarge
	}
	return nil
}

// Width returns the image width in pixels.
func (b *Buffer) Width() int {
	return b.width
}

// Height returns the image height in pixels.
func (b *Buffer) Height() int {
	return b.height
}

// Stride returns the number of bytes per row.
func (b *Buffer) Stride() int {
	return b.width * BytesPerPixel
}

// Pix returns the raw RGBA8 pixel data.
func (b *Buffer) Pix() []byte {
	return b.data
}

// RowBytes returns a slice of the pixel data for row y.
// Returns nil if y is out of bounds.
func (b *Buffer) RowBytes(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.Stride()
	return b.data[start : start+b.Stride()]
}

func (b *Buffer) offset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.Stride() + x*BytesPerPixel
}

// RGBA returns the pixel at (x, y). Out-of-bounds reads return zero.
func (b *Buffer) RGBA(x, y int) (r, g, bl, a uint8) {
	off := b.offset(x, y)
	if off < 0 {
		return 0, 0, 0, 0
	}
	p := b.data[off : off+BytesPerPixel]
	return p[0], p[1], p[2], p[3]
}

// SetRGBA sets the pixel at (x, y).
func (b *Buffer) SetRGBA(x, y int, r, g, bl, a uint8) error {
	off := b.offset(x, y)
	if off < 0 {
		return ErrOutOfBounds
	}
	b.data[off] = r
	b.data[off+1] = g
	b.data[off+2] = bl
	b.data[off+3] = a
	return nil
}

// Clone creates a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	data := make([]byte, len(b.data))
	copy(data, b.data)
	return &Buffer{data: data, width: b.width, height: b.height}
}

// ByteSize returns the total size of the pixel data in bytes.
func (b *Buffer) ByteSize() int {
	return len(b.data)
}

// Premultiplied returns the pixel data with alpha premultiplied into the
// color channels. The result is computed once and cached.
func (b *Buffer) Premultiplied() []byte {
	b.premulOnce.Do(func() {
		out := make([]byte, len(b.data))
		for i := 0; i+3 < len(b.data); i += BytesPerPixel {
			a := uint16(b.data[i+3])
			out[i] = byte((uint16(b.data[i])*a + 127) / 255)
			out[i+1] = byte((uint16(b.data[i+1])*a + 127) / 255)
			out[i+2] = byte((uint16(b.data[i+2])*a + 127) / 255)
			out[i+3] = byte(a)
		}
		b.premulData = out
	})
	return b.premulData
}

// Grayscale returns a copy with color channels replaced by their luminance.
// Alpha is preserved.
func (b *Buffer) Grayscale() *Buffer {
	out := b.Clone()
	for i := 0; i+3 < len(out.data); i += BytesPerPixel {
		// Standard luminance: 0.299*R + 0.587*G + 0.114*B
		y := byte((int(out.data[i])*299 + int(out.data[i+1])*587 + int(out.data[i+2])*114) / 1000)
		out.data[i], out.data[i+1], out.data[i+2] = y, y, y
	}
	return out
}

// Alpha returns the alpha channel only, one byte per pixel.
func (b *Buffer) Alpha() []byte {
	out := make([]byte, b.width*b.height)
	for i := range out {
		out[i] = b.data[i*BytesPerPixel+3]
	}
	return out
}
