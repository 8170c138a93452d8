package imagebuf

import "bytes"

// Format identifies a raster encoding recognized by Sniff.
type Format uint8

const (
	// FormatUnknown means the bytes did not match any raster signature.
	FormatUnknown Format = iota

	// FormatPNG is Portable Network Graphics.
	FormatPNG

	// FormatJPEG is JPEG/JFIF.
	FormatJPEG

	// FormatGIF is GIF87a or GIF89a. Only the first frame is decoded.
	FormatGIF

	// FormatBMP is Windows bitmap.
	FormatBMP

	// FormatTIFF is little- or big-endian TIFF.
	FormatTIFF

	// FormatWebP is RIFF-wrapped WebP (lossy or lossless).
	FormatWebP
)

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatGIF:
		return "gif"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	case FormatWebP:
		return "webp"
	default:
		return "unknown"
	}
}

// signature is a magic prefix. A '?' byte in magic matches anything.
type signature struct {
	magic  string
	format Format
}

var signatures = []signature{
	{"\x89PNG\r\n\x1a\n", FormatPNG},
	{"\xff\xd8\xff", FormatJPEG},
	{"GIF87a", FormatGIF},
	{"GIF89a", FormatGIF},
	{"RIFF????WEBP", FormatWebP},
	{"II*\x00", FormatTIFF},
	{"MM\x00*", FormatTIFF},
	{"BM", FormatBMP},
}

// Sniff reports the raster format of data by its leading magic bytes.
// It never inspects more than the signature, so text formats such as SVG
// always report FormatUnknown.
func Sniff(data []byte) (Format, bool) {
	for _, s := range signatures {
		if match(data, s.magic) {
			return s.format, true
		}
	}
	return FormatUnknown, false
}

func match(data []byte, magic string) bool {
	if len(data) < len(magic) {
		return false
	}
	if !bytes.ContainsRune([]byte(magic), '?') {
		return string(data[:len(magic)]) == magic
	}
	for i := range len(magic) {
		if magic[i] != '?' && data[i] != magic[i] {
			return false
		}
	}
	return true
}
