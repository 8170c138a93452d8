package assets

import (
	"strconv"

	"github.com/gogpu/assets/internal/imagebuf"
	"github.com/gogpu/assets/svg"
	digest "github.com/opencontainers/go-digest"
)

// Decoded is the output of ImageAsset: either a raster image or a parsed
// vector tree. Exactly one of Raster and Vector is set.
type Decoded struct {
	Raster *ImageData

	Vector *svg.Tree
	// Fingerprint identifies the vector content. Rasterizations are keyed
	// by it, so equal documents loaded from different sources share them.
	Fingerprint uint64

	// Digest is the sha256 digest of the source bytes.
	Digest digest.Digest
	// Format is the sniffed raster format, or "svg".
	Format string
}

// IsVector reports whether d holds a vector tree.
func (d *Decoded) IsVector() bool {
	return d.Vector != nil
}

// NaturalSize returns the intrinsic pixel size: the raster dimensions, or
// the vector's intrinsic size rounded up.
func (d *Decoded) NaturalSize() DeviceSize {
	if d.Raster != nil {
		return d.Raster.Size()
	}
	return Bounds{Size: Size{Width: d.Vector.Width(), Height: d.Vector.Height()}}.DeviceSize()
}

// decode turns fetched bytes into a Decoded. Raster signatures are checked
// first; anything else is parsed as SVG.
func decode(data []byte, opts svg.Options) (*Decoded, error) {
	dg := digest.FromBytes(data)

	if format, ok := imagebuf.Sniff(data); ok {
		buf, err := imagebuf.DecodeFormat(data, format)
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		return &Decoded{Raster: newImageData(buf), Digest: dg, Format: format.String()}, nil
	}

	tree, err := svg.Parse(data, opts)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &Decoded{Vector: tree, Fingerprint: fingerprint(dg), Digest: dg, Format: "svg"}, nil
}

// fingerprint folds a content digest to 64 bits: the first 16 hex digits
// of the encoded hash.
func fingerprint(d digest.Digest) uint64 {
	enc := d.Encoded()
	if len(enc) > 16 {
		enc = enc[:16]
	}
	v, _ := strconv.ParseUint(enc, 16, 64)
	return v
}
