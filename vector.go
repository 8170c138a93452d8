package assets

import (
	"context"
	"fmt"
	"image"

	"github.com/cespare/xxhash/v2"
	"github.com/gogpu/assets/internal/imagebuf"
	"github.com/gogpu/assets/svg"
)

// VectorKey identifies a rasterization of a vector tree at a device size.
// Only the fingerprint and size take part in hashing, so the same document
// loaded from two sources shares rasterizations.
type VectorKey struct {
	Tree        *svg.Tree
	Fingerprint uint64
	Size        DeviceSize
}

// WriteHash implements Source.
func (k VectorKey) WriteHash(d *xxhash.Digest) {
	writeUint64(d, k.Fingerprint)
	writeUint64(d, uint64(k.Size.Width))
	writeUint64(d, uint64(k.Size.Height))
}

// String implements fmt.Stringer.
func (k VectorKey) String() string {
	return fmt.Sprintf("vector:%016x@%dx%d", k.Fingerprint, k.Size.Width, k.Size.Height)
}

// VectorAsset rasterizes a vector tree to an ImageData of exactly the
// requested size. The tree is scaled uniformly by Size.Width / tree width.
type VectorAsset struct{}

// Load implements Asset.
func (VectorAsset) Load(_ context.Context, _ *Runtime, key VectorKey) Result[*ImageData] {
	if key.Size.Empty() || key.Size.Width > MaxDimension || key.Size.Height > MaxDimension {
		return Fail[*ImageData](fmt.Errorf("%w: %dx%d", ErrInvalidSize, key.Size.Width, key.Size.Height))
	}
	if key.Tree == nil {
		return Fail[*ImageData](&DecodeError{Err: fmt.Errorf("nil vector tree")})
	}

	surface := image.NewRGBA(image.Rect(0, 0, key.Size.Width, key.Size.Height))
	key.Tree.Render(surface, float64(key.Size.Width)/key.Tree.Width())

	// Round-trip through PNG so vector output matches decoded rasters.
	buf, err := imagebuf.Normalize(surface)
	if err != nil {
		Logger().Error("assets: failed to rasterize vector", "source", key, "err", err)
		return Fail[*ImageData](&DecodeError{Err: err})
	}
	return Ok(newImageData(buf))
}
