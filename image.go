package assets

import (
	"context"
	"strings"

	"github.com/gogpu/assets/fetch"
	"github.com/gogpu/assets/svg"
)

// ImageAsset fetches and decodes image bytes. Raster formats (PNG, JPEG,
// GIF, BMP, TIFF, WebP) decode to an ImageData; anything else is parsed as
// SVG.
type ImageAsset struct{}

// Load implements Asset.
func (ImageAsset) Load(ctx context.Context, rt *Runtime, key SourceKey) Result[*Decoded] {
	data, err := readSource(ctx, rt, key)
	if err == nil && key.IsPath() {
		rt.watch(key.Value(), func() {
			RemoveFromCache(rt, ImageAsset{}, key)
		})
	}
	if err != nil {
		Logger().Error("assets: failed to load image", "source", key, "err", err)
		return Fail[*Decoded](err)
	}

	decoded, err := decode(data, svg.Options{Fonts: rt.fonts})
	if err != nil {
		Logger().Error("assets: failed to decode image", "source", key, "err", err)
		return Fail[*Decoded](err)
	}
	return Ok(decoded)
}

// readSource acquires the raw bytes for key.
func readSource(ctx context.Context, rt *Runtime, key SourceKey) ([]byte, error) {
	switch {
	case key.IsPath():
		data, err := rt.fs.ReadFile(key.Value())
		if err != nil {
			return nil, &IOError{Path: key.Value(), Err: err}
		}
		return data, nil

	case key.IsURI():
		resp, err := rt.client.Get(ctx, key.Value(), nil, true)
		if err != nil {
			return nil, &FetchError{URL: key.Value(), Err: err}
		}
		body, err := fetch.ReadAll(resp)
		if err != nil {
			return nil, &FetchError{URL: key.Value(), Err: err}
		}
		if !fetch.IsSuccess(resp.Status) {
			return nil, &StatusError{Status: resp.Status, Body: strings.ToValidUTF8(string(body), "\uFFFD")}
		}
		return body, nil
	}
	return nil, &IOError{Path: key.String(), Err: errInvalidSourceKey}
}
