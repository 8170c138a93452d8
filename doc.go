// Package assets is a deduplicating cache for asynchronously produced
// assets: decoded raster images, parsed vector graphics and vector
// graphics rasterized at a device size.
//
// # Overview
//
// An asset type implements [Asset] for one kind of source. The first
// request for a source starts production on a background worker pool and
// stores a [Task] in the cache; every later request, concurrent or not,
// receives the same task. Tasks settle exactly once and replay their value.
//
//	rt := assets.New()
//	defer rt.Close()
//
//	task := assets.Load(rt, assets.ImageAsset{}, assets.URI("https://example.com/logo.png"))
//	res, err := task.Await(ctx)
//
// Paint code polls instead of blocking:
//
//	res, ok := assets.Use(rt, assets.ImageAsset{}, key, window)
//	if !ok {
//	    return // not ready; Refresh runs when it is
//	}
//
// # Keys
//
// Entries are keyed by the asset type together with a 64-bit xxhash of the
// source, so identical sources under different asset types never collide.
//
// # Failures
//
// Producers return failures as values ([Result] with Err set). Failed
// results are cached like successes but expire after the failure TTL
// (see [WithFailureTTL]) so a later request retries.
//
// # Geometry
//
// [ObjectFit] computes where an image of a given pixel size is painted
// inside a layout box. [Img] ties the pieces together for paint code.
package assets

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
