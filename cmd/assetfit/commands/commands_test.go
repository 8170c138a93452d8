package commands

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/assets"
)

const halfRedSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10" viewBox="0 0 20 10">
  <rect x="0" y="0" width="10" height="10" fill="#ff0000"/>
</svg>`

func writeSolidPNG(t *testing.T, file string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(file, buf.Bytes(), 0o600))
}

func readPNG(t *testing.T, file string) image.Image {
	t.Helper()
	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cli := New(&stdout, &stderr)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return stdout.String(), err
}

// =============================================================================
// Config
// =============================================================================

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "assetfit.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
workers: 2
failure_ttl: 5s
http:
  timeout: 10s
  user_agent: test/1.0
fonts:
  generic:
    sans-serif: Go
output:
  width: 64
  height: 32
  fit: cover
  scale: 2
`), 0o600))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	require.NotNil(t, cfg.FailureTTL)
	assert.Equal(t, 5*time.Second, *cfg.FailureTTL)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "test/1.0", cfg.HTTP.UserAgent)
	assert.Equal(t, map[string]string{"sans-serif": "Go"}, cfg.Fonts.Generic)
	assert.Equal(t, OutputConfig{Width: 64, Height: 32, Fit: "cover", Scale: 2, Dir: "."}, cfg.Output)
	assert.Len(t, cfg.runtimeOptions(), 4)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Empty(t, cfg.runtimeOptions())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad fit", "output:\n  fit: stretch\n"},
		{"zero width", "output:\n  width: 0\n"},
		{"negative scale", "output:\n  scale: -1\n"},
		{"unknown generic", "fonts:\n  generic:\n    gothic: X\n"},
		{"malformed yaml", "output: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "c.yaml")
			require.NoError(t, os.WriteFile(file, []byte(tt.content), 0o600))
			_, err := LoadConfig(file)
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		key  assets.SourceKey
		want string
	}{
		{assets.Path("/tmp/photo.jpeg"), "photo.png"},
		{assets.Path("/tmp/noext"), "noext.png"},
		{assets.URI("https://example.com/img/logo.svg?v=2"), "logo.png"},
		{assets.URI("https://example.com/"), "image.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outputName(tt.key), tt.key.String())
	}
}

func TestParseInput(t *testing.T) {
	key, err := parseInput("https://example.com/a.png")
	require.NoError(t, err)
	assert.True(t, key.IsURI())

	key, err = parseInput("a.png")
	require.NoError(t, err)
	assert.True(t, key.IsPath())
	assert.True(t, filepath.IsAbs(key.Value()))
}

// =============================================================================
// Commands
// =============================================================================

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "assetfit version "+assets.Version+"\n", out)
}

func TestFit_RasterAndVector(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	raster := filepath.Join(dir, "blue.png")
	vector := filepath.Join(dir, "half.svg")
	writeSolidPNG(t, raster, 10, 10, color.NRGBA{B: 255, A: 255})
	require.NoError(t, os.WriteFile(vector, []byte(halfRedSVG), 0o600))

	out, err := execute(t, "fit", "--width", "40", "--height", "20", "--scale", "2", "-o", outDir, raster, vector)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(outDir, "blue.png"))
	assert.Contains(t, out, filepath.Join(outDir, "half.png"))

	// Contain: the square is centred in the 80x40 device canvas.
	blue := readPNG(t, filepath.Join(outDir, "blue.png"))
	assert.Equal(t, image.Rect(0, 0, 80, 40), blue.Bounds())
	_, _, _, a := blue.At(5, 20).RGBA()
	assert.Zero(t, a, "letterbox stays transparent")
	_, _, b, a := blue.At(40, 20).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Greater(t, b, uint32(0xf000))

	// The 2:1 document fills the 2:1 box; its left half is red.
	half := readPNG(t, filepath.Join(outDir, "half.png"))
	assert.Equal(t, image.Rect(0, 0, 80, 40), half.Bounds())
	r, _, _, a := half.At(20, 20).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Greater(t, r, uint32(0xf000))
	_, _, _, a = half.At(60, 20).RGBA()
	assert.Zero(t, a)
}

func TestFit_URL(t *testing.T) {
	var body bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, png.Encode(&body, img))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body.Bytes())
	}))
	t.Cleanup(srv.Close)

	outDir := t.TempDir()
	_, err := execute(t, "fit", "--width", "8", "--height", "8", "--fit", "fill", "-o", outDir, srv.URL+"/pic.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), readPNG(t, filepath.Join(outDir, "pic.png")).Bounds())
}

func TestFit_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "fit", "-o", dir, filepath.Join(dir, "missing.png"))
	var ioErr *assets.IOError
	assert.ErrorAs(t, err, &ioErr)

	_, err = execute(t, "fit", "--fit", "stretch", filepath.Join(dir, "x.png"))
	assert.Error(t, err)

	_, err = execute(t, "fit")
	assert.Error(t, err, "at least one input is required")
}

func TestFit_ConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	file := filepath.Join(dir, "c.png")
	writeSolidPNG(t, file, 4, 4, color.NRGBA{G: 255, A: 255})

	cfgFile := filepath.Join(dir, "assetfit.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("output:\n  width: 16\n  height: 16\n  dir: "+outDir+"\n"), 0o600))

	// --height overrides the file; width and dir come from it.
	_, err := execute(t, "--config", cfgFile, "fit", "--height", "8", file)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 8), readPNG(t, filepath.Join(outDir, "c.png")).Bounds())
}

func TestIcon(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "half.svg")
	require.NoError(t, os.WriteFile(file, []byte(halfRedSVG), 0o600))
	output := filepath.Join(dir, "mask.png")

	out, err := execute(t, "icon", "--size", "40", "-o", output, file)
	require.NoError(t, err)
	assert.Equal(t, output+"\n", out)

	mask := readPNG(t, output)
	assert.Equal(t, image.Rect(0, 0, 40, 20), mask.Bounds())
	_, _, _, a := mask.At(10, 10).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	_, _, _, a = mask.At(30, 10).RGBA()
	assert.Zero(t, a)

	_, err = execute(t, "icon", "--size", "0", file)
	assert.Error(t, err)
}

func TestWatch_RerendersOnChange(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	file := filepath.Join(dir, "w.png")
	writeSolidPNG(t, file, 4, 4, color.NRGBA{R: 255, A: 255})
	output := filepath.Join(outDir, "w.png")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cli := New(io.Discard, io.Discard)
	cli.SetArgs([]string{"watch", "--width", "4", "--height", "4", "-o", outDir, file})
	done := make(chan error, 1)
	go func() { done <- cli.Execute(ctx) }()

	red := func() bool {
		data, err := os.ReadFile(output)
		if err != nil {
			return false
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return false
		}
		r, _, b, _ := img.At(2, 2).RGBA()
		return r > 0xf000 && b == 0
	}
	require.Eventually(t, red, 5*time.Second, 10*time.Millisecond)

	// Replace the file atomically, the way editors save.
	tmp := filepath.Join(dir, "w.tmp")
	writeSolidPNG(t, tmp, 4, 4, color.NRGBA{B: 255, A: 255})
	require.NoError(t, os.Rename(tmp, file))
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(output)
		if err != nil {
			return false
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return false
		}
		_, _, b, _ := img.At(2, 2).RGBA()
		return b > 0xf000
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
