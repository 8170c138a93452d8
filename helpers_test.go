package assets

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/assets/fontdb"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

const squareSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10" viewBox="0 0 20 10">
  <rect x="0" y="0" width="10" height="10" fill="#ff0000"/>
</svg>`

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	fonts := fontdb.New(fontdb.WithFontDirs(), fontdb.WithGenericFamily(fontdb.SansSerif, "Go"))
	require.NoError(t, fonts.LoadFontData(goregular.TTF))

	rt := New(append([]Option{WithWorkers(4), WithFontDatabase(fonts)}, opts...)...)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func await[T any](t *testing.T, task *Task[T]) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := task.Await(ctx)
	require.NoError(t, err, "task did not settle")
	return v
}

func pngBytes(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
