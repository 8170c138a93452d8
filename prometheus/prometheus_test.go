package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/assets"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	m.CacheHit("assets.ImageAsset")
	m.CacheHit("assets.ImageAsset")
	m.CacheMiss("assets.ImageAsset")
	m.CacheMiss("assets.VectorAsset")
	m.CacheRemove("assets.ImageAsset")
	m.LoadDuration("assets.ImageAsset", 20*time.Millisecond, false)
	m.LoadDuration("assets.ImageAsset", time.Second, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.hits.WithLabelValues("assets.ImageAsset")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.misses.WithLabelValues("assets.ImageAsset")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.misses.WithLabelValues("assets.VectorAsset")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.removes.WithLabelValues("assets.ImageAsset")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.loadDuration))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["assets_cache_hits_total"])
	assert.True(t, names["assets_cache_misses_total"])
	assert.True(t, names["assets_cache_removals_total"])
	assert.True(t, names["assets_load_duration_seconds"])
}

func TestNewMetrics_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}

type echo struct{}

func (echo) Load(_ context.Context, _ *assets.Runtime, key assets.SourceKey) string {
	return key.Value()
}

func TestMetrics_WithRuntime(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	rt := assets.New(assets.WithMetrics(m), assets.WithWorkers(1))
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for range 3 {
		_, err := assets.Load(rt, echo{}, assets.URI("x")).Await(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.misses.WithLabelValues("prometheus.echo")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.hits.WithLabelValues("prometheus.echo")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.loadDuration))
}
