package assets

import (
	"context"
	"sync"
	"time"

	"github.com/gogpu/assets/fetch"
	"github.com/gogpu/assets/fontdb"
	"github.com/gogpu/assets/internal/parallel"
	"github.com/gogpu/assets/source"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for the default tracer.
const TracerName = "github.com/gogpu/assets"

// Runtime owns the asset cache, the background worker pool and the
// capabilities producers use: HTTP, file system and fonts.
//
// Runtime is safe for concurrent use.
type Runtime struct {
	ctx    context.Context
	cancel context.CancelFunc

	cache   *Cache
	pool    *parallel.WorkerPool
	client  fetch.Client
	fs      source.FileSystem
	metrics Metrics
	tracer  trace.Tracer
	watcher Watcher
	now     func() time.Time

	// fonts is the configured database; nil means fontdb.Default.
	fonts *fontdb.Database

	closeOnce sync.Once
}

// New creates a Runtime.
func New(opts ...Option) *Runtime {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.client == nil {
		o.client = fetch.New()
	}
	if o.fs == nil {
		o.fs = source.OS{}
	}
	if o.metrics == nil {
		o.metrics = nopMetrics{}
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(TracerName)
	}
	if o.now == nil {
		o.now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runtime{
		ctx:     ctx,
		cancel:  cancel,
		cache:   newCache(o.now, o.failureTTL, o.metrics),
		pool:    parallel.NewWorkerPool(o.workers),
		client:  o.client,
		fs:      o.fs,
		metrics: o.metrics,
		tracer:  o.tracer,
		watcher: o.watcher,
		now:     o.now,
		fonts:   o.fonts,
	}
}

// Cache returns the runtime's asset cache.
func (rt *Runtime) Cache() *Cache { return rt.cache }

// HTTPClient returns the client used for URI sources.
func (rt *Runtime) HTTPClient() fetch.Client { return rt.client }

// FileSystem returns the file system used for path sources.
func (rt *Runtime) FileSystem() source.FileSystem { return rt.fs }

// Fonts returns the font database, loading the process default on first
// use if none was configured.
func (rt *Runtime) Fonts() *fontdb.Database {
	if rt.fonts == nil {
		return fontdb.Default()
	}
	return rt.fonts
}

// Close cancels in-flight fetches and waits for queued production to
// finish. Tasks still settle, typically with cancellation errors. Close is
// safe to call multiple times.
func (rt *Runtime) Close() error {
	rt.closeOnce.Do(func() {
		rt.cancel()
		rt.pool.Close()
	})
	return nil
}

// watch registers the host file behind name with the configured watcher so
// that invalidate runs when it changes. Names are resolved through the
// runtime's FileSystem; file systems that are not a source.Locator, or that
// have no host file for name, are not watched.
func (rt *Runtime) watch(name string, invalidate func()) {
	if rt.watcher == nil {
		return
	}
	loc, ok := rt.fs.(source.Locator)
	if !ok {
		Logger().Debug("assets: file system cannot be watched", "path", name)
		return
	}
	hostPath, ok := loc.HostPath(name)
	if !ok {
		Logger().Debug("assets: no host file to watch", "path", name)
		return
	}
	if err := rt.watcher.Watch(hostPath, invalidate); err != nil {
		Logger().Warn("assets: cannot watch file", "path", hostPath, "err", err)
	}
}
