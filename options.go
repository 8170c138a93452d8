package assets

import (
	"time"

	"github.com/gogpu/assets/fetch"
	"github.com/gogpu/assets/fontdb"
	"github.com/gogpu/assets/source"
	"go.opentelemetry.io/otel/trace"
)

// DefaultFailureTTL is how long a failed load stays cached before a
// request retries it.
const DefaultFailureTTL = 30 * time.Second

// Option configures a Runtime during creation.
//
// Example:
//
//	rt := assets.New(
//	    assets.WithWorkers(4),
//	    assets.WithFailureTTL(time.Minute),
//	)
type Option func(*options)

// Watcher is notified of file-backed sources so they can be invalidated
// when the file changes. watch.Watcher implements it.
type Watcher interface {
	Watch(path string, invalidate func()) error
}

type options struct {
	client     fetch.Client
	fs         source.FileSystem
	fonts      *fontdb.Database
	workers    int
	failureTTL time.Duration
	metrics    Metrics
	tracer     trace.Tracer
	watcher    Watcher
	now        func() time.Time
}

func defaultOptions() options {
	return options{
		failureTTL: DefaultFailureTTL,
		now:        time.Now,
	}
}

// WithHTTPClient sets the client used for URI sources.
// Default: fetch.New().
func WithHTTPClient(c fetch.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithFileSystem sets the file system used for path sources.
// Default: source.OS{}.
func WithFileSystem(fs source.FileSystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithFontDatabase sets the font database used for SVG text.
// Default: fontdb.Default(), loaded on first use.
func WithFontDatabase(db *fontdb.Database) Option {
	return func(o *options) {
		o.fonts = db
	}
}

// WithWorkers sets the number of background workers.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithFailureTTL sets how long failed results stay cached. Zero evicts a
// failure as soon as it settles; a negative value keeps failures until
// they are removed explicitly.
func WithFailureTTL(d time.Duration) Option {
	return func(o *options) {
		o.failureTTL = d
	}
}

// WithMetrics sets the metrics sink. Default: discard.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the tracer used for load spans.
// Default: the global OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithWatcher enables invalidation of path sources when files change. Only
// file systems implementing source.Locator are watched: source.OS and
// source.NewLocal are, while memfs-backed or io/fs sources are not.
func WithWatcher(w Watcher) Option {
	return func(o *options) {
		o.watcher = w
	}
}

// WithClock sets the clock used for failure expiry and load timing.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
