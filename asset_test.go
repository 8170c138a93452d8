package assets

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// countingAsset echoes its source and counts how often it runs.
type countingAsset struct {
	calls   *atomic.Int64
	release chan struct{}
}

func (a countingAsset) Load(_ context.Context, _ *Runtime, key SourceKey) string {
	a.calls.Add(1)
	if a.release != nil {
		<-a.release
	}
	return "loaded:" + key.Value()
}

// constSource hashes identically regardless of its name.
type constSource struct{ name string }

func (constSource) WriteHash(d *xxhash.Digest) { _, _ = d.WriteString("same") }

type stringAsset struct{}

func (stringAsset) Load(context.Context, *Runtime, constSource) string { return "A" }

type intAsset struct{}

func (intAsset) Load(context.Context, *Runtime, constSource) int { return 42 }

type failingAsset struct{ calls *atomic.Int64 }

func (a failingAsset) Load(context.Context, *Runtime, SourceKey) Result[string] {
	a.calls.Add(1)
	return Fail[string](errors.New("boom"))
}

type recordingMetrics struct {
	mu      sync.Mutex
	hits    map[string]int
	misses  map[string]int
	removes map[string]int
	loads   map[string]int
	failed  map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		hits: map[string]int{}, misses: map[string]int{}, removes: map[string]int{},
		loads: map[string]int{}, failed: map[string]int{},
	}
}

func (m *recordingMetrics) CacheHit(kind string)    { m.inc(m.hits, kind) }
func (m *recordingMetrics) CacheMiss(kind string)   { m.inc(m.misses, kind) }
func (m *recordingMetrics) CacheRemove(kind string) { m.inc(m.removes, kind) }
func (m *recordingMetrics) LoadDuration(kind string, _ time.Duration, failed bool) {
	m.inc(m.loads, kind)
	if failed {
		m.inc(m.failed, kind)
	}
}

func (m *recordingMetrics) inc(counter map[string]int, kind string) {
	m.mu.Lock()
	counter[kind]++
	m.mu.Unlock()
}

func (m *recordingMetrics) get(counter map[string]int, kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return counter[kind]
}

// =============================================================================
// Deduplication
// =============================================================================

func TestLoad_DeduplicatesConcurrentRequests(t *testing.T) {
	rt := newTestRuntime(t)
	var calls atomic.Int64
	a := countingAsset{calls: &calls, release: make(chan struct{})}

	const requesters = 32
	tasks := make([]*Task[string], requesters)
	var wg sync.WaitGroup
	for i := range requesters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tasks[i] = Load(rt, a, URI("https://example.com/a.png"))
		}()
	}
	wg.Wait()
	close(a.release)

	for _, task := range tasks {
		assert.Same(t, tasks[0], task)
		assert.Equal(t, "loaded:https://example.com/a.png", await(t, task))
	}
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 1, rt.Cache().Len())
}

func TestLoad_SettledResultReplays(t *testing.T) {
	rt := newTestRuntime(t)
	var calls atomic.Int64
	a := countingAsset{calls: &calls}

	first := await(t, Load(rt, a, Path("/a")))
	second := await(t, Load(rt, a, Path("/a")))

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load())
}

func TestLoad_DistinctSources(t *testing.T) {
	rt := newTestRuntime(t)
	var calls atomic.Int64
	a := countingAsset{calls: &calls}

	assert.Equal(t, "loaded:x", await(t, Load(rt, a, URI("x"))))
	assert.Equal(t, "loaded:x", await(t, Load(rt, a, Path("x"))))
	assert.Equal(t, int64(2), calls.Load())
}

func TestLoad_DoesNotRunOnCaller(t *testing.T) {
	rt := newTestRuntime(t)
	var calls atomic.Int64
	a := countingAsset{calls: &calls, release: make(chan struct{})}

	// Load returns while the producer is blocked.
	task := Load(rt, a, URI("blocked"))
	_, ok := task.Poll()
	assert.False(t, ok)

	close(a.release)
	await(t, task)
}

// =============================================================================
// Cache operations
// =============================================================================

func TestInsert_Idempotent(t *testing.T) {
	rt := newTestRuntime(t)
	c := rt.Cache()
	a := stringAsset{}
	src := constSource{"x"}

	Insert(c, a, src, Ready("one"))
	Insert(c, a, src, Ready("two"))

	task, ok := Get(c, a, src)
	require.True(t, ok)
	v, _ := task.Poll()
	assert.Equal(t, "two", v)
	assert.Equal(t, 1, c.Len())
}

func TestInsert_ServedByLoad(t *testing.T) {
	rt := newTestRuntime(t)
	var calls atomic.Int64
	a := countingAsset{calls: &calls}

	Insert(rt.Cache(), Asset[SourceKey, string](a), URI("pre"), Ready("preloaded"))
	assert.Equal(t, "preloaded", await(t, Load(rt, a, URI("pre"))))
	assert.Zero(t, calls.Load())
}

func TestKindIsolation(t *testing.T) {
	rt := newTestRuntime(t)

	// Both sources hash to the same value; only the asset type differs.
	require.Equal(t, hashSource(constSource{"a"}), hashSource(constSource{"b"}))

	s := await(t, Load(rt, stringAsset{}, constSource{"a"}))
	n := await(t, Load(rt, intAsset{}, constSource{"b"}))

	assert.Equal(t, "A", s)
	assert.Equal(t, 42, n)
	assert.Equal(t, 2, rt.Cache().Len())

	_, ok := Get(rt.Cache(), stringAsset{}, constSource{"z"})
	assert.True(t, ok)
}

func TestGet_DoesNotCreate(t *testing.T) {
	rt := newTestRuntime(t)

	_, ok := Get(rt.Cache(), stringAsset{}, constSource{"x"})
	assert.False(t, ok)
	assert.Zero(t, rt.Cache().Len())
}

func TestRemove(t *testing.T) {
	rt := newTestRuntime(t)
	var calls atomic.Int64
	a := countingAsset{calls: &calls}

	await(t, Load(rt, a, URI("r")))

	v, ok := RemoveFromCache(rt, a, URI("r"))
	assert.True(t, ok)
	assert.Equal(t, "loaded:r", v)

	_, ok = RemoveFromCache(rt, a, URI("r"))
	assert.False(t, ok, "second removal finds nothing")

	// The next load produces again.
	await(t, Load(rt, a, URI("r")))
	assert.Equal(t, int64(2), calls.Load())
}

func TestRemove_PendingIsNotResurrected(t *testing.T) {
	rt := newTestRuntime(t)
	var calls atomic.Int64
	a := countingAsset{calls: &calls, release: make(chan struct{})}

	task := Load(rt, a, URI("p"))
	_, ok := RemoveFromCache(rt, a, URI("p"))
	assert.False(t, ok, "pending entries have no output to return")

	close(a.release)
	assert.Equal(t, "loaded:p", await(t, task))

	_, ok = Get(rt.Cache(), Asset[SourceKey, string](a), URI("p"))
	assert.False(t, ok, "completion must not re-insert a removed entry")
}

// =============================================================================
// Use
// =============================================================================

func TestUse_PendingThenReady(t *testing.T) {
	rt := newTestRuntime(t)
	var calls atomic.Int64
	a := countingAsset{calls: &calls, release: make(chan struct{})}

	ready := make(chan struct{})
	_, ok := Use(rt, a, URI("u"), RefreshFunc(func() { close(ready) }))
	assert.False(t, ok)

	close(a.release)
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("onReady was not called")
	}

	v, ok := Use(rt, a, URI("u"), nil)
	assert.True(t, ok)
	assert.Equal(t, "loaded:u", v)
	assert.Equal(t, int64(1), calls.Load())
}

// countingRefresher counts Refresh calls.
type countingRefresher struct{ n atomic.Int64 }

func (r *countingRefresher) Refresh() { r.n.Add(1) }

func TestUse_RegistersRefresherOncePerTask(t *testing.T) {
	rt := newTestRuntime(t)
	var calls atomic.Int64
	a := countingAsset{calls: &calls, release: make(chan struct{})}

	first, second := &countingRefresher{}, &countingRefresher{}
	for range 100 {
		_, ok := Use(rt, a, URI("u"), first)
		require.False(t, ok)
	}
	_, ok := Use(rt, a, URI("u"), second)
	require.False(t, ok)

	// Callbacks run in registration order, so this one runs last.
	drained := make(chan struct{})
	Load(rt, a, URI("u")).OnSettle(func(string) { close(drained) })

	close(a.release)
	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not settle")
	}
	assert.Equal(t, int64(1), first.n.Load())
	assert.Equal(t, int64(1), second.n.Load())
}

// =============================================================================
// Failure TTL
// =============================================================================

func TestFailureTTL_Expires(t *testing.T) {
	clock := newFakeClock()
	rt := newTestRuntime(t, WithClock(clock.Now), WithFailureTTL(10*time.Second))
	var calls atomic.Int64
	a := failingAsset{calls: &calls}

	res := await(t, Load(rt, a, URI("f")))
	require.True(t, res.Failed())
	assert.EqualError(t, res.Err, "boom")

	// Still cached within the TTL.
	await(t, Load(rt, a, URI("f")))
	assert.Equal(t, int64(1), calls.Load())

	clock.Advance(10 * time.Second)
	await(t, Load(rt, a, URI("f")))
	assert.Equal(t, int64(2), calls.Load())
}

func TestFailureTTL_Zero(t *testing.T) {
	rt := newTestRuntime(t, WithFailureTTL(0))
	var calls atomic.Int64
	a := failingAsset{calls: &calls}

	await(t, Load(rt, a, URI("f")))
	assert.Eventually(t, func() bool { return rt.Cache().Len() == 0 }, time.Second, time.Millisecond)
}

func TestFailureTTL_Negative(t *testing.T) {
	clock := newFakeClock()
	rt := newTestRuntime(t, WithClock(clock.Now), WithFailureTTL(-1))
	var calls atomic.Int64
	a := failingAsset{calls: &calls}

	await(t, Load(rt, a, URI("f")))
	clock.Advance(24 * time.Hour)
	await(t, Load(rt, a, URI("f")))
	assert.Equal(t, int64(1), calls.Load())
}

func TestFailureTTL_SuccessNeverExpires(t *testing.T) {
	clock := newFakeClock()
	rt := newTestRuntime(t, WithClock(clock.Now), WithFailureTTL(time.Second))
	var calls atomic.Int64
	a := countingAsset{calls: &calls}

	await(t, Load(rt, a, URI("s")))
	clock.Advance(time.Hour)
	await(t, Load(rt, a, URI("s")))
	assert.Equal(t, int64(1), calls.Load())
}

// =============================================================================
// Observability
// =============================================================================

func TestLoad_Metrics(t *testing.T) {
	m := newRecordingMetrics()
	rt := newTestRuntime(t, WithMetrics(m))
	var calls atomic.Int64
	a := countingAsset{calls: &calls}
	kind := "assets.countingAsset"

	await(t, Load(rt, a, URI("m")))
	await(t, Load(rt, a, URI("m")))
	RemoveFromCache(rt, a, URI("m"))
	await(t, Load(rt, failingAsset{calls: &calls}, URI("m")))

	assert.Equal(t, 1, m.get(m.misses, kind))
	assert.Equal(t, 1, m.get(m.hits, kind))
	assert.Equal(t, 1, m.get(m.removes, kind))
	assert.Equal(t, 1, m.get(m.loads, kind))
	assert.Equal(t, 1, m.get(m.failed, "assets.failingAsset"))
}

func TestLoad_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	rt := newTestRuntime(t, WithTracer(tp.Tracer("test")))
	var calls atomic.Int64

	await(t, Load(rt, countingAsset{calls: &calls}, URI("ok")))
	await(t, Load(rt, failingAsset{calls: &calls}, URI("bad")))

	spans := sr.Ended()
	require.Len(t, spans, 2)

	byKind := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range spans {
		assert.Equal(t, "assets.Load", s.Name())
		for _, kv := range s.Attributes() {
			if kv.Key == attribute.Key("asset.kind") {
				byKind[kv.Value.AsString()] = s
			}
		}
	}
	require.Contains(t, byKind, "assets.countingAsset")
	require.Contains(t, byKind, "assets.failingAsset")
	assert.Equal(t, codes.Unset, byKind["assets.countingAsset"].Status().Code)
	assert.Equal(t, codes.Error, byKind["assets.failingAsset"].Status().Code)
}

// =============================================================================
// Runtime lifecycle
// =============================================================================

func TestRuntime_CloseDrains(t *testing.T) {
	rt := New(WithWorkers(2))
	var calls atomic.Int64
	a := countingAsset{calls: &calls}

	tasks := make([]*Task[string], 0, 20)
	for i := range 20 {
		tasks = append(tasks, Load(rt, a, URI(string(rune('a'+i)))))
	}
	require.NoError(t, rt.Close())
	require.NoError(t, rt.Close())

	for _, task := range tasks {
		_, ok := task.Poll()
		assert.True(t, ok, "Close waits for queued production")
	}

	// Loads after Close still settle.
	await(t, Load(rt, a, URI("late")))
}
