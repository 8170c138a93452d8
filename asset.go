package assets

import (
	"context"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Asset produces an output of type O from a source of type S.
//
// Load runs on the runtime's worker pool, never on the requesting
// goroutine, and at most once per cached source. It must not panic on bad
// input; producers that can fail return a [Result].
type Asset[S Source, O any] interface {
	Load(ctx context.Context, rt *Runtime, source S) O
}

// Load returns the task producing a's output for source, starting
// production on a miss. Concurrent and later calls for an equal source
// return the same task until it is removed or expires.
func Load[S Source, O any](rt *Runtime, a Asset[S, O], source S) *Task[O] {
	key := keyOf(a, source)
	kind := key.kindName()

	task, found := getOrInsert[O](rt.cache, key)
	if found {
		rt.metrics.CacheHit(kind)
		return task
	}
	rt.metrics.CacheMiss(kind)
	Logger().Debug("assets: cache miss", "kind", kind, "source", source)

	run := func() {
		ctx, span := rt.tracer.Start(rt.ctx, "assets.Load", trace.WithAttributes(
			attribute.String("asset.kind", kind),
			attribute.String("asset.source", fmt.Sprint(source)),
		))
		start := rt.now()
		out := a.Load(ctx, rt, source)
		elapsed := rt.now().Sub(start)

		var err error
		if f, ok := any(out).(failure); ok {
			err = f.Failure()
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		rt.metrics.LoadDuration(kind, elapsed, err != nil)

		if err != nil {
			rt.cache.retire(key, task)
		}
		task.settle(out)
	}

	if !rt.pool.Go(run) {
		// The runtime is closed; its context is cancelled, so this fails fast.
		go run()
	}
	return task
}

// Refresher is told that a pending output became ready. Window
// implements it.
type Refresher interface {
	Refresh()
}

// RefreshFunc adapts a function to Refresher.
type RefreshFunc func()

func (f RefreshFunc) Refresh() { f() }

// Use is the non-blocking form of Load for paint code. It returns the
// output if production has finished. Otherwise it returns false and, if r
// is non-nil, arranges for r.Refresh to run once the output is ready.
//
// Paint code calls Use every frame, so a comparable r (a window pointer,
// say) is registered at most once per pending task. A RefreshFunc is not
// comparable and is registered on every call.
func Use[S Source, O any](rt *Runtime, a Asset[S, O], source S, r Refresher) (O, bool) {
	task := Load(rt, a, source)
	if v, ok := task.Poll(); ok {
		return v, true
	}
	if r != nil {
		notify := func(O) { r.Refresh() }
		if reflect.ValueOf(r).Comparable() {
			task.onSettleOnce(r, notify)
		} else {
			task.OnSettle(notify)
		}
	}
	var zero O
	return zero, false
}

// RemoveFromCache evicts a's entry for source so the next request produces
// it again. It returns the previously settled output, if any.
func RemoveFromCache[S Source, O any](rt *Runtime, a Asset[S, O], source S) (O, bool) {
	return Remove(rt.cache, a, source)
}
