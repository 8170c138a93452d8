package assets

import "time"

// Metrics receives cache and production events. Labels are the asset kind
// (the Go type name of the asset). See the prometheus sub-package for an
// implementation.
type Metrics interface {
	CacheHit(kind string)
	CacheMiss(kind string)
	CacheRemove(kind string)
	LoadDuration(kind string, d time.Duration, failed bool)
}

type nopMetrics struct{}

func (nopMetrics) CacheHit(string)                          {}
func (nopMetrics) CacheMiss(string)                         {}
func (nopMetrics) CacheRemove(string)                       {}
func (nopMetrics) LoadDuration(string, time.Duration, bool) {}

// NopMetrics returns a Metrics that discards everything.
func NopMetrics() Metrics {
	return nopMetrics{}
}
