package assets

// Result is the output of producers that can fail. Failures are values so
// they can be cached and replayed to every requester.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok returns a successful result.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail returns a failed result.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Failed reports whether the result carries an error.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Failure returns the error, or nil. The cache uses it to apply the
// failure TTL to any output type that implements it.
func (r Result[T]) Failure() error {
	return r.Err
}

// Get returns the value and error.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}

// failure is implemented by outputs whose failures should expire.
type failure interface {
	Failure() error
}
