package domain

// Result carries the value of a read operation together with the kind of
// failure, if any. Failed reads still carry a usable empty value so callers
// can degrade to "no results" without a nil check.
type Result[T any] struct {
	// Value is the outcome. On failure it is the empty/neutral value.
	Value T

	// Kind classifies the failure. KindNone on success.
	Kind ErrorKind

	// Err is the underlying failure, nil on success.
	Err error
}

// Ok returns a successful result.
func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Fail returns a failed result carrying the neutral value.
func Fail[T any](neutral T, err error) Result[T] {
	return Result[T]{Value: neutral, Kind: KindOf(err), Err: err}
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Failed reports whether the operation failed.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Unwrap returns the value and the error, for callers that prefer
// the conventional two-value form.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}
