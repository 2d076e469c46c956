package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown embedding provider, backend or connector.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrConfiguration indicates a missing or invalid setting.
	// Configuration errors are reported at construction time.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrUnknownProvider indicates no plan fetcher is registered under the name.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrIngestInProgress indicates an ingestion is already running for the provider.
	ErrIngestInProgress = errors.New("ingest in progress")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the backing vector store is not configured or unreachable.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrUpstream indicates a remote call (embedding service, backing store) failed.
	ErrUpstream = errors.New("upstream failure")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// ErrorKind classifies a failure so callers can tell a legitimately
// empty outcome from an upstream failure.
type ErrorKind int

// Error kinds.
const (
	// KindNone means no failure occurred.
	KindNone ErrorKind = iota

	// KindInvalidInput is a malformed record or field. Recovered locally.
	KindInvalidInput

	// KindUpstream is a failed embedding or backing-store call.
	// Fatal for writes, degraded to an empty result for reads.
	KindUpstream

	// KindConfiguration is a missing credential or invalid setting.
	// Fatal at construction time.
	KindConfiguration

	// KindNotFound is an absent snapshot or provider. Not a failure for callers.
	KindNotFound
)

// String returns the string representation.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidInput:
		return "invalid_input"
	case KindUpstream:
		return "upstream"
	case KindConfiguration:
		return "configuration"
	case KindNotFound:
		return "not_found"
	default:
		return unknownDescription
	}
}

// Error is a classified failure from a named operation.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Op is the operation that failed, e.g. "index.add".
	Op string

	// Err is the underlying error.
	Err error
}

// NewError wraps err with a kind and operation name.
// Returns nil if err is nil.
func NewError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Classified errors report their own kind;
// sentinels map to their natural kind; anything else is upstream.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownProvider):
		return KindInvalidInput
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrUnsupportedType):
		return KindConfiguration
	default:
		return KindUpstream
	}
}
