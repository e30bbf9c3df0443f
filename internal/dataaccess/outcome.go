// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataaccess

// Kind tags an Outcome.
type Kind int

const (
	// KindOK carries live data from the backend.
	KindOK Kind = iota
	// KindFallback carries substitute data; the caller is in degraded mode.
	KindFallback
	// KindError carries no data, only a human-readable reason.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindFallback:
		return "fallback"
	case KindError:
		return "error"
	}
	return "unknown"
}

// Outcome is the result of every fetch. Value is meaningful for KindOK and
// KindFallback. Reason explains a KindError, and for KindFallback records
// why the live call was abandoned.
type Outcome[T any] struct {
	Kind   Kind
	Value  T
	Reason string
}

// OK wraps live data.
func OK[T any](v T) Outcome[T] {
	return Outcome[T]{Kind: KindOK, Value: v}
}

// Fallback wraps substitute data with the cause of degradation.
func Fallback[T any](v T, cause string) Outcome[T] {
	return Outcome[T]{Kind: KindFallback, Value: v, Reason: cause}
}

// Failed reports that neither live nor substitute data is available.
func Failed[T any](reason string) Outcome[T] {
	return Outcome[T]{Kind: KindError, Reason: reason}
}

// HasValue reports whether Value holds usable data.
func (o Outcome[T]) HasValue() bool {
	return o.Kind == KindOK || o.Kind == KindFallback
}

// Degraded reports whether the value came from the fallback catalog.
func (o Outcome[T]) Degraded() bool {
	return o.Kind == KindFallback
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "ok":
		return KindOK, true
	case "fallback":
		return KindFallback, true
	case "error":
		return KindError, true
	}
	return KindError, false
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
