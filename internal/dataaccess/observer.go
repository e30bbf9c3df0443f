// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataaccess

import (
	"time"

	"github.com/rs/zerolog"
)

// Diagnostic is emitted once per fetch.
type Diagnostic struct {
	// RequestID is a ULID, sortable by issue time.
	RequestID string
	Resource  Resource
	Params    Params
	Kind      Kind
	// Cause is empty for KindOK.
	Cause string
	// Status is the HTTP status, 0 when no response was received.
	Status  int
	Elapsed time.Duration
	At      time.Time
}

// Observer receives diagnostics. Implementations may be called from several
// in-flight fetches at once.
type Observer interface {
	Observe(d Diagnostic)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Diagnostic)

func (f ObserverFunc) Observe(d Diagnostic) { f(d) }

type multiObserver []Observer

func (m multiObserver) Observe(d Diagnostic) {
	for _, o := range m {
		safeObserve(o, d)
	}
}

// MultiObserver fans a diagnostic out to every non-nil observer. A panic in
// one observer does not prevent the others from running.
func MultiObserver(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

// LogObserver writes diagnostics as structured log events: debug for live
// data, warn for fallbacks, error when nothing could be served.
type LogObserver struct {
	Logger zerolog.Logger
}

func (l LogObserver) Observe(d Diagnostic) {
	var ev *zerolog.Event
	switch d.Kind {
	case KindOK:
		ev = l.Logger.Debug()
	case KindFallback:
		ev = l.Logger.Warn()
	default:
		ev = l.Logger.Error()
	}
	ev = ev.Str("request_id", d.RequestID).
		Str("resource", string(d.Resource)).
		Str("outcome", d.Kind.String()).
		Dur("elapsed", d.Elapsed)
	if id := d.Params[ParamID]; id != "" {
		ev = ev.Str("id", id)
	}
	if d.Status != 0 {
		ev = ev.Int("status", d.Status)
	}
	if d.Cause != "" {
		ev = ev.Str("cause", d.Cause)
	}
	ev.Msg("fetch")
}

// safeObserve shields the caller from observer panics.
func safeObserve(o Observer, d Diagnostic) {
	if o == nil {
		return
	}
	defer func() { _ = recover() }()
	o.Observe(d)
}
