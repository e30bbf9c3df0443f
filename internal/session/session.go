// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session orchestrates the similarity query for a chosen unit and the
// on-demand comparison detail for a chosen result row.
//
// Both requests follow latest-wins: every call is tagged with its unit id or
// row key and a generation number taken synchronously when the call starts.
// A response is applied only if its tag and generation are still the
// session's authoritative ones; otherwise it is dropped. In-flight calls are
// never aborted, only ignored. No method returns an error or panics: failure
// is represented in the state.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/agroscope/internal/dataaccess"
	"github.com/pdiddy/agroscope/pkg/types"
)

// Fetcher performs the two remote calls. *dataaccess.Client satisfies it.
type Fetcher interface {
	FetchSimilarity(ctx context.Context, unitID string) dataaccess.Outcome[types.SimilarityResult]
	FetchDetail(ctx context.Context, rowKey string) dataaccess.Outcome[types.ComparisonDetail]
}

// Recorder persists applied outcomes. Errors are logged and otherwise ignored.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Session holds the query and detail state machines.
type Session struct {
	fetcher  Fetcher
	hook     func(Snapshot)
	recorder Recorder
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	version uint64

	queryGen uint64
	query    QueryState
	target   string
	result   *types.SimilarityResult
	degraded bool
	reason   string

	detailGen      uint64
	detail         DetailState
	activeRow      string
	detailValue    *types.ComparisonDetail
	detailDegraded bool
	detailReason   string
}

// Option configures a Session.
type Option func(*Session)

// WithChangeHook registers fn to receive a snapshot after every transition.
// fn runs outside the session lock; use Snapshot.Version to discard
// snapshots that arrive out of order.
func WithChangeHook(fn func(Snapshot)) Option {
	return func(s *Session) { s.hook = fn }
}

// WithRecorder persists every applied query and detail outcome.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithLogger sets the session logger. The default discards output.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New returns an idle session.
func New(f Fetcher, opts ...Option) *Session {
	s := &Session{
		fetcher: f,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Query fetches the similarity result for unitID and reports whether the
// response was applied. An empty unitID is ignored. Starting a query clears
// the previous result and closes any open detail before the fetch begins.
func (s *Session) Query(ctx context.Context, unitID string) bool {
	gen, ok := s.beginQuery(unitID)
	if !ok {
		return false
	}
	return s.resolveQuery(ctx, gen, unitID)
}

// QueryAsync performs the synchronous half of Query, then fetches in a
// goroutine. The channel yields whether the response was applied.
func (s *Session) QueryAsync(ctx context.Context, unitID string) <-chan bool {
	done := make(chan bool, 1)
	gen, ok := s.beginQuery(unitID)
	if !ok {
		done <- false
		close(done)
		return done
	}
	go func() {
		defer close(done)
		done <- s.resolveQuery(ctx, gen, unitID)
	}()
	return done
}

// OpenDetail marks rowKey as the active detail subject, fetches its detail,
// and reports whether the response was applied. rowKey must be the MatchID of
// a row in the live result; otherwise the call is a no-op.
func (s *Session) OpenDetail(ctx context.Context, rowKey string) bool {
	gen, ok := s.beginDetail(rowKey)
	if !ok {
		return false
	}
	return s.resolveDetail(ctx, gen, rowKey)
}

// OpenDetailAsync performs the synchronous half of OpenDetail, then fetches
// in a goroutine. The channel yields whether the response was applied.
func (s *Session) OpenDetailAsync(ctx context.Context, rowKey string) <-chan bool {
	done := make(chan bool, 1)
	gen, ok := s.beginDetail(rowKey)
	if !ok {
		done <- false
		close(done)
		return done
	}
	go func() {
		defer close(done)
		done <- s.resolveDetail(ctx, gen, rowKey)
	}()
	return done
}

// CloseDetail clears the active detail subject. Responses still in flight
// will be dropped when they arrive.
func (s *Session) CloseDetail() {
	s.mu.Lock()
	s.closeDetailLocked()
	snap := s.transitionLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Snapshot returns a read-only copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) beginQuery(unitID string) (uint64, bool) {
	if unitID == "" {
		return 0, false
	}
	s.mu.Lock()
	s.queryGen++
	gen := s.queryGen
	s.query = Querying
	s.target = unitID
	s.result = nil
	s.degraded = false
	s.reason = ""
	s.closeDetailLocked()
	snap := s.transitionLocked()
	s.mu.Unlock()

	s.notify(snap)
	return gen, true
}

func (s *Session) resolveQuery(ctx context.Context, gen uint64, unitID string) bool {
	out := s.fetcher.FetchSimilarity(ctx, unitID)

	s.mu.Lock()
	if gen != s.queryGen || unitID != s.target {
		s.mu.Unlock()
		s.logger.Debug().Str("unit", unitID).Msg("dropped stale similarity response")
		return false
	}
	if out.HasValue() {
		r := out.Value.Clone()
		s.query = Ready
		s.result = &r
		s.degraded = out.Degraded()
	} else {
		s.query = Failed
	}
	s.reason = out.Reason
	snap := s.transitionLocked()
	s.mu.Unlock()

	s.notify(snap)
	ev := Event{
		Kind:    EventQuery,
		Subject: unitID,
		Outcome: out.Kind,
		Reason:  out.Reason,
		At:      s.now(),
	}
	if snap.Result != nil {
		ev.Matches = len(snap.Result.RankedMatches)
	}
	s.record(ctx, ev)
	return true
}

func (s *Session) beginDetail(rowKey string) (uint64, bool) {
	s.mu.Lock()
	if rowKey == "" || s.query != Ready || s.result == nil {
		s.mu.Unlock()
		return 0, false
	}
	if _, ok := s.result.Match(rowKey); !ok {
		s.mu.Unlock()
		return 0, false
	}
	s.detailGen++
	gen := s.detailGen
	s.detail = DetailLoading
	s.activeRow = rowKey
	s.detailValue = nil
	s.detailDegraded = false
	s.detailReason = ""
	snap := s.transitionLocked()
	s.mu.Unlock()

	s.notify(snap)
	return gen, true
}

func (s *Session) resolveDetail(ctx context.Context, gen uint64, rowKey string) bool {
	out := s.fetcher.FetchDetail(ctx, rowKey)

	s.mu.Lock()
	if gen != s.detailGen || rowKey != s.activeRow {
		s.mu.Unlock()
		s.logger.Debug().Str("row", rowKey).Msg("dropped stale detail response")
		return false
	}
	if out.HasValue() {
		d := out.Value.Clone()
		s.detail = DetailReady
		s.detailValue = &d
		s.detailDegraded = out.Degraded()
	} else {
		s.detail = DetailFailed
	}
	s.detailReason = out.Reason
	snap := s.transitionLocked()
	s.mu.Unlock()

	s.notify(snap)
	s.record(ctx, Event{
		Kind:    EventDetail,
		Subject: rowKey,
		Outcome: out.Kind,
		Reason:  out.Reason,
		At:      s.now(),
	})
	return true
}

func (s *Session) closeDetailLocked() {
	s.detailGen++
	s.detail = DetailNone
	s.activeRow = ""
	s.detailValue = nil
	s.detailDegraded = false
	s.detailReason = ""
}

// transitionLocked bumps the version and returns the new snapshot.
func (s *Session) transitionLocked() Snapshot {
	s.version++
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:        s.version,
		Query:          s.query,
		Target:         s.target,
		Degraded:       s.degraded,
		Reason:         s.reason,
		Detail:         s.detail,
		ActiveRow:      s.activeRow,
		DetailDegraded: s.detailDegraded,
		DetailReason:   s.detailReason,
	}
	if s.result != nil {
		r := s.result.Clone()
		snap.Result = &r
	}
	if s.detailValue != nil {
		d := s.detailValue.Clone()
		snap.DetailValue = &d
	}
	return snap
}

func (s *Session) notify(snap Snapshot) {
	if s.hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("change hook panicked")
		}
	}()
	s.hook(snap)
}

func (s *Session) record(ctx context.Context, ev Event) {
	if s.recorder == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("kind", string(ev.Kind)).Msg("recorder panicked")
		}
	}()
	if err := s.recorder.Record(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.Warn().Err(err).Str("kind", string(ev.Kind)).Str("subject", ev.Subject).Msg("recording outcome")
	}
}
