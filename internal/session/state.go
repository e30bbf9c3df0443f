// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"time"

	"github.com/pdiddy/agroscope/internal/dataaccess"
	"github.com/pdiddy/agroscope/pkg/types"
)

// QueryState is the similarity query state.
type QueryState int

const (
	Idle QueryState = iota
	Querying
	Ready
	Failed
)

func (q QueryState) String() string {
	switch q {
	case Idle:
		return "idle"
	case Querying:
		return "querying"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// DetailState is the nested detail-view state.
type DetailState int

const (
	DetailNone DetailState = iota
	DetailLoading
	DetailReady
	// DetailFailed means the detail call resolved with no data at all.
	DetailFailed
)

func (d DetailState) String() string {
	switch d {
	case DetailNone:
		return "none"
	case DetailLoading:
		return "loading"
	case DetailReady:
		return "ready"
	case DetailFailed:
		return "failed"
	}
	return "unknown"
}

// Snapshot is a read-only copy of the session state for presentation.
type Snapshot struct {
	// Version increases with every transition.
	Version uint64

	Query  QueryState
	Target string
	// Result is set only in Ready.
	Result *types.SimilarityResult
	// Degraded marks a Ready result served from fallback data.
	Degraded bool
	// Reason explains Failed, or the cause of degradation.
	Reason string

	Detail         DetailState
	ActiveRow      string
	DetailValue    *types.ComparisonDetail
	DetailDegraded bool
	DetailReason   string
}

// Loading reports whether the presentation should show a loading state.
func (s Snapshot) Loading() bool {
	return s.Query == Querying
}

// EventKind distinguishes recorded outcomes.
type EventKind string

const (
	EventQuery  EventKind = "query"
	EventDetail EventKind = "detail"
)

// Event is an applied outcome handed to the Recorder.
type Event struct {
	Kind    EventKind       `json:"kind"`
	Subject string          `json:"subject"`
	Outcome dataaccess.Kind `json:"outcome"`
	Reason  string          `json:"reason,omitempty"`
	// Matches is the ranked match count for query events.
	Matches int       `json:"matches"`
	At      time.Time `json:"at"`
}
