// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataaccess

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogObserverLevels(t *testing.T) {
	tests := []struct {
		kind      Kind
		wantLevel string
	}{
		{KindOK, "debug"},
		{KindFallback, "warn"},
		{KindError, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			var buf bytes.Buffer
			obs := LogObserver{Logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}
			obs.Observe(Diagnostic{
				RequestID: "01J0000000000000000000000",
				Resource:  ResourceDetail,
				Params:    Params{ParamID: "0009"},
				Kind:      tt.kind,
				Cause:     "boom",
				Status:    500,
				Elapsed:   12 * time.Millisecond,
			})

			var ev map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
			assert.Equal(t, tt.wantLevel, ev["level"])
			assert.Equal(t, "comparison-detail", ev["resource"])
			assert.Equal(t, tt.kind.String(), ev["outcome"])
			assert.Equal(t, "0009", ev["id"])
			assert.Equal(t, "boom", ev["cause"])
			assert.EqualValues(t, 500, ev["status"])
		})
	}
}

func TestMultiObserverIsolatesPanics(t *testing.T) {
	var got []string
	m := MultiObserver(
		ObserverFunc(func(d Diagnostic) { got = append(got, "first:"+d.RequestID) }),
		nil,
		ObserverFunc(func(Diagnostic) { panic("bad observer") }),
		ObserverFunc(func(d Diagnostic) { got = append(got, "last:"+d.RequestID) }),
	)

	assert.NotPanics(t, func() { m.Observe(Diagnostic{RequestID: "r1"}) })
	assert.Equal(t, []string{"first:r1", "last:r1"}, got)
}

func TestKindString(t *testing.T) {
	names := []string{KindOK.String(), KindFallback.String(), KindError.String(), Kind(42).String()}
	assert.Equal(t, "ok,fallback,error,unknown", strings.Join(names, ","))
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindOK, KindFallback, KindError} {
		got, ok := ParseKind(k.String())
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseKind("maybe")
	assert.False(t, ok)
}
