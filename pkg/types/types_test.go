// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"Bajo", TierLow, false},
		{"medio", TierMedium, false},
		{"ALTO", TierHigh, false},
		{"Muy Alto", TierVeryHigh, false},
		{"muy   alto", TierVeryHigh, false},
		{"VeryHigh", TierVeryHigh, false},
		{"very high", TierVeryHigh, false},
		{"low", TierLow, false},
		{"", TierUnknown, true},
		{"Excelente", TierUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTierEncoding(t *testing.T) {
	c := ScoredCandidate{Label: "Avena", Score: 96, Tier: TierVeryHigh}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cultivo":"Avena","puntaje":96,"indice":"Muy Alto"}`, string(data))

	var back ScoredCandidate
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c, back)

	y, err := yaml.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(y), "indice: Muy Alto")

	assert.Error(t, json.Unmarshal([]byte(`{"indice":"Regular"}`), &back))
	assert.Error(t, json.Unmarshal([]byte(`{"indice":3}`), &back))
	assert.Equal(t, "unknown", Tier(99).String())
}

func TestSimilarityResultYAMLReadBack(t *testing.T) {
	r := SimilarityResult{
		RankedMatches:    []RankedMatch{{MatchID: "0009", ParentName: "Estado X", Name: "Mun X", Score: 89}},
		ScoredCandidates: []ScoredCandidate{{Label: "Fresa", Score: 80, Tier: TierHigh}, {Label: "Avena", Score: 96, Tier: TierVeryHigh}},
		SubjectProfile:   SubjectProfile{ParentName: "Estado Prueba", Name: "Municipio Prueba"},
	}
	data, err := yaml.Marshal(r)
	require.NoError(t, err)

	var back SimilarityResult
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, r.ScoredCandidates, back.ScoredCandidates)
	assert.Equal(t, r.SubjectProfile, back.SubjectProfile)

	var c ScoredCandidate
	assert.ErrorIs(t, yaml.Unmarshal([]byte("indice: Regular\n"), &c), ErrInvalidPayload)
}

func TestSimilarityResultValidate(t *testing.T) {
	valid := func() SimilarityResult {
		return SimilarityResult{
			RankedMatches: []RankedMatch{
				{MatchID: "1", Score: 0},
				{MatchID: "2", Score: 100},
			},
			ScoredCandidates: []ScoredCandidate{{Label: "Maíz", Score: 50, Tier: TierMedium}},
		}
	}
	require.NoError(t, valid().Validate())
	require.NoError(t, SimilarityResult{}.Validate(), "empty lists are valid")

	tests := []struct {
		name   string
		mutate func(*SimilarityResult)
	}{
		{"empty match id", func(r *SimilarityResult) { r.RankedMatches[0].MatchID = "" }},
		{"duplicate match id", func(r *SimilarityResult) { r.RankedMatches[1].MatchID = "1" }},
		{"score below range", func(r *SimilarityResult) { r.RankedMatches[0].Score = -1 }},
		{"score above range", func(r *SimilarityResult) { r.RankedMatches[1].Score = 100.5 }},
		{"candidate without label", func(r *SimilarityResult) { r.ScoredCandidates[0].Label = "" }},
		{"candidate without tier", func(r *SimilarityResult) { r.ScoredCandidates[0].Tier = TierUnknown }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), ErrInvalidPayload)
		})
	}
}

func TestSimilarityResultMatchAndClone(t *testing.T) {
	r := SimilarityResult{
		RankedMatches:       []RankedMatch{{MatchID: "0009", Name: "Mun X"}},
		RelatedCategoryTags: []string{"Maíz"},
	}
	m, ok := r.Match("0009")
	require.True(t, ok)
	assert.Equal(t, "Mun X", m.Name)
	_, ok = r.Match("0010")
	assert.False(t, ok)

	c := r.Clone()
	c.RankedMatches[0].Name = "changed"
	c.RelatedCategoryTags[0] = "changed"
	assert.Equal(t, "Mun X", r.RankedMatches[0].Name)
	assert.Equal(t, "Maíz", r.RelatedCategoryTags[0])
}

func TestComparisonDetailValidate(t *testing.T) {
	d := ComparisonDetail{BaseRegion: "Sonora", ComparedRegion: "Chihuahua", OverallScore: 85}
	require.NoError(t, d.Validate())

	missing := d
	missing.ComparedRegion = ""
	assert.ErrorIs(t, missing.Validate(), ErrInvalidPayload)

	high := d
	high.OverallScore = 101
	assert.ErrorIs(t, high.Validate(), ErrInvalidPayload)

	d.SharedCategories = []string{"Maíz"}
	c := d.Clone()
	c.SharedCategories[0] = "changed"
	assert.Equal(t, "Maíz", d.SharedCategories[0])
}

func TestValidateUnits(t *testing.T) {
	units := []AddressableUnit{
		{ID: "20001", Name: "Abejones", ParentName: "Oaxaca"},
		{ID: "21001", Name: "Acajete", ParentName: "Puebla"},
	}
	require.NoError(t, ValidateUnits(units))
	require.NoError(t, ValidateUnits(nil))

	dup := append(units, AddressableUnit{ID: "20001", Name: "Otro", ParentName: "Oaxaca"})
	assert.ErrorIs(t, ValidateUnits(dup), ErrInvalidPayload)

	for _, u := range []AddressableUnit{
		{Name: "x", ParentName: "y"},
		{ID: "1", ParentName: "y"},
		{ID: "1", Name: "x"},
	} {
		assert.ErrorIs(t, u.Validate(), ErrInvalidPayload)
	}
}

func TestUnitWireNames(t *testing.T) {
	var u AddressableUnit
	require.NoError(t, json.Unmarshal([]byte(`{"cvegeo":"20001","nomgeo":"Abejones","nombre_ent":"Oaxaca"}`), &u))
	assert.Equal(t, AddressableUnit{ID: "20001", Name: "Abejones", ParentName: "Oaxaca"}, u)
}

func TestClientConfigWithDefaults(t *testing.T) {
	c := ClientConfig{BaseURL: "http://example.test/api/", MaxRetries: -1}.WithDefaults()
	assert.Equal(t, "http://example.test/api", c.BaseURL)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.Equal(t, DefaultUserAgent, c.UserAgent)
	assert.Equal(t, -1, c.MaxRetries, "explicit values are kept")
	assert.Equal(t, DefaultRoutes(), c.Routes)

	routes := RouteConfig{ResourceUnits: "/v2/units", "weather": "/clima/{id}", ResourceDetail: ""}
	custom := ClientConfig{Timeout: time.Second, Routes: routes}.WithDefaults()
	assert.Equal(t, DefaultBaseURL, custom.BaseURL)
	assert.Equal(t, time.Second, custom.Timeout)
	assert.Equal(t, "/v2/units", custom.Routes[ResourceUnits])
	assert.Equal(t, "/clima/{id}", custom.Routes["weather"])
	assert.Equal(t, DefaultRoutes()[ResourceDetail], custom.Routes[ResourceDetail])
	assert.Len(t, custom.Routes, len(DefaultRoutes())+1)

	custom.Routes[ResourceCrops] = "/changed"
	assert.NotContains(t, routes, ResourceCrops, "defaults never write through to the caller's map")
}

func TestDefaultRouteNames(t *testing.T) {
	names := DefaultRoutes().Names()
	assert.Len(t, names, 10)
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, ResourceTopProducers)
}
