// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Tier is the suitability index attached to a scored candidate crop.
type Tier int

const (
	TierUnknown Tier = iota
	TierLow
	TierMedium
	TierHigh
	TierVeryHigh
)

var tierWire = map[Tier]string{
	TierLow:      "Bajo",
	TierMedium:   "Medio",
	TierHigh:     "Alto",
	TierVeryHigh: "Muy Alto",
}

// ParseTier accepts the backend labels ("Bajo", "Muy Alto") and the
// English names ("Low", "VeryHigh"), case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "bajo", "low":
		return TierLow, nil
	case "medio", "medium":
		return TierMedium, nil
	case "alto", "high":
		return TierHigh, nil
	case "muy alto", "veryhigh", "very high":
		return TierVeryHigh, nil
	}
	return TierUnknown, fmt.Errorf("%w: unknown tier %q", ErrInvalidPayload, s)
}

// String returns the backend label for t.
func (t Tier) String() string {
	if s, ok := tierWire[t]; ok {
		return s
	}
	return "unknown"
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML writes the backend label.
func (t Tier) MarshalYAML() (any, error) {
	return t.String(), nil
}

// UnmarshalYAML accepts the same labels as ParseTier.
func (t *Tier) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RankedMatch is one row of the "most similar units" table.
type RankedMatch struct {
	MatchID    string  `json:"cvegeo" yaml:"cvegeo"`
	ParentName string  `json:"estado" yaml:"estado"`
	Name       string  `json:"municipio" yaml:"municipio"`
	Score      float64 `json:"similitud" yaml:"similitud"`
}

// ScoredCandidate is a crop with a suitability score and tier.
type ScoredCandidate struct {
	Label string  `json:"cultivo" yaml:"cultivo"`
	Score float64 `json:"puntaje" yaml:"puntaje"`
	Tier  Tier    `json:"indice" yaml:"indice"`
}

// SubjectProfile names the unit the similarity result was computed for.
type SubjectProfile struct {
	ParentName string `json:"estado" yaml:"estado"`
	Name       string `json:"municipio" yaml:"municipio"`
}

// SimilarityResult is the comparison dataset returned for one queried unit.
// A result is never mutated after decoding; a new query replaces it.
type SimilarityResult struct {
	// QueriedUnitID is filled by the client from the request, not the body.
	QueriedUnitID string `json:"queried_unit_id,omitempty" yaml:"queried_unit_id,omitempty"`

	RankedMatches       []RankedMatch     `json:"municipios_mas_similares" yaml:"municipios_mas_similares"`
	RelatedCategoryTags []string          `json:"cultivos_similares" yaml:"cultivos_similares"`
	ScoredCandidates    []ScoredCandidate `json:"cultivos_potenciales" yaml:"cultivos_potenciales"`
	SubjectProfile      SubjectProfile    `json:"perfil_municipio" yaml:"perfil_municipio"`
	AllCategoryTags     []string          `json:"todos_los_cultivos" yaml:"todos_los_cultivos"`
}

// Validate checks score ranges and that ranked match IDs are present and unique,
// since they key the detail view.
func (r SimilarityResult) Validate() error {
	seen := make(map[string]struct{}, len(r.RankedMatches))
	for i, m := range r.RankedMatches {
		if m.MatchID == "" {
			return fmt.Errorf("%w: ranked match %d has empty id", ErrInvalidPayload, i)
		}
		if _, dup := seen[m.MatchID]; dup {
			return fmt.Errorf("%w: duplicate ranked match %s", ErrInvalidPayload, m.MatchID)
		}
		seen[m.MatchID] = struct{}{}
		if m.Score < 0 || m.Score > 100 {
			return fmt.Errorf("%w: match %s score %v outside 0-100", ErrInvalidPayload, m.MatchID, m.Score)
		}
	}
	for _, c := range r.ScoredCandidates {
		if c.Label == "" {
			return fmt.Errorf("%w: scored candidate has empty label", ErrInvalidPayload)
		}
		if c.Tier == TierUnknown {
			return fmt.Errorf("%w: candidate %s has no tier", ErrInvalidPayload, c.Label)
		}
	}
	return nil
}

// Match returns the ranked match with the given id.
func (r SimilarityResult) Match(matchID string) (RankedMatch, bool) {
	for _, m := range r.RankedMatches {
		if m.MatchID == matchID {
			return m, true
		}
	}
	return RankedMatch{}, false
}

// Clone returns a deep copy so callers cannot alias the live result.
func (r SimilarityResult) Clone() SimilarityResult {
	out := r
	out.RankedMatches = append([]RankedMatch(nil), r.RankedMatches...)
	out.RelatedCategoryTags = append([]string(nil), r.RelatedCategoryTags...)
	out.ScoredCandidates = append([]ScoredCandidate(nil), r.ScoredCandidates...)
	out.AllCategoryTags = append([]string(nil), r.AllCategoryTags...)
	return out
}
