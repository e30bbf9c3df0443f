// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ComparisonDetail describes how the queried unit compares to one ranked match.
// It is keyed implicitly by the MatchID of the row that requested it.
type ComparisonDetail struct {
	BaseRegion       string   `json:"estado_base" yaml:"estado_base"`
	ComparedRegion   string   `json:"estado_similar" yaml:"estado_similar"`
	Precipitation    string   `json:"precipitacion" yaml:"precipitacion"`
	Temperature      string   `json:"temperatura" yaml:"temperatura"`
	ClimateUnit      string   `json:"unidad_climatica" yaml:"unidad_climatica"`
	SoilType         string   `json:"edafologia" yaml:"edafologia"`
	Landform         string   `json:"topoforma" yaml:"topoforma"`
	OverallScore     float64  `json:"total_similitud" yaml:"total_similitud"`
	SharedCategories []string `json:"cultivos_en_comun" yaml:"cultivos_en_comun"`
}

// Validate checks the overall score range and required region names.
func (d ComparisonDetail) Validate() error {
	if d.BaseRegion == "" || d.ComparedRegion == "" {
		return fmt.Errorf("%w: detail is missing region names", ErrInvalidPayload)
	}
	if d.OverallScore < 0 || d.OverallScore > 100 {
		return fmt.Errorf("%w: overall score %v outside 0-100", ErrInvalidPayload, d.OverallScore)
	}
	return nil
}

// Clone returns a deep copy.
func (d ComparisonDetail) Clone() ComparisonDetail {
	out := d
	out.SharedCategories = append([]string(nil), d.SharedCategories...)
	return out
}
