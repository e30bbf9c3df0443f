// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Statistics are the national headline figures.
type Statistics struct {
	TotalProduction float64 `json:"total_produccion" yaml:"total_produccion"`
	CropsAnalyzed   int     `json:"cultivos_analizados" yaml:"cultivos_analizados"`
	Years           int     `json:"anios" yaml:"anios"`
}

func (s Statistics) Validate() error {
	if s.TotalProduction < 0 || s.CropsAnalyzed < 0 || s.Years < 0 {
		return fmt.Errorf("%w: statistics contain negative figures", ErrInvalidPayload)
	}
	return nil
}

// Crop is one entry of the crop catalog.
type Crop struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"nombre" yaml:"nombre"`
}

// ValidateCrops rejects crops without an id or name and duplicate ids.
func ValidateCrops(crops []Crop) error {
	seen := make(map[string]struct{}, len(crops))
	for i, c := range crops {
		if c.ID == "" || c.Name == "" {
			return fmt.Errorf("%w: crop %d is missing id or name", ErrInvalidPayload, i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate crop id %s", ErrInvalidPayload, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// CropProducer is a municipality's output for one crop.
type CropProducer struct {
	UnitID string  `json:"cvegeo" yaml:"cvegeo"`
	Name   string  `json:"nombre" yaml:"nombre"`
	Tonnes float64 `json:"produccion_ton" yaml:"produccion_ton"`
}

// ValidateProducers checks names and non-negative tonnage.
func ValidateProducers(producers []CropProducer) error {
	for i, p := range producers {
		if p.Name == "" {
			return fmt.Errorf("%w: producer %d has no name", ErrInvalidPayload, i)
		}
		if p.Tonnes < 0 {
			return fmt.Errorf("%w: producer %s has negative production", ErrInvalidPayload, p.Name)
		}
	}
	return nil
}

// AnnualProduction is a municipality's total output for one year.
type AnnualProduction struct {
	Year       int     `json:"anio" yaml:"anio"`
	Production float64 `json:"produccion" yaml:"produccion"`
}

// DroughtLevel is the drought index recorded for one year.
type DroughtLevel struct {
	Year  int     `json:"anio" yaml:"anio"`
	Level float64 `json:"valor" yaml:"valor"`
}

// ValidateAnnualProduction requires positive, distinct years.
func ValidateAnnualProduction(series []AnnualProduction) error {
	years := make([]int, len(series))
	for i, p := range series {
		if p.Production < 0 {
			return fmt.Errorf("%w: negative production in %d", ErrInvalidPayload, p.Year)
		}
		years[i] = p.Year
	}
	return validateYears(years)
}

// ValidateDrought requires positive, distinct years and non-negative levels.
func ValidateDrought(series []DroughtLevel) error {
	years := make([]int, len(series))
	for i, d := range series {
		if d.Level < 0 {
			return fmt.Errorf("%w: negative drought level in %d", ErrInvalidPayload, d.Year)
		}
		years[i] = d.Year
	}
	return validateYears(years)
}

func validateYears(years []int) error {
	seen := make(map[int]struct{}, len(years))
	for _, y := range years {
		if y <= 0 {
			return fmt.Errorf("%w: invalid year %d", ErrInvalidPayload, y)
		}
		if _, dup := seen[y]; dup {
			return fmt.Errorf("%w: duplicate year %d", ErrInvalidPayload, y)
		}
		seen[y] = struct{}{}
	}
	return nil
}

// TopProducer is one row of the national top-producers ranking.
type TopProducer struct {
	ParentName string  `json:"estado" yaml:"estado"`
	Crop       string  `json:"cultivo" yaml:"cultivo"`
	Tonnes     float64 `json:"produccion_ton" yaml:"produccion_ton"`
}

// ValidateTopProducers checks required names and non-negative tonnage.
func ValidateTopProducers(rows []TopProducer) error {
	for i, r := range rows {
		if r.ParentName == "" || r.Crop == "" {
			return fmt.Errorf("%w: top producer %d is missing state or crop", ErrInvalidPayload, i)
		}
		if r.Tonnes < 0 {
			return fmt.Errorf("%w: top producer %s has negative production", ErrInvalidPayload, r.ParentName)
		}
	}
	return nil
}
