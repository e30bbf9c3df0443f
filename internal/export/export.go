// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes a comparison report to XLSX, JSON, or YAML.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/agroscope/pkg/types"
)

// Format selects the output encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Sheet names in the XLSX workbook.
const (
	SheetSimilar    = "Similares"
	SheetCandidates = "Potenciales"
	SheetProfile    = "Perfil"
	SheetDetails    = "Detalles"
)

// ErrUnknownFormat is returned for a path whose extension is not supported.
var ErrUnknownFormat = errors.New("unknown export format")

// Report is one applied similarity result plus any detail rows that were
// opened for it.
type Report struct {
	UnitID      string                   `json:"unit_id" yaml:"unit_id"`
	Degraded    bool                     `json:"degraded" yaml:"degraded"`
	GeneratedAt time.Time                `json:"generated_at" yaml:"generated_at"`
	Result      types.SimilarityResult   `json:"result" yaml:"result"`
	Details     []types.ComparisonDetail `json:"details,omitempty" yaml:"details,omitempty"`
}

// FormatFor picks the format from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// WriteFile writes r to path in the format implied by its extension.
func WriteFile(path string, r Report) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, format, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes r to w.
func Write(w io.Writer, format Format, r Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case FormatXLSX:
		wb, err := Workbook(r)
		if err != nil {
			return err
		}
		defer wb.Close()
		if err := wb.Write(w); err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Workbook builds the XLSX workbook for r.
func Workbook(r Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSimilar); err != nil {
		f.Close()
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}

	sheets := []table{
		{SheetSimilar, []any{"Rank", "CVEGEO", "Estado", "Municipio", "Similitud"}, similarRows(r.Result)},
		{SheetCandidates, []any{"Cultivo", "Puntaje", "Indice"}, candidateRows(r.Result)},
		{SheetProfile, []any{"Campo", "Valor"}, profileRows(r)},
	}
	if len(r.Details) > 0 {
		sheets = append(sheets, table{SheetDetails, []any{
			"Estado base", "Estado similar", "Precipitacion", "Temperatura",
			"Unidad climatica", "Edafologia", "Topoforma", "Total similitud", "Cultivos en comun",
		}, detailRows(r.Details)})
	}

	for i, s := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(s.name); err != nil {
				f.Close()
				return nil, fmt.Errorf("creating sheet %s: %w", s.name, err)
			}
		}
		if err := writeTable(f, s.name, s.header, s.rows); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

type table struct {
	name   string
	header []any
	rows   [][]any
}

func writeTable(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	last, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
		return fmt.Errorf("sizing %s columns: %w", sheet, err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func similarRows(r types.SimilarityResult) [][]any {
	rows := make([][]any, 0, len(r.RankedMatches))
	for i, m := range r.RankedMatches {
		rows = append(rows, []any{i + 1, m.MatchID, m.ParentName, m.Name, m.Score})
	}
	return rows
}

func candidateRows(r types.SimilarityResult) [][]any {
	rows := make([][]any, 0, len(r.ScoredCandidates))
	for _, c := range r.ScoredCandidates {
		rows = append(rows, []any{c.Label, c.Score, c.Tier.String()})
	}
	return rows
}

func profileRows(r Report) [][]any {
	return [][]any{
		{"CVEGEO", r.UnitID},
		{"Estado", r.Result.SubjectProfile.ParentName},
		{"Municipio", r.Result.SubjectProfile.Name},
		{"Cultivos similares", strings.Join(r.Result.RelatedCategoryTags, ", ")},
		{"Todos los cultivos", strings.Join(r.Result.AllCategoryTags, ", ")},
		{"Datos de respaldo", r.Degraded},
		{"Generado", r.GeneratedAt.UTC().Format(time.RFC3339)},
	}
}

func detailRows(details []types.ComparisonDetail) [][]any {
	rows := make([][]any, 0, len(details))
	for _, d := range details {
		rows = append(rows, []any{
			d.BaseRegion, d.ComparedRegion, d.Precipitation, d.Temperature,
			d.ClimateUnit, d.SoilType, d.Landform, d.OverallScore,
			strings.Join(d.SharedCategories, ", "),
		})
	}
	return rows
}
