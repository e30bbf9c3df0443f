// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/agroscope/pkg/types"
)

func sampleReport() Report {
	return Report{
		UnitID:      "26030",
		Degraded:    true,
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Result: types.SimilarityResult{
			QueriedUnitID: "26030",
			RankedMatches: []types.RankedMatch{
				{MatchID: "0009", ParentName: "Sonora", Name: "Hermosillo", Score: 89},
				{MatchID: "0010", ParentName: "Chihuahua", Name: "Aldama", Score: 85.5},
			},
			RelatedCategoryTags: []string{"Maíz", "Trigo"},
			ScoredCandidates: []types.ScoredCandidate{
				{Label: "Avena", Score: 96, Tier: types.TierVeryHigh},
				{Label: "Fresa", Score: 40, Tier: types.TierLow},
			},
			SubjectProfile:  types.SubjectProfile{ParentName: "Sonora", Name: "Guaymas"},
			AllCategoryTags: []string{"Maíz", "Trigo", "Avena"},
		},
		Details: []types.ComparisonDetail{{
			BaseRegion: "Sonora", ComparedRegion: "Chihuahua", Precipitation: "380 mm",
			Temperature: "21°C", ClimateUnit: "BSo(h')", SoilType: "Calcisol",
			Landform: "Llanura", OverallScore: 85, SharedCategories: []string{"Maíz", "Trigo"},
		}},
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out.xlsx", FormatXLSX, false},
		{"OUT.XLSX", FormatXLSX, false},
		{"dir/report.json", FormatJSON, false},
		{"report.yaml", FormatYAML, false},
		{"report.yml", FormatYAML, false},
		{"report.csv", "", true},
		{"report", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFor(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "guaymas.xlsx")
	require.NoError(t, WriteFile(path, sampleReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSimilar, SheetCandidates, SheetProfile, SheetDetails}, f.GetSheetList())

	rows, err := f.GetRows(SheetSimilar)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Rank", "CVEGEO", "Estado", "Municipio", "Similitud"}, rows[0])
	assert.Equal(t, []string{"1", "0009", "Sonora", "Hermosillo", "89"}, rows[1])
	assert.Equal(t, []string{"2", "0010", "Chihuahua", "Aldama", "85.5"}, rows[2])

	rows, err = f.GetRows(SheetCandidates)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Avena", "96", "Muy Alto"}, rows[1])
	assert.Equal(t, []string{"Fresa", "40", "Bajo"}, rows[2])

	municipio, err := f.GetCellValue(SheetProfile, "B4")
	require.NoError(t, err)
	assert.Equal(t, "Guaymas", municipio)
	tags, err := f.GetCellValue(SheetProfile, "B5")
	require.NoError(t, err)
	assert.Equal(t, "Maíz, Trigo", tags)

	rows, err = f.GetRows(SheetDetails)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Calcisol", rows[1][5])
	assert.Equal(t, "Maíz, Trigo", rows[1][8])
}

func TestXLSXWithoutDetailsOmitsSheet(t *testing.T) {
	r := sampleReport()
	r.Details = nil
	f, err := Workbook(r)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetSimilar, SheetCandidates, SheetProfile}, f.GetSheetList())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleReport()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "26030", got["unit_id"])
	assert.Equal(t, true, got["degraded"])

	result := got["result"].(map[string]any)
	candidates := result["cultivos_potenciales"].([]any)
	assert.Equal(t, "Muy Alto", candidates[0].(map[string]any)["indice"])
	assert.Len(t, got["details"], 1)
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, WriteFile(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got struct {
		UnitID string `yaml:"unit_id"`
		Result struct {
			Candidates []struct {
				Label string `yaml:"cultivo"`
				Tier  string `yaml:"indice"`
			} `yaml:"cultivos_potenciales"`
		} `yaml:"result"`
	}
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "26030", got.UnitID)
	require.Len(t, got.Result.Candidates, 2)
	assert.Equal(t, "Bajo", got.Result.Candidates[1].Tier)
}

func TestWriteFileRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	err := WriteFile(path, sampleReport())
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file is created for an unknown format")
}
