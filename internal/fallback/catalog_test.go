// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fallback

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogParses(t *testing.T) {
	c, err := Parse(embeddedCatalog)
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", c.Version())
	assert.Contains(t, c.Keys(), "similar")
	for _, k := range []string{"statistics", "crops", "crop-producers", "crop-lowest-producers", "annual-production", "drought-history", "top-producers"} {
		assert.Contains(t, c.Keys(), k)
	}
	assert.Contains(t, c.Keys(), "municipios")
	assert.Contains(t, c.Keys(), "comparison-detail")
}

func TestLookupMatching(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		resource string
		wantKey  string // a JSON field expected in the payload
		wantOK   bool
	}{
		{"exact logical name", "similar-result", "municipios_mas_similares", true},
		{"path containing key", "/similar-municipios/20001", "municipios_mas_similares", true},
		{"units by path", "/municipios", "cvegeo", true},
		{"detail by path", "/detalles-comparacion/0009", "estado_base", true},
		{"case insensitive", "SIMILAR-RESULT", "municipios_mas_similares", true},
		{"production by path", "/municipio/0001/produccion_anual", "produccion", true},
		{"drought by path", "/municipio/0001/sequia", "valor", true},
		{"top producers by path", "/top10_productores", "produccion_ton", true},
		{"unregistered", "/clima/20001", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Lookup(tt.resource, nil)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Contains(t, string(got), tt.wantKey)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestLookupLongestKeyWins(t *testing.T) {
	c, err := Parse([]byte(`
version: 1.0.0
entries:
  - name: short
    keys: [mun]
    payload: {which: short}
  - name: long
    keys: [municipios]
    payload: {which: long}
`))
	require.NoError(t, err)

	got, ok := c.Lookup("/api/municipios/all", nil)
	require.True(t, ok)
	assert.JSONEq(t, `{"which":"long"}`, string(got))

	got, ok = c.Lookup("/api/mun", nil)
	require.True(t, ok)
	assert.JSONEq(t, `{"which":"short"}`, string(got))
}

func TestLookupByID(t *testing.T) {
	c := Default()

	var def, variant, unknown struct {
		ComparedRegion string `json:"estado_similar"`
	}

	raw, ok := c.Lookup("comparison-detail", nil)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal(raw, &def))
	assert.Equal(t, "Baja California", def.ComparedRegion)

	raw, ok = c.Lookup("comparison-detail", map[string]string{IDParam: "0010"})
	require.True(t, ok)
	require.NoError(t, json.Unmarshal(raw, &variant))
	assert.Equal(t, "Chihuahua", variant.ComparedRegion)

	raw, ok = c.Lookup("comparison-detail", map[string]string{IDParam: "9999"})
	require.True(t, ok)
	require.NoError(t, json.Unmarshal(raw, &unknown))
	assert.Equal(t, def, unknown)
}

func TestLookupDeterministicCopies(t *testing.T) {
	c := Default()

	first, ok := c.Lookup("similar-result", nil)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		got, ok := c.Lookup("similar-result", nil)
		require.True(t, ok)
		assert.Equal(t, first, got)
	}

	// Mutating a returned payload must not leak into later lookups.
	first[0] = 'X'
	again, _ := c.Lookup("similar-result", nil)
	assert.Equal(t, byte('{'), again[0])
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	got, ok := c.Lookup("similar", nil)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Empty(t, c.Keys())
	assert.Empty(t, c.Version())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "version: [\n"},
		{"bad version", "version: latest\nentries: []\n"},
		{"no keys", "version: 1.0.0\nentries:\n  - name: a\n    payload: {}\n"},
		{"no payload", "version: 1.0.0\nentries:\n  - name: a\n    keys: [a]\n"},
		{"duplicate key", "version: 1.0.0\nentries:\n  - name: a\n    keys: [x]\n    payload: 1\n  - name: b\n    keys: [x]\n    payload: 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileVersionCheck(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("version: 1.9.0\nentries:\n  - name: u\n    keys: [units]\n    payload: []\n"), 0o644))
	c, err := LoadFile(good)
	require.NoError(t, err)
	assert.Equal(t, "1.9.0", c.Version())
	got, ok := c.Lookup("units", nil)
	require.True(t, ok)
	assert.JSONEq(t, `[]`, string(got))

	stale := filepath.Join(dir, "stale.yaml")
	require.NoError(t, os.WriteFile(stale, []byte("version: 2.0.0\nentries: []\n"), 0o644))
	_, err = LoadFile(stale)
	assert.ErrorIs(t, err, ErrVersionMismatch)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
