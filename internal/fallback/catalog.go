// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fallback holds the static, versioned substitute datasets returned
// when the analytics backend cannot be reached. Lookup is a pure function of
// the resource name and an optional id parameter: no network, no filesystem.
package fallback

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// IDParam is the lookup parameter that selects a by_id variant.
const IDParam = "id"

// ErrVersionMismatch is returned when an override file targets a different
// major version than the embedded catalog.
var ErrVersionMismatch = errors.New("fallback catalog version mismatch")

// Catalog maps resource names to substitute JSON payloads.
type Catalog struct {
	version *semver.Version
	entries []entry
}

type entry struct {
	name    string
	keys    []string
	payload json.RawMessage
	byID    map[string]json.RawMessage
}

type document struct {
	Version string          `yaml:"version"`
	Entries []documentEntry `yaml:"entries"`
}

type documentEntry struct {
	Name    string         `yaml:"name"`
	Keys    []string       `yaml:"keys"`
	Payload any            `yaml:"payload"`
	ByID    map[string]any `yaml:"by_id"`
}

// Default returns the catalog embedded in the binary. The embedded document
// is validated by tests, so a parse failure here is a build defect.
func Default() *Catalog {
	c, err := Parse(embeddedCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded fallback catalog: %v", err))
	}
	return c
}

// Parse decodes a YAML catalog document and pre-renders every payload to JSON.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing fallback catalog: %w", err)
	}

	v, err := semver.NewVersion(doc.Version)
	if err != nil {
		return nil, fmt.Errorf("fallback catalog version %q: %w", doc.Version, err)
	}

	c := &Catalog{version: v}
	seenKeys := make(map[string]string)
	for _, de := range doc.Entries {
		if len(de.Keys) == 0 {
			return nil, fmt.Errorf("fallback entry %q has no keys", de.Name)
		}
		if de.Payload == nil {
			return nil, fmt.Errorf("fallback entry %q has no payload", de.Name)
		}
		e := entry{name: de.Name, byID: make(map[string]json.RawMessage, len(de.ByID))}
		for _, k := range de.Keys {
			k = strings.ToLower(strings.TrimSpace(k))
			if owner, dup := seenKeys[k]; dup {
				return nil, fmt.Errorf("fallback key %q registered by %q and %q", k, owner, de.Name)
			}
			seenKeys[k] = de.Name
			e.keys = append(e.keys, k)
		}
		if e.payload, err = json.Marshal(de.Payload); err != nil {
			return nil, fmt.Errorf("rendering fallback entry %q: %w", de.Name, err)
		}
		for id, p := range de.ByID {
			if e.byID[id], err = json.Marshal(p); err != nil {
				return nil, fmt.Errorf("rendering fallback entry %q id %s: %w", de.Name, id, err)
			}
		}
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// LoadFile reads an override catalog and checks that its major version
// matches the embedded one.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fallback catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	want := Default().version
	if c.version.Major() != want.Major() {
		return nil, fmt.Errorf("%w: %s has %s, need %d.x", ErrVersionMismatch, path, c.version, want.Major())
	}
	return c, nil
}

// Version returns the catalog's semantic version.
func (c *Catalog) Version() string {
	if c == nil {
		return ""
	}
	return c.version.String()
}

// Keys returns every registered key, sorted.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	var keys []string
	for _, e := range c.entries {
		keys = append(keys, e.keys...)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the substitute payload for resource. An exact key match wins;
// otherwise the longest key contained in the resource name is used, so a path
// such as "/similar-municipios/20001" resolves to the "similar" entry. When
// params carries an id with a by_id variant, that variant is returned.
// The returned slice is a fresh copy.
func (c *Catalog) Lookup(resource string, params map[string]string) (json.RawMessage, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.match(strings.ToLower(resource))
	if !ok {
		return nil, false
	}
	payload := e.payload
	if id := params[IDParam]; id != "" {
		if v, ok := e.byID[id]; ok {
			payload = v
		}
	}
	return append(json.RawMessage(nil), payload...), true
}

func (c *Catalog) match(resource string) (entry, bool) {
	var (
		best    entry
		bestLen int
	)
	for _, e := range c.entries {
		for _, k := range e.keys {
			if k == resource {
				return e, true
			}
			if len(k) > bestLen && strings.Contains(resource, k) {
				best, bestLen = e, len(k)
			}
		}
	}
	return best, bestLen > 0
}
