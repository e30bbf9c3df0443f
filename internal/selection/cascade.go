// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selection maintains the two-level state → municipality cascade.
// The child list is always the subset of the loaded catalog whose parent
// equals the current parent selection, in catalog order. Parent names are
// NFC-normalized when the catalog is loaded, so names from Parents compare
// equal to every unit they group.
package selection

import (
	"context"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/agroscope/internal/dataaccess"
	"github.com/pdiddy/agroscope/pkg/types"
)

// UnitSource loads the unit catalog. *dataaccess.Client satisfies it.
type UnitSource interface {
	FetchUnits(ctx context.Context) dataaccess.Outcome[[]types.AddressableUnit]
}

// Snapshot is a read-only copy of the cascade state.
type Snapshot struct {
	Parents  []string
	Parent   string
	Children []types.AddressableUnit
	Child    string
	// Degraded is set when the catalog came from the fallback dataset.
	Degraded bool
}

// Cascade holds the catalog, the parent selection, and the derived children.
type Cascade struct {
	src UnitSource

	mu       sync.Mutex
	catalog  []types.AddressableUnit
	degraded bool
	parent   string
	child    string
	children []types.AddressableUnit
}

// New returns an empty cascade backed by src.
func New(src UnitSource) *Cascade {
	return &Cascade{src: src}
}

// Load fetches the catalog and stores it whatever the outcome kind: fallback
// data is valid data here, and an error leaves an empty catalog. Children are
// recomputed for the current parent and a child that disappeared is cleared.
// The returned outcome carries the units as received.
func (c *Cascade) Load(ctx context.Context) dataaccess.Outcome[[]types.AddressableUnit] {
	out := c.src.FetchUnits(ctx)

	var units []types.AddressableUnit
	if out.HasValue() {
		units = normalizeParents(out.Value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = units
	c.degraded = out.Degraded()
	c.recomputeLocked()
	if c.child != "" && !containsID(c.children, c.child) {
		c.child = ""
	}
	return out
}

// SetParent selects a parent, clears the child, and recomputes children.
// An empty name deselects and leaves no children.
func (c *Cascade) SetParent(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parent = name
	c.child = ""
	c.recomputeLocked()
}

// SetChild selects unitID if it is one of the current children. Anything
// else is a stale UI event and is ignored; the return value reports whether
// the selection was applied.
func (c *Cascade) SetChild(unitID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if unitID == "" || !containsID(c.children, unitID) {
		return false
	}
	c.child = unitID
	return true
}

// Parents returns the distinct parent names in first-appearance order.
func (c *Cascade) Parents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return parentsOf(c.catalog)
}

// Parent returns the current parent selection.
func (c *Cascade) Parent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parent
}

// Children returns a copy of the current child list.
func (c *Cascade) Children() []types.AddressableUnit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.AddressableUnit{}, c.children...)
}

// Child returns the selected unit, if any.
func (c *Cascade) Child() (types.AddressableUnit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.children {
		if u.ID == c.child {
			return u, true
		}
	}
	return types.AddressableUnit{}, false
}

// Catalog returns a copy of the loaded catalog.
func (c *Cascade) Catalog() []types.AddressableUnit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.AddressableUnit{}, c.catalog...)
}

// Snapshot returns the full cascade state.
func (c *Cascade) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Parents:  parentsOf(c.catalog),
		Parent:   c.parent,
		Children: append([]types.AddressableUnit{}, c.children...),
		Child:    c.child,
		Degraded: c.degraded,
	}
}

func (c *Cascade) recomputeLocked() {
	c.children = FilterChildren(c.catalog, c.parent)
}

// FilterChildren returns the units of catalog whose parent equals parent,
// preserving catalog order. An empty parent yields no children.
func FilterChildren(catalog []types.AddressableUnit, parent string) []types.AddressableUnit {
	children := []types.AddressableUnit{}
	if parent == "" {
		return children
	}
	for _, u := range catalog {
		if u.ParentName == parent {
			children = append(children, u)
		}
	}
	return children
}

// normalizeParents copies units with every parent name in NFC, so a state
// spelled with composed and decomposed accents groups as one.
func normalizeParents(units []types.AddressableUnit) []types.AddressableUnit {
	out := make([]types.AddressableUnit, len(units))
	for i, u := range units {
		u.ParentName = norm.NFC.String(u.ParentName)
		out[i] = u
	}
	return out
}

func parentsOf(catalog []types.AddressableUnit) []string {
	seen := make(map[string]struct{})
	parents := []string{}
	for _, u := range catalog {
		if _, ok := seen[u.ParentName]; ok {
			continue
		}
		seen[u.ParentName] = struct{}{}
		parents = append(parents, u.ParentName)
	}
	return parents
}

func containsID(units []types.AddressableUnit, id string) bool {
	for _, u := range units {
		if u.ID == id {
			return true
		}
	}
	return false
}
