// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the agroscope core:
// the addressable unit catalog, similarity results, comparison details,
// and the configuration structs consumed by the CLI and the client.
//
// JSON tags follow the backend wire contract (Spanish field names).
package types

import (
	"errors"
	"fmt"
)

// ErrInvalidPayload marks a payload that decoded but violates the data model.
var ErrInvalidPayload = errors.New("invalid payload")

// AddressableUnit is a selectable municipality with its parent state.
type AddressableUnit struct {
	// ID is the geostatistical key (CVEGEO), unique within a catalog.
	ID string `json:"cvegeo" yaml:"cvegeo"`

	// Name is the municipality name.
	Name string `json:"nomgeo" yaml:"nomgeo"`

	// ParentName is the state name used to group units in the cascade.
	ParentName string `json:"nombre_ent" yaml:"nombre_ent"`
}

// Validate reports whether the unit carries all required fields.
func (u AddressableUnit) Validate() error {
	switch {
	case u.ID == "":
		return fmt.Errorf("%w: unit has empty id", ErrInvalidPayload)
	case u.Name == "":
		return fmt.Errorf("%w: unit %s has empty name", ErrInvalidPayload, u.ID)
	case u.ParentName == "":
		return fmt.Errorf("%w: unit %s has empty parent", ErrInvalidPayload, u.ID)
	}
	return nil
}

// ValidateUnits checks every unit and rejects duplicate IDs.
func ValidateUnits(units []AddressableUnit) error {
	seen := make(map[string]struct{}, len(units))
	for _, u := range units {
		if err := u.Validate(); err != nil {
			return err
		}
		if _, dup := seen[u.ID]; dup {
			return fmt.Errorf("%w: duplicate unit id %s", ErrInvalidPayload, u.ID)
		}
		seen[u.ID] = struct{}{}
	}
	return nil
}
