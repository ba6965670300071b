// Package game implements the authoritative world model and simulation
package game

import (
	"encoding/json"
	"fmt"
	"os"
)

// PlanetSpec describes a planet as it exists at world initialization
type PlanetSpec struct {
	ID             int `json:"planetId"`
	X              int `json:"x"`
	Y              int `json:"y"`
	Size           int `json:"size"`
	Units          int `json:"units"`
	ProductionRate int `json:"productionRate"`
}

// MapSpec is the static layout a World is created from
type MapSpec struct {
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Planets []PlanetSpec `json:"planets"`
}

// DefaultMap returns the reference three-planet map
func DefaultMap() MapSpec {
	return MapSpec{
		Width:  800,
		Height: 600,
		Planets: []PlanetSpec{
			{ID: 1, X: 100, Y: 100, Size: 30, Units: 50, ProductionRate: 5},
			{ID: 2, X: 700, Y: 500, Size: 20, Units: 50, ProductionRate: 3},
			{ID: 3, X: 400, Y: 300, Size: 15, Units: 10, ProductionRate: 2},
		},
	}
}

// Validate checks that planet ids are unique and all counts are non-negative
func (m MapSpec) Validate() error {
	if len(m.Planets) == 0 {
		return fmt.Errorf("%w: no planets", ErrInvalidMap)
	}
	seen := make(map[int]bool, len(m.Planets))
	for _, p := range m.Planets {
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate planet id %d", ErrInvalidMap, p.ID)
		}
		seen[p.ID] = true
		if p.Units < 0 || p.ProductionRate < 0 || p.Size < 0 {
			return fmt.Errorf("%w: planet %d has negative values", ErrInvalidMap, p.ID)
		}
	}
	return nil
}

// LoadMapFile loads a map layout from a JSON file
func LoadMapFile(path string) (MapSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MapSpec{}, fmt.Errorf("failed to read map file: %w", err)
	}

	var spec MapSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return MapSpec{}, fmt.Errorf("failed to parse map JSON: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return MapSpec{}, err
	}
	return spec, nil
}
