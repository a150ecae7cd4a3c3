package domain

import "strings"

// Priority tier of a stop. Higher tiers are visited first.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// Stop is a single resolved address to visit.
type Stop struct {
	Name     string
	Coords   Coordinates
	Priority Priority
}

func NewStop(name string, coords Coordinates, priority int) (Stop, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Stop{}, Validationf("stop name must be non-empty")
	}

	p := Priority(priority)
	if !p.Valid() {
		return Stop{}, Validationf("priority for %q must be 1, 2 or 3, got %d", name, priority)
	}

	return Stop{Name: name, Coords: coords, Priority: p}, nil
}
