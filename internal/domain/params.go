package domain

import "strings"

const MaxDays = 7

// Preference selects the metric minimized across candidate route sets.
type Preference string

const (
	PreferDistance Preference = "distance"
	PreferDuration Preference = "duration"
	PreferFuel     Preference = "fuel"
)

func ParsePreference(s string) (Preference, error) {
	switch p := Preference(strings.ToLower(strings.TrimSpace(s))); p {
	case PreferDistance, PreferDuration, PreferFuel:
		return p, nil
	default:
		return "", Validationf("preferences must be one of distance, duration, fuel, got %q", s)
	}
}

// PlanParams are the generation parameters stored with a route set.
// DistanceLimit is in kilometers and DurationLimit in minutes; nil means unbounded.
type PlanParams struct {
	Days               int
	DistanceLimit      *float64
	DurationLimit      *float64
	Preference         Preference
	AvoidTolls         bool
	DepotAddress       string
	SemiDepotAddresses []string
}
