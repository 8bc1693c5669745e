//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package traffic implements time-of-day traffic profiles that shape how
// often the POS streamer emits transactions.
package traffic

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// MinLevel is the lowest activity level used when stretching an interval,
// so a quiet hour slows the stream down instead of stopping it.
const MinLevel = 0.05

// DefaultProfile keeps the configured interval unchanged.
const DefaultProfile = "steady"

// Profile reports how busy the shops are at a point in time.
type Profile interface {
	// Name returns the profile name.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// ActivityLevel returns the relative activity at t (0.0 to 1.0+).
	// 1.0 is a normal peak; weekend crowds can push it higher.
	ActivityLevel(t time.Time) float64
}

var registry = make(map[string]func(tz *time.Location) Profile)

// Register adds a profile constructor to the registry.
func Register(name string, constructor func(tz *time.Location) Profile) {
	registry[name] = constructor
}

// Get retrieves a profile by name with the specified timezone. An empty
// name selects the steady profile.
func Get(name, timezone string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	constructor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown traffic profile: %s", name)
	}

	loc := time.Local
	if timezone != "" && timezone != "Local" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone: %w", err)
		}
	}

	return constructor(loc), nil
}

// List returns all registered profile names, sorted.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scale stretches base by the inverse of level. Busy periods keep the base
// interval, quiet ones wait longer, up to base/MinLevel.
func Scale(base time.Duration, level float64) time.Duration {
	if level >= 1.0 {
		return base
	}
	if level < MinLevel {
		level = MinLevel
	}
	return time.Duration(math.Round(float64(base) / level))
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func init() {
	Register(DefaultProfile, NewSteady)
	Register("airport-cafe", NewAirportCafe)
	Register("multi-airport", NewMultiAirport)
}
