//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package traffic

import (
	"math"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name      string
		profile   string
		timezone  string
		want      string
		wantError bool
	}{
		{"default", "", "", DefaultProfile, false},
		{"steady", "steady", "UTC", "steady", false},
		{"airport cafe", "airport-cafe", "America/Los_Angeles", "airport-cafe", false},
		{"multi airport", "multi-airport", "Local", "multi-airport", false},
		{"invalid profile", "rush-hour", "UTC", "", true},
		{"invalid timezone", "airport-cafe", "Mars/Olympus", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := Get(tt.profile, tt.timezone)
			if tt.wantError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if profile.Name() != tt.want {
				t.Errorf("Expected profile %s, got %s", tt.want, profile.Name())
			}
		})
	}
}

func TestList(t *testing.T) {
	names := List()
	expected := []string{"airport-cafe", "multi-airport", "steady"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %d profiles, got %d", len(expected), len(names))
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("Expected profile %d to be %s, got %s", i, name, names[i])
		}
	}
}

func TestSteadyProfile(t *testing.T) {
	p, _ := Get("steady", "UTC")
	for hour := 0; hour < 24; hour++ {
		ts := time.Date(2025, 10, 18, hour, 0, 0, 0, time.UTC)
		if level := p.ActivityLevel(ts); level != 1.0 {
			t.Errorf("Hour %d: expected 1.0, got %v", hour, level)
		}
	}
}

func TestAirportCafeProfile(t *testing.T) {
	p, err := Get("airport-cafe", "UTC")
	if err != nil {
		t.Fatalf("Failed to get profile: %v", err)
	}

	// Wednesday
	day := func(hour, minute int) time.Time {
		return time.Date(2025, 10, 15, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		t    time.Time
		want float64
	}{
		{"overnight", day(2, 0), 0.05},
		{"early flights start", day(4, 0), 0.20},
		{"early flights midway", day(5, 0), 0.60},
		{"morning rush", day(7, 30), 1.0},
		{"late morning", day(10, 0), 0.70},
		{"lunch", day(12, 0), 0.80},
		{"afternoon", day(15, 0), 0.50},
		{"evening departures", day(18, 0), 0.60},
		{"late flights end", day(22, 59), 0.60 - 0.50*(59.0/60.0+2.0)/3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ActivityLevel(tt.t)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	saturday := time.Date(2025, 10, 18, 7, 0, 0, 0, time.UTC)
	if got := p.ActivityLevel(saturday); math.Abs(got-0.90) > 1e-9 {
		t.Errorf("Expected weekend rush of 0.90, got %v", got)
	}
}

func TestAirportCafeUsesLocalTime(t *testing.T) {
	p, err := Get("airport-cafe", "America/New_York")
	if err != nil {
		t.Fatalf("Failed to get profile: %v", err)
	}
	// 11:30 UTC is 07:30 in New York during daylight saving time.
	ts := time.Date(2025, 10, 15, 11, 30, 0, 0, time.UTC)
	if got := p.ActivityLevel(ts); got != 1.0 {
		t.Errorf("Expected morning rush in New York, got %v", got)
	}
}

func TestMultiAirportProfile(t *testing.T) {
	p, _ := Get("multi-airport", "UTC")

	tests := []struct {
		hour int
		want float64
	}{
		{3, 0.15},
		{9, 0.15 + 0.85*0.6},
		{11, 1.0},
		{12, 1.0},
		{14, 1.0},
		{16, 0.15 + 0.85*0.6},
		{17, 0.15 + 0.85*0.3},
		{20, 0.15},
	}

	for _, tt := range tests {
		ts := time.Date(2025, 10, 15, tt.hour, 0, 0, 0, time.UTC)
		got := p.ActivityLevel(ts)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Hour %d: expected %v, got %v", tt.hour, tt.want, got)
		}
	}
}

func TestRushContributionWraparound(t *testing.T) {
	tests := []struct {
		hour int
		want float64
	}{
		{22, 1.0},
		{1, 1.0},
		{21, 0.6},
		{2, 0.6},
		{20, 0.3},
		{3, 0.3},
		{12, 0.0},
	}
	for _, tt := range tests {
		if got := rushContribution(tt.hour, 22, 2); got != tt.want {
			t.Errorf("Hour %d: expected %v, got %v", tt.hour, tt.want, got)
		}
	}
}

func TestScale(t *testing.T) {
	base := 3 * time.Second
	tests := []struct {
		name  string
		level float64
		want  time.Duration
	}{
		{"peak", 1.0, base},
		{"above peak", 1.2, base},
		{"half", 0.5, 6 * time.Second},
		{"quiet", 0.0, time.Minute},
		{"negative", -1, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Scale(base, tt.level); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
