package traffic

import (
	"math"
	"time"
)

// Steady keeps activity constant around the clock.
type Steady struct{}

// NewSteady creates a Steady profile. The timezone is ignored.
func NewSteady(_ *time.Location) Profile {
	return Steady{}
}

func (Steady) Name() string {
	return DefaultProfile
}

func (Steady) Description() string {
	return "Constant rate (configured interval)"
}

func (Steady) ActivityLevel(time.Time) float64 {
	return 1.0
}

// AirportCafe follows a single airport coffee shop in its local time.
// Early flights: 4AM - 6AM (ramp from 20% to 100%)
// Morning rush: 6AM - 9AM (100%)
// Late morning: 9AM - 11AM (70%)
// Lunch: 11AM - 2PM (80%)
// Afternoon: 2PM - 5PM (50%)
// Evening departures: 5PM - 8PM (60%)
// Late flights: 8PM - 11PM (ramp down to 10%)
// Overnight: 11PM - 4AM (5%)
// Weekend: 90% of weekday, fewer business travellers
type AirportCafe struct {
	tz *time.Location
}

// NewAirportCafe creates a new AirportCafe profile.
func NewAirportCafe(tz *time.Location) Profile {
	return &AirportCafe{tz: tz}
}

func (p *AirportCafe) Name() string {
	return "airport-cafe"
}

func (p *AirportCafe) Description() string {
	return "Single airport cafe (morning rush, local time)"
}

func (p *AirportCafe) ActivityLevel(t time.Time) float64 {
	t = t.In(p.tz)
	hour := t.Hour()
	decimalHour := float64(hour) + float64(t.Minute())/60.0

	var base float64
	switch {
	case hour >= 4 && hour < 6:
		base = 0.20 + 0.80*(decimalHour-4.0)/2.0
	case hour >= 6 && hour < 9:
		base = 1.0
	case hour >= 9 && hour < 11:
		base = 0.70
	case hour >= 11 && hour < 14:
		base = 0.80
	case hour >= 14 && hour < 17:
		base = 0.50
	case hour >= 17 && hour < 20:
		base = 0.60
	case hour >= 20 && hour < 23:
		base = 0.60 - 0.50*(decimalHour-20.0)/3.0
	default:
		base = 0.05
	}

	if isWeekend(t) {
		base *= 0.90
	}
	return base
}

// MultiAirport combines the morning rush of shops on both US coasts.
// East coast rush: 6AM - 9AM ET = 10:00 - 13:00 UTC
// West coast rush: 6AM - 9AM PT = 13:00 - 16:00 UTC
// Minimum activity: 15% (red-eye arrivals)
// Weekend: 90% of weekday
type MultiAirport struct {
	tz *time.Location
}

// NewMultiAirport creates a new MultiAirport profile. Peaks are fixed in
// UTC; the timezone is kept for symmetry with the other profiles.
func NewMultiAirport(tz *time.Location) Profile {
	return &MultiAirport{tz: tz}
}

func (p *MultiAirport) Name() string {
	return "multi-airport"
}

func (p *MultiAirport) Description() string {
	return "Shops across US airports (rolling coast-to-coast rush)"
}

func (p *MultiAirport) ActivityLevel(t time.Time) float64 {
	utc := t.UTC()
	hour := utc.Hour()

	east := rushContribution(hour, 10, 13)
	west := rushContribution(hour, 13, 16)
	combined := math.Max(east, west)

	activity := 0.15 + 0.85*combined
	if isWeekend(utc) {
		activity *= 0.90
	}
	return activity
}

// rushContribution returns a value between 0 and 1 for a rush window,
// with a two-hour ramp on each side.
func rushContribution(hour, start, end int) float64 {
	if start > end {
		if hour >= start || hour < end {
			return 1.0
		}
	} else if hour >= start && hour < end {
		return 1.0
	}

	switch hour {
	case (start + 23) % 24, end % 24:
		return 0.6
	case (start + 22) % 24, (end + 1) % 24:
		return 0.3
	}
	return 0.0
}
