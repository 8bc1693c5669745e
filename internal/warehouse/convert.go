package warehouse

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Converter turns raw CSV text into a value for the JSON batch.
// A nil result is written as JSON null.
type Converter func(raw string) (any, error)

// Output layouts.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05.000"
	TimeLayout     = "15:04:05.000"
)

var dateTimeInputs = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	DateLayout,
	"1/2/2006 15:04:05",
	"1/2/2006",
}

var timeInputs = []string{
	"15:04:05",
	"15:04",
}

// ToInt parses a 32-bit integer.
func ToInt(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid int %q", raw)
	}
	return int(v), nil
}

// ToLong parses a 64-bit integer.
func ToLong(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid bigint %q", raw)
	}
	return v, nil
}

// ToDecimal parses an exact decimal and writes it as a JSON number.
func ToDecimal(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q", raw)
	}
	return json.Number(d.String()), nil
}

// ToBool accepts 0/1 and true/false in any case.
func ToBool(raw string) (any, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return nil, nil
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return nil, fmt.Errorf("invalid bool %q", raw)
}

// ToDate parses a calendar date, dropping any time of day.
func ToDate(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	t, err := parseDateTime(s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", raw)
	}
	return t.Format(DateLayout), nil
}

// ToDateTime parses a timestamp, normalizes it to UTC and formats it with
// millisecond precision. Values without a zone are taken as UTC.
func ToDateTime(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	t, err := parseDateTime(s)
	if err != nil {
		return nil, fmt.Errorf("invalid datetime %q", raw)
	}
	return t.UTC().Format(DateTimeLayout), nil
}

// ToTime parses a time of day (H:MM:SS or HH:MM:SS, optional fraction).
func ToTime(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timeInputs {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimeLayout), nil
		}
	}
	return nil, fmt.Errorf("invalid time %q", raw)
}

// ToNull ignores the input. Used for columns the CSV does not provide.
func ToNull(string) (any, error) {
	return nil, nil
}

// normalizeDefault is applied when a column has no converter.
func normalizeDefault(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return s
}

func parseDateTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateTimeInputs {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
