package invoice

import (
	"fmt"
	"time"
)

// Frequency enumerates recurring invoice schedules.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// ParseFrequency validates a raw frequency string.
func ParseFrequency(v string) (Frequency, error) {
	switch f := Frequency(v); f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return f, nil
	default:
		return "", fmt.Errorf("invoice: unknown frequency %q", v)
	}
}

// Next returns the run following t for this frequency.
func (f Frequency) Next(t time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	case FrequencyYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t
	}
}

// RecurringProfile is a stored invoice template the worker materializes
// on schedule. The customer and items stay in raw form so each run goes
// through the same validation and numbering path as a manual creation.
type RecurringProfile struct {
	ID        int64
	Name      string
	Customer  RawCustomer
	Items     []RawLineItem
	Notes     string
	Frequency Frequency
	NextRunAt time.Time
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
