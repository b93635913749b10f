// Package trigger computes notification trigger windows from a fixed set of
// wall-clock times-of-day in the site time zone.
package trigger

import (
	"fmt"
	"sort"
	"time"
)

// TimeOfDay is a wall-clock time-of-day without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24-hour clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid trigger time %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid trigger time %q: out of range", s)
	}
	return t, nil
}

// String returns the "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) before(o TimeOfDay) bool {
	if t.Hour != o.Hour {
		return t.Hour < o.Hour
	}
	return t.Minute < o.Minute
}

// Info describes the trigger window around one instant.
//
// Previous < Current <= now < Next always holds. ShiftedPrevious widens the
// window's lower bound by twice the synchronizer period so that articles
// materialized just after their nominal window still fall inside it.
type Info struct {
	Previous        time.Time
	Current         time.Time
	Next            time.Time
	ShiftedPrevious time.Time
}

// Service resolves trigger Info for arbitrary instants.
type Service struct {
	zone  *time.Location
	times []TimeOfDay // sorted ascending, non-empty
	shift time.Duration
}

// NewService builds a Service from the configured trigger times.
// checkUpdatesInterval is the synchronizer period; the shifted lower bound
// is previous − 2×checkUpdatesInterval. An empty times set is a
// configuration error.
func NewService(times []TimeOfDay, zone *time.Location, checkUpdatesInterval time.Duration) (*Service, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("no trigger times configured")
	}
	if zone == nil {
		return nil, fmt.Errorf("site time zone is required")
	}
	sorted := make([]TimeOfDay, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].before(sorted[j]) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("duplicate trigger time %s", sorted[i])
		}
	}
	return &Service{zone: zone, times: sorted, shift: 2 * checkUpdatesInterval}, nil
}

// Zone returns the site time zone the service operates in.
func (s *Service) Zone() *time.Location {
	return s.zone
}

// Now returns trigger Info for the current instant in the site zone.
func (s *Service) Now() Info {
	return s.Info(time.Now().In(s.zone))
}

// Info returns the trigger window around now. At exactly a trigger instant,
// Current equals that trigger.
func (s *Service) Info(now time.Time) Info {
	now = now.In(s.zone)

	// Occurrences across four calendar days always bracket now with at
	// least one trigger on each side, even for a single configured time.
	var occ []time.Time
	for dayOff := -2; dayOff <= 1; dayOff++ {
		day := now.AddDate(0, 0, dayOff)
		for _, t := range s.times {
			occ = append(occ, time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, s.zone))
		}
	}

	cur := len(s.times) - 1 // last occurrence of the earliest day; always <= now
	for i, o := range occ {
		if !o.After(now) {
			cur = i
		}
	}

	prev := occ[cur-1]
	return Info{
		Previous:        prev,
		Current:         occ[cur],
		Next:            occ[cur+1],
		ShiftedPrevious: prev.Add(-s.shift),
	}
}
