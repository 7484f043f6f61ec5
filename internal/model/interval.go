package model

import (
	"fmt"
	"time"
)

// OvernightPolicy how an end time earlier than the start time is treated
type OvernightPolicy string

const (
	OvernightReject OvernightPolicy = "reject" // manual input rejected, lifecycle close split at midnight
	OvernightWrap   OvernightPolicy = "wrap"   // end is taken to be on the following day
)

// ParseOvernightPolicy unknown values fall back to reject
func ParseOvernightPolicy(s string) OvernightPolicy {
	if OvernightPolicy(s) == OvernightWrap {
		return OvernightWrap
	}
	return OvernightReject
}

// Interval a span of tracked time on a single day
type Interval struct {
	ID        int64      `json:"id"`
	CounterID int64      `json:"counter_id"`
	UserID    int64      `json:"user_id"`
	Day       Date       `json:"day"`
	StartTime *TimeOfDay `json:"start_time"`
	EndTime   *TimeOfDay `json:"end_time"`
	Duration  *Duration  `json:"duration"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsActive open intervals have no end time
func (i *Interval) IsActive() bool {
	return i.EndTime == nil
}

// IsFinished both bounds are recorded
func (i *Interval) IsFinished() bool {
	return i.StartTime != nil && i.EndTime != nil
}

// DurationOrZero finished duration, zero for open intervals
func (i *Interval) DurationOrZero() Duration {
	if i.Duration == nil {
		return 0
	}
	return *i.Duration
}

// Recompute derives Duration from the bounds under policy
func (i *Interval) Recompute(policy OvernightPolicy) error {
	if i.StartTime == nil || i.EndTime == nil {
		i.Duration = nil
		return nil
	}
	d, err := ComputeDuration(*i.StartTime, *i.EndTime, policy)
	if err != nil {
		return err
	}
	i.Duration = &d
	return nil
}

// ComputeDuration end minus start. An earlier end is a validation error under reject
// and a next-day end under wrap.
func ComputeDuration(start, end TimeOfDay, policy OvernightPolicy) (Duration, error) {
	if !start.Valid() {
		return 0, NewFieldError("start_time", fmt.Sprintf("time of day out of range: %d", int(start)))
	}
	if !end.Valid() {
		return 0, NewFieldError("end_time", fmt.Sprintf("time of day out of range: %d", int(end)))
	}
	diff := int64(end) - int64(start)
	if diff < 0 {
		if policy != OvernightWrap {
			return 0, NewFieldError("end_time", "end time must not be earlier than start time")
		}
		diff += SecondsPerDay
	}
	return DurationOfSeconds(diff), nil
}

// Slice one day's portion of a closed interval
type Slice struct {
	Day   Date
	Start TimeOfDay
	End   TimeOfDay
	// ToMidnight the slice was cut at midnight; End holds EndOfDay but the
	// span runs through 24:00:00
	ToMidnight bool
}

// Duration length of the slice; a midnight cut counts the final second of the day
func (s Slice) Duration(policy OvernightPolicy) (Duration, error) {
	if s.ToMidnight {
		return DurationOfSeconds(int64(SecondsPerDay - s.Start)), nil
	}
	return ComputeDuration(s.Start, s.End, policy)
}

// SplitClose cuts an open interval that started at startDay/start and is closed at
// closeDay/end into per-day slices. The first slice always keeps startDay.
// Under wrap a single slice on closeDay is returned, matching a next-day end.
// A clock that moved backwards yields a zero length slice.
func SplitClose(startDay Date, start TimeOfDay, closeDay Date, end TimeOfDay, policy OvernightPolicy) []Slice {
	if policy == OvernightWrap {
		return []Slice{{Day: closeDay, Start: start, End: end}}
	}
	if !closeDay.After(startDay) {
		if end < start || closeDay.Before(startDay) {
			end = start
		}
		return []Slice{{Day: startDay, Start: start, End: end}}
	}

	slices := []Slice{{Day: startDay, Start: start, End: EndOfDay, ToMidnight: true}}
	for d := startDay.AddDays(1); d.Before(closeDay); d = d.AddDays(1) {
		slices = append(slices, Slice{Day: d, Start: 0, End: EndOfDay, ToMidnight: true})
	}
	return append(slices, Slice{Day: closeDay, Start: 0, End: end})
}

// CreateIntervalRequest manual interval entry
type CreateIntervalRequest struct {
	Day       *Date      `json:"day,omitempty"`
	StartTime *TimeOfDay `json:"start_time"`
	EndTime   *TimeOfDay `json:"end_time"`
}

// UpdateIntervalRequest partial interval edit; nil fields are left untouched
type UpdateIntervalRequest struct {
	Day       *Date      `json:"day,omitempty"`
	StartTime *TimeOfDay `json:"start_time,omitempty"`
	EndTime   *TimeOfDay `json:"end_time,omitempty"`
}
