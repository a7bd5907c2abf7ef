package model

import (
	"fmt"
	"sort"
)

// TimeRange is an ordinal period of a teaching day, e.g. "16:00-17:20".
type TimeRange struct {
	ID          TimeRangeID
	Description string
}

// TimeSlot is an atomic (date, time range) unit of schedulable time.
// Date uses the YYYY-MM-DD layout so lexical order is calendar order.
type TimeSlot struct {
	ID        SlotID
	Date      string
	TimeRange TimeRangeID
}

// Before reports whether s sorts before o: by date, then time range, then id.
func (s TimeSlot) Before(o TimeSlot) bool {
	if s.Date != o.Date {
		return s.Date < o.Date
	}
	if s.TimeRange != o.TimeRange {
		return s.TimeRange < o.TimeRange
	}
	return s.ID < o.ID
}

// Label renders the slot for human readable output. desc is the time range
// description; when empty the numeric time range is used.
func (s TimeSlot) Label(desc string) string {
	if desc == "" {
		desc = fmt.Sprintf("%d", s.TimeRange)
	}
	return fmt.Sprintf("%s (%s)", s.Date, desc)
}

// SortSlots orders slots in place using TimeSlot.Before.
func SortSlots(slots []TimeSlot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
}
