package service

import (
	"fmt"
	"sort"
	"time"

	"go-booking-agent/modules/calendar/dto"
)

type busyPeriod struct {
	start, end time.Time
	slot       dto.TimeSlot
}

// mergeBusySlots sorts busy periods by start and merges overlapping or
// touching ones. Each merged slot keeps the text of the periods it came from.
func mergeBusySlots(slots []dto.TimeSlot) ([]dto.TimeSlot, error) {
	if len(slots) == 0 {
		return []dto.TimeSlot{}, nil
	}

	periods := make([]busyPeriod, 0, len(slots))
	for _, s := range slots {
		start, err := time.Parse(time.RFC3339, s.Start)
		if err != nil {
			return nil, fmt.Errorf("busy start %q: %w", s.Start, err)
		}
		end, err := time.Parse(time.RFC3339, s.End)
		if err != nil {
			return nil, fmt.Errorf("busy end %q: %w", s.End, err)
		}
		periods = append(periods, busyPeriod{start: start, end: end, slot: s})
	}

	sort.Slice(periods, func(i, j int) bool {
		return periods[i].start.Before(periods[j].start)
	})

	merged := []busyPeriod{periods[0]}
	for _, current := range periods[1:] {
		last := &merged[len(merged)-1]
		if current.start.After(last.end) {
			merged = append(merged, current)
			continue
		}
		if current.end.After(last.end) {
			last.end = current.end
			last.slot.End = current.slot.End
		}
	}

	out := make([]dto.TimeSlot, len(merged))
	for i, p := range merged {
		out[i] = p.slot
	}
	return out, nil
}
