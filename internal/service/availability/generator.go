package availability

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/availability-api/internal/model"
)

// BookedSet holds the start times already taken on a date.
type BookedSet map[model.ClockTime]struct{}

func NewBookedSet(starts ...model.ClockTime) BookedSet {
	set := make(BookedSet, len(starts))
	for _, s := range starts {
		set[s] = struct{}{}
	}
	return set
}

func (b BookedSet) Contains(t model.ClockTime) bool {
	_, ok := b[t]
	return ok
}

type segment struct {
	start model.ClockTime
	end   model.ClockTime
}

// segments splits the window around its lunch break. Both parts are clipped
// to the window, so a misconfigured lunch never widens the working hours.
func segments(w *model.WorkingWindow) []segment {
	if !w.HasLunch() {
		return []segment{{start: w.Start, end: w.End}}
	}

	morning := segment{start: w.Start, end: minClock(*w.LunchStart, w.End)}
	afternoon := segment{start: maxClock(*w.LunchEnd, w.Start), end: w.End}
	return []segment{morning, afternoon}
}

// GenerateSlots enumerates fixed-width slots inside the window, morning first.
// A slot is emitted only when it ends within its segment; availability is an
// exact start-time match against booked. The result depends on its arguments
// alone.
func GenerateSlots(w *model.WorkingWindow, booked BookedSet, slotDuration int, professionalID uuid.UUID) []model.AvailabilitySlot {
	slots := make([]model.AvailabilitySlot, 0)
	if w == nil || slotDuration <= 0 || slotDuration > model.MinutesPerDay {
		return slots
	}

	for _, seg := range segments(w) {
		for t := seg.start; int(seg.end)-int(t) >= slotDuration; t = t.Add(slotDuration) {
			slots = append(slots, model.AvailabilitySlot{
				Time:            t,
				Available:       !booked.Contains(t),
				ProfessionalID:  professionalID,
				DurationMinutes: slotDuration,
			})
		}
	}

	return slots
}

// CountAvailable returns how many slots are free.
func CountAvailable(slots []model.AvailabilitySlot) int {
	n := 0
	for _, s := range slots {
		if s.Available {
			n++
		}
	}
	return n
}

func minClock(a, b model.ClockTime) model.ClockTime {
	if a < b {
		return a
	}
	return b
}

func maxClock(a, b model.ClockTime) model.ClockTime {
	if a > b {
		return a
	}
	return b
}
