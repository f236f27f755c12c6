package appointment

import (
	"time"

	"github.com/TailwagServices/clinic-scheduler/internal/models"
)

// SlotMinutes is the fixed slot length; every booking occupies exactly
// one slot anchored at its scheduled time.
const SlotMinutes = 30

// AlignedToSlot reports whether t sits on a slot boundary.
func AlignedToSlot(t time.Time) bool {
	return t.Minute()%SlotMinutes == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// WithinOpeningHours checks that start falls inside the organization's
// daily [open, close) window on start's own calendar day.
func WithinOpeningHours(org *models.Organization, start time.Time) bool {
	if org.OpenTime == "" || org.CloseTime == "" {
		return false
	}

	loc := start.Location()

	parseHM := func(hm string) (time.Time, bool) {
		t, err := time.Parse("15:04", hm)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(
			start.Year(), start.Month(), start.Day(),
			t.Hour(), t.Minute(), 0, 0,
			loc,
		), true
	}

	openAt, ok := parseHM(org.OpenTime)
	if !ok {
		return false
	}
	closeAt, ok := parseHM(org.CloseTime)
	if !ok {
		return false
	}

	if start.Before(openAt) {
		return false
	}
	if !start.Before(closeAt) {
		return false
	}

	return true
}
