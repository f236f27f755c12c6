package appointment

import (
	"time"

	"github.com/TailwagServices/clinic-scheduler/internal/models"
)

// ===============================
// Calendar Projection
// ===============================

const DayKeyLayout = "2006-01-02"

// HourWindow is the inclusive range of hour rows rendered by a calendar.
type HourWindow struct {
	From int
	To   int
}

func (w HourWindow) Valid() bool {
	return w.From >= 0 && w.To <= 23 && w.From <= w.To
}

// HourCell holds the appointments occupying one hour row, keyed by
// slot minute (0 or 30). Both half-hour slots of an hour can carry an
// active booking, so the cell keeps them apart.
type HourCell map[int]models.Appointment

// Grid maps day key ("2006-01-02") and hour of day to the cell
// occupying that row.
type Grid map[string]map[int]HourCell

// ProjectCalendar places each appointment whose scheduled time falls in
// [from, to) and inside the hour window at grid[day][hour][minute],
// optionally keeping only one service. It reads its inputs and nothing
// else; day, hour and minute come from the location the scheduled time
// carries, so callers normalize to the organization's location first.
//
// Active appointments never share a slot; among historical terminal
// records on the same slot the last one in iteration order wins.
func ProjectCalendar(
	appointments []models.Appointment,
	from time.Time,
	to time.Time,
	window HourWindow,
	serviceID *uint,
) Grid {

	grid := Grid{}

	for _, ap := range appointments {
		if serviceID != nil && ap.ServiceID != *serviceID {
			continue
		}

		at := ap.ScheduledAt
		if at.Before(from) || !at.Before(to) {
			continue
		}

		hour := at.Hour()
		if hour < window.From || hour > window.To {
			continue
		}

		day := at.Format(DayKeyLayout)
		if grid[day] == nil {
			grid[day] = map[int]HourCell{}
		}
		if grid[day][hour] == nil {
			grid[day][hour] = HourCell{}
		}
		grid[day][hour][at.Minute()] = ap
	}

	return grid
}
