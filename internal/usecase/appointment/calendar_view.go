package appointment

import (
	"context"
	"time"

	domain "github.com/TailwagServices/clinic-scheduler/internal/domain/appointment"
	"github.com/TailwagServices/clinic-scheduler/internal/dto"
	"github.com/TailwagServices/clinic-scheduler/internal/httperr"
	"github.com/TailwagServices/clinic-scheduler/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type CalendarViewInput struct {
	OrganizationID uint

	FromDate string
	ToDate   string

	// Optional; defaults to the organization's opening hours.
	HourFrom *int
	HourTo   *int

	ServiceID *uint
}

// ======================================================
// USE CASE
// ======================================================

type CalendarView struct {
	repo domain.Repository
}

func NewCalendarView(repo domain.Repository) *CalendarView {
	return &CalendarView{repo: repo}
}

func (uc *CalendarView) Execute(
	ctx context.Context,
	in CalendarViewInput,
) (*dto.CalendarDTO, error) {

	org, err := uc.repo.GetOrganizationByID(ctx, in.OrganizationID)
	if err != nil {
		return nil, err
	}

	start, endExcl, err := parseDayRange(org.Timezone, in.FromDate, in.ToDate)
	if err != nil {
		return nil, err
	}

	window := defaultHourWindow(org.OpenTime, org.CloseTime)
	if in.HourFrom != nil {
		window.From = *in.HourFrom
	}
	if in.HourTo != nil {
		window.To = *in.HourTo
	}
	if !window.Valid() {
		return nil, httperr.ErrBusinessMsg(
			httperr.CodeValidation, "invalid hour window",
		)
	}

	appointments, err := uc.repo.ListForRange(
		ctx,
		in.OrganizationID,
		start,
		endExcl,
		in.ServiceID,
	)
	if err != nil {
		return nil, err
	}

	// The driver hands timestamps back in the session's location; cell
	// keys must follow the organization's clock.
	loc := timezone.Location(org.Timezone)
	for i := range appointments {
		appointments[i].ScheduledAt = appointments[i].ScheduledAt.In(loc)
	}

	grid := domain.ProjectCalendar(appointments, start, endExcl, window, in.ServiceID)

	return renderGrid(grid, start, endExcl, window, in.FromDate, in.ToDate), nil
}

// defaultHourWindow derives the hour rows from the opening window;
// the close hour itself is excluded since no slot starts at close.
func defaultHourWindow(openTime, closeTime string) domain.HourWindow {
	window := domain.HourWindow{From: 0, To: 23}

	if openAt, err := time.Parse("15:04", openTime); err == nil {
		window.From = openAt.Hour()
	}
	if closeAt, err := time.Parse("15:04", closeTime); err == nil {
		window.To = closeAt.Hour()
		if closeAt.Minute() == 0 && window.To > window.From {
			window.To--
		}
	}

	return window
}

// renderGrid walks every day and hour row so empty cells render as
// explicit nulls; the grid itself only stores occupied cells.
func renderGrid(
	grid domain.Grid,
	start time.Time,
	endExcl time.Time,
	window domain.HourWindow,
	fromDate string,
	toDate string,
) *dto.CalendarDTO {

	out := &dto.CalendarDTO{
		From:     fromDate,
		To:       toDate,
		HourFrom: window.From,
		HourTo:   window.To,
	}

	for day := start; day.Before(endExcl); day = day.AddDate(0, 0, 1) {
		key := day.Format(domain.DayKeyLayout)

		dayDTO := dto.CalendarDayDTO{
			Date:  key,
			Hours: make([]dto.CalendarCellDTO, 0, window.To-window.From+1),
		}

		for hour := window.From; hour <= window.To; hour++ {
			cell := dto.CalendarCellDTO{Hour: hour}

			for minute := 0; minute < 60; minute += domain.SlotMinutes {
				slot := dto.CalendarSlotDTO{Minute: minute}

				if ap, ok := grid[key][hour][minute]; ok {
					slot.Appointment = &dto.AppointmentListDTO{
						ID:          ap.ID,
						ScheduledAt: ap.ScheduledAt,
						Status:      ap.Status,
						ServiceID:   ap.ServiceID,
						ServiceName: ap.Service.Name,
						RequesterID: ap.RequesterID,
						Description: ap.Description,
					}
				}

				cell.Slots = append(cell.Slots, slot)
			}

			dayDTO.Hours = append(dayDTO.Hours, cell)
		}

		out.Days = append(out.Days, dayDTO)
	}

	return out
}
