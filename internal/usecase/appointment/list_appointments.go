package appointment

import (
	"context"
	"time"

	domain "github.com/TailwagServices/clinic-scheduler/internal/domain/appointment"
	"github.com/TailwagServices/clinic-scheduler/internal/dto"
	"github.com/TailwagServices/clinic-scheduler/internal/httperr"
	"github.com/TailwagServices/clinic-scheduler/internal/timezone"
)

// maxQueryDays caps a single range query; a quarter covers every
// calendar view the clients render.
const maxQueryDays = 93

type ListAppointments struct {
	repo domain.Repository
}

func NewListAppointments(repo domain.Repository) *ListAppointments {
	return &ListAppointments{repo: repo}
}

func (uc *ListAppointments) Execute(
	ctx context.Context,
	organizationID uint,
	fromDate string,
	toDate string,
	serviceID *uint,
) ([]dto.AppointmentListDTO, error) {

	org, err := uc.repo.GetOrganizationByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	start, endExcl, err := parseDayRange(org.Timezone, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	appointments, err := uc.repo.ListForRange(
		ctx,
		organizationID,
		start,
		endExcl,
		serviceID,
	)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(org.Timezone)

	out := make([]dto.AppointmentListDTO, 0, len(appointments))
	for _, ap := range appointments {
		out = append(out, dto.AppointmentListDTO{
			ID:          ap.ID,
			ScheduledAt: ap.ScheduledAt.In(loc),
			Status:      ap.Status,
			ServiceID:   ap.ServiceID,
			ServiceName: ap.Service.Name,
			RequesterID: ap.RequesterID,
			Description: ap.Description,
		})
	}

	return out, nil
}

// parseDayRange turns two inclusive calendar dates into the half-open
// instant range [start of from, start of day after to) in the
// organization's location.
func parseDayRange(tz, fromDate, toDate string) (time.Time, time.Time, error) {
	loc := timezone.Location(tz)

	from, err := time.ParseInLocation(domain.DayKeyLayout, fromDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, httperr.ErrBusinessMsg(
			httperr.CodeValidation, "invalid from date",
		)
	}

	to, err := time.ParseInLocation(domain.DayKeyLayout, toDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, httperr.ErrBusinessMsg(
			httperr.CodeValidation, "invalid to date",
		)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, httperr.ErrBusinessMsg(
			httperr.CodeValidation, "to date precedes from date",
		)
	}

	endExcl := to.AddDate(0, 0, 1)
	if endExcl.Sub(from) > maxQueryDays*24*time.Hour {
		return time.Time{}, time.Time{}, httperr.ErrBusinessMsg(
			httperr.CodeValidation, "date range too large",
		)
	}

	return from, endExcl, nil
}
