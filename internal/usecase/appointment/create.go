package appointment

import (
	"context"
	"time"

	"github.com/TailwagServices/clinic-scheduler/internal/audit"
	domain "github.com/TailwagServices/clinic-scheduler/internal/domain/appointment"
	"github.com/TailwagServices/clinic-scheduler/internal/httperr"
	"github.com/TailwagServices/clinic-scheduler/internal/idempotency"
	"github.com/TailwagServices/clinic-scheduler/internal/models"
	"github.com/TailwagServices/clinic-scheduler/internal/notify"
	"github.com/TailwagServices/clinic-scheduler/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	OrganizationID uint
	ServiceID      uint
	RequesterID    uint

	Date string
	Time string

	Description string

	// Optional client-supplied retry key.
	IdempotencyKey string
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	repo   domain.Repository
	audit  Auditor
	notify Notifier
	idem   *idempotency.Store

	clock func() time.Time
}

func NewCreateAppointment(
	repo domain.Repository,
	auditor Auditor,
	notifier Notifier,
	idem *idempotency.Store,
) *CreateAppointment {
	return &CreateAppointment{
		repo:   repo,
		audit:  auditor,
		notify: notifier,
		idem:   idem,
		clock:  time.Now,
	}
}

// ======================================================
// EXECUTE
// ======================================================

// Execute books a slot. The returned bool is true when an idempotency
// key replay resolved to an appointment created by an earlier call.
func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (*models.Appointment, bool, error) {

	org, err := uc.repo.GetOrganizationByID(ctx, in.OrganizationID)
	if err != nil {
		return nil, false, err
	}

	loc := timezone.Location(org.Timezone)

	start, err := time.ParseInLocation(
		"2006-01-02 15:04",
		in.Date+" "+in.Time,
		loc,
	)
	if err != nil {
		return nil, false, httperr.ErrBusinessMsg(
			httperr.CodeValidation, "invalid date or time",
		)
	}

	if !domain.AlignedToSlot(start) {
		return nil, false, httperr.ErrBusinessMsg(
			httperr.CodeValidation, "time must start on a 30-minute slot boundary",
		)
	}

	now := uc.clock().In(loc)
	if !start.After(now) {
		return nil, false, httperr.ErrBusinessMsg(
			httperr.CodeValidation, "scheduled time must be in the future",
		)
	}

	if !domain.WithinOpeningHours(org, start) {
		return nil, false, httperr.ErrBusinessMsg(
			httperr.CodeValidation, "scheduled time is outside opening hours",
		)
	}

	svc, err := uc.repo.GetService(ctx, in.OrganizationID, in.ServiceID)
	if err != nil {
		if httperr.IsBusiness(err, httperr.CodeNotFound) {
			return nil, false, httperr.ErrBusinessMsg(
				httperr.CodeValidation, "service does not belong to organization",
			)
		}
		return nil, false, err
	}

	// Replay detection before touching the store.
	useKey := uc.idem != nil && in.IdempotencyKey != ""
	if useKey {
		prevID, fresh, err := uc.idem.Begin(ctx, in.RequesterID, in.IdempotencyKey)
		if err != nil {
			return nil, false, err
		}
		if !fresh {
			prev, err := uc.repo.GetAppointmentByID(ctx, prevID)
			if err != nil {
				return nil, false, err
			}
			return prev, true, nil
		}
	}

	ap := &models.Appointment{
		OrganizationID: in.OrganizationID,
		ServiceID:      svc.ID,
		RequesterID:    in.RequesterID,
		ScheduledAt:    start,
		Status:         string(domain.InitialStatus()),
		Description:    in.Description,
	}

	if err := uc.repo.CreateIfSlotFree(ctx, ap); err != nil {
		if useKey {
			uc.idem.Abandon(ctx, in.RequesterID, in.IdempotencyKey)
		}

		if httperr.IsBusiness(err, httperr.CodeSlotConflict) {
			uc.audit.Dispatch(audit.Event{
				OrganizationID: in.OrganizationID,
				ActorID:        &in.RequesterID,
				Action:         "appointment_conflict",
				Entity:         "appointment",
				Metadata: map[string]any{
					"scheduled_at": start,
				},
			})
		}

		return nil, false, err
	}

	if useKey {
		if err := uc.idem.Finish(ctx, in.RequesterID, in.IdempotencyKey, ap.ID); err != nil {
			// Booking committed; the key just loses replay protection.
			uc.idem.Abandon(ctx, in.RequesterID, in.IdempotencyKey)
		}
	}

	uc.audit.Dispatch(audit.Event{
		OrganizationID: in.OrganizationID,
		ActorID:        &in.RequesterID,
		Action:         "appointment_created",
		Entity:         "appointment",
		EntityID:       &ap.ID,
	})

	uc.notify.Dispatch(notify.Event{
		AppointmentID:       ap.ID,
		NewStatus:           ap.Status,
		RequesterID:         ap.RequesterID,
		OrganizationOwnerID: org.OwnerID,
	})

	return ap, false, nil
}
