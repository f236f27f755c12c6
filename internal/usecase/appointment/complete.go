package appointment

import (
	"context"
	"time"

	"github.com/TailwagServices/clinic-scheduler/internal/audit"
	domain "github.com/TailwagServices/clinic-scheduler/internal/domain/appointment"
	"github.com/TailwagServices/clinic-scheduler/internal/httperr"
	"github.com/TailwagServices/clinic-scheduler/internal/models"
	"github.com/TailwagServices/clinic-scheduler/internal/notify"
	"github.com/TailwagServices/clinic-scheduler/internal/timezone"
)

type CompleteAppointment struct {
	repo   domain.Repository
	audit  Auditor
	notify Notifier

	clock func() time.Time
}

func NewCompleteAppointment(
	repo domain.Repository,
	auditor Auditor,
	notifier Notifier,
) *CompleteAppointment {
	return &CompleteAppointment{
		repo:   repo,
		audit:  auditor,
		notify: notifier,
		clock:  time.Now,
	}
}

func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	appointmentID uint,
	actorID uint,
) (*models.Appointment, error) {

	ap, err := uc.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	org, err := uc.repo.GetOrganizationByID(ctx, ap.OrganizationID)
	if err != nil {
		return nil, err
	}

	if actorID != org.OwnerID {
		return nil, httperr.ErrBusinessMsg(
			httperr.CodeUnauthorized,
			"only the organization owner may complete",
		)
	}

	prev := domain.Status(ap.Status)
	now := uc.clock().In(timezone.Location(org.Timezone))

	if err := domain.Complete(ap, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateStatus(ctx, ap, prev); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		OrganizationID: ap.OrganizationID,
		ActorID:        &actorID,
		Action:         "appointment_completed",
		Entity:         "appointment",
		EntityID:       &ap.ID,
	})

	uc.notify.Dispatch(notify.Event{
		AppointmentID:       ap.ID,
		NewStatus:           ap.Status,
		RequesterID:         ap.RequesterID,
		OrganizationOwnerID: org.OwnerID,
	})

	return ap, nil
}
