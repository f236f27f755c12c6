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

type CancelAppointment struct {
	repo   domain.Repository
	audit  Auditor
	notify Notifier

	clock func() time.Time
}

func NewCancelAppointment(
	repo domain.Repository,
	auditor Auditor,
	notifier Notifier,
) *CancelAppointment {
	return &CancelAppointment{
		repo:   repo,
		audit:  auditor,
		notify: notifier,
		clock:  time.Now,
	}
}

func (uc *CancelAppointment) Execute(
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

	// Either side of the booking may call it off.
	if actorID != ap.RequesterID && actorID != org.OwnerID {
		return nil, httperr.ErrBusinessMsg(
			httperr.CodeUnauthorized,
			"only the requester or the organization owner may cancel",
		)
	}

	prev := domain.Status(ap.Status)
	now := uc.clock().In(timezone.Location(org.Timezone))

	if err := domain.Cancel(ap, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateStatus(ctx, ap, prev); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		OrganizationID: ap.OrganizationID,
		ActorID:        &actorID,
		Action:         "appointment_cancelled",
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
