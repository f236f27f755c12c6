package appointment

import (
	"time"

	"github.com/TailwagServices/clinic-scheduler/internal/httperr"
	"github.com/TailwagServices/clinic-scheduler/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Confirm(ap *models.Appointment, now time.Time) error {
	if err := CanConfirm(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusConfirmed)
	ap.ConfirmedAt = &now
	return nil
}

func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanCancel(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return nil
}

// Complete additionally requires the scheduled slot to have started:
// a visit cannot be marked done before it happened.
func Complete(ap *models.Appointment, now time.Time) error {
	if err := CanComplete(Status(ap.Status)); err != nil {
		return err
	}

	if now.Before(ap.ScheduledAt) {
		return httperr.ErrBusinessMsg(
			httperr.CodeTooEarly,
			"appointment cannot be completed before its scheduled time",
		)
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return nil
}
