package appointment

import "github.com/TailwagServices/clinic-scheduler/internal/httperr"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ActiveStatuses are the ones still holding a slot.
var ActiveStatuses = []string{
	string(StatusPending),
	string(StatusConfirmed),
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ===============================
// Transition Legality
// ===============================

// CanConfirm: only a pending appointment can be confirmed.
func CanConfirm(current Status) error {
	if current != StatusPending {
		return httperr.ErrBusinessMsg(
			httperr.CodeInvalidTransition,
			"only a pending appointment can be confirmed",
		)
	}
	return nil
}

// CanCancel: pending and confirmed appointments can be cancelled.
func CanCancel(current Status) error {
	if current != StatusPending && current != StatusConfirmed {
		return httperr.ErrBusinessMsg(
			httperr.CodeInvalidTransition,
			"only a pending or confirmed appointment can be cancelled",
		)
	}
	return nil
}

// CanComplete: only a confirmed appointment can be completed.
func CanComplete(current Status) error {
	if current != StatusConfirmed {
		return httperr.ErrBusinessMsg(
			httperr.CodeInvalidTransition,
			"only a confirmed appointment can be completed",
		)
	}
	return nil
}

func InitialStatus() Status {
	return StatusPending
}
