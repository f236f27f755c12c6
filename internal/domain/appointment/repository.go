package appointment

import (
	"context"
	"time"

	"github.com/TailwagServices/clinic-scheduler/internal/models"
)

type Repository interface {
	// -------- Organization --------
	GetOrganizationByID(
		ctx context.Context,
		id uint,
	) (*models.Organization, error)

	// -------- Service --------
	GetService(
		ctx context.Context,
		organizationID uint,
		serviceID uint,
	) (*models.Service, error)

	// -------- Appointment (create / conflict) --------

	// CreateIfSlotFree inserts ap atomically with the check that no
	// active appointment already holds the same (organization,
	// scheduled time) slot; it fails with the slot_conflict business
	// error otherwise.
	CreateIfSlotFree(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// -------- Appointment (state change) --------
	GetAppointmentByID(
		ctx context.Context,
		appointmentID uint,
	) (*models.Appointment, error)

	// UpdateStatus persists ap's status and transition timestamps only
	// if the stored status still equals prev (compare-and-swap); it
	// fails with the invalid_transition business error when another
	// transition won the race.
	UpdateStatus(
		ctx context.Context,
		ap *models.Appointment,
		prev Status,
	) error

	// -------- Query --------
	ListForRange(
		ctx context.Context,
		organizationID uint,
		from time.Time,
		to time.Time,
		serviceID *uint,
	) ([]models.Appointment, error)
}
