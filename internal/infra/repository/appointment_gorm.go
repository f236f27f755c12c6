package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/TailwagServices/clinic-scheduler/internal/domain/appointment"
	"github.com/TailwagServices/clinic-scheduler/internal/httperr"
	"github.com/TailwagServices/clinic-scheduler/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// --------------------------------------------------
// Organization
// --------------------------------------------------

func (r *AppointmentGormRepository) GetOrganizationByID(
	ctx context.Context,
	id uint,
) (*models.Organization, error) {

	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusinessMsg(
				httperr.CodeNotFound, "organization not found",
			)
		}
		return nil, err
	}
	return &org, nil
}

// --------------------------------------------------
// Service
// --------------------------------------------------

func (r *AppointmentGormRepository) GetService(
	ctx context.Context,
	organizationID uint,
	serviceID uint,
) (*models.Service, error) {

	var svc models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", serviceID, organizationID).
		First(&svc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusinessMsg(
				httperr.CodeNotFound, "service not found for organization",
			)
		}
		return nil, err
	}
	return &svc, nil
}

// --------------------------------------------------
// Appointment (create / conflict)
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateIfSlotFree(
	ctx context.Context,
	ap *models.Appointment,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var holders []models.Appointment
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(
				"organization_id = ? AND scheduled_at = ? AND status IN ?",
				ap.OrganizationID,
				ap.ScheduledAt,
				domain.ActiveStatuses,
			).
			Find(&holders).Error; err != nil {
			return err
		}

		if len(holders) > 0 {
			return httperr.ErrBusinessMsg(
				httperr.CodeSlotConflict,
				"slot is already held by an active appointment",
			)
		}

		return tx.Create(ap).Error
	})

	// The partial unique index is the hard guarantee; a violation from
	// a concurrent insert is the same conflict.
	if httperr.IsUniqueViolation(err) {
		return httperr.ErrBusinessMsg(
			httperr.CodeSlotConflict,
			"slot is already held by an active appointment",
		)
	}

	return err
}

// --------------------------------------------------
// Appointment (state change)
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointmentByID(
	ctx context.Context,
	appointmentID uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).First(&ap, appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusinessMsg(
				httperr.CodeNotFound, "appointment not found",
			)
		}
		return nil, err
	}

	return &ap, nil
}

func (r *AppointmentGormRepository) UpdateStatus(
	ctx context.Context,
	ap *models.Appointment,
	prev domain.Status,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", ap.ID, string(prev)).
		Updates(map[string]any{
			"status":       ap.Status,
			"confirmed_at": ap.ConfirmedAt,
			"cancelled_at": ap.CancelledAt,
			"completed_at": ap.CompletedAt,
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return httperr.ErrBusinessMsg(
			httperr.CodeInvalidTransition,
			"appointment status changed concurrently",
		)
	}

	return nil
}

// --------------------------------------------------
// Query
// --------------------------------------------------

func (r *AppointmentGormRepository) ListForRange(
	ctx context.Context,
	organizationID uint,
	from time.Time,
	to time.Time,
	serviceID *uint,
) ([]models.Appointment, error) {

	q := r.db.WithContext(ctx).
		Preload("Service").
		Where(
			"organization_id = ? AND scheduled_at >= ? AND scheduled_at < ?",
			organizationID, from, to,
		)

	if serviceID != nil {
		q = q.Where("service_id = ?", *serviceID)
	}

	var apps []models.Appointment
	if err := q.Order("scheduled_at ASC").Find(&apps).Error; err != nil {
		return nil, err
	}

	return apps, nil
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
