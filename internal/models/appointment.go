package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	OrganizationID uint         `gorm:"index:idx_appointments_org_sched" json:"organization_id"`
	Organization   Organization `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"organization"`

	ServiceID uint    `json:"service_id"`
	Service   Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"service"`

	RequesterID uint `json:"requester_id"`
	Requester   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"requester"`

	// Start of the 30-minute slot the appointment occupies.
	ScheduledAt time.Time `gorm:"index:idx_appointments_org_sched" json:"scheduled_at"`

	Status string `gorm:"size:20;default:'pending'" json:"status"`

	Description string `gorm:"size:255" json:"description"`

	ConfirmedAt *time.Time `json:"confirmed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
