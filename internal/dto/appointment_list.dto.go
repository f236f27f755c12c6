package dto

import "time"

type AppointmentListDTO struct {
	ID          uint      `json:"id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	ServiceID   uint      `json:"service_id"`
	ServiceName string    `json:"service_name"`
	RequesterID uint      `json:"requester_id"`
	Description string    `json:"description"`
}
