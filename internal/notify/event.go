package notify

import "time"

// Event is handed to the notification collaborator on every successful
// creation or status transition. Delivery and retry live downstream.
type Event struct {
	EventID             string    `json:"event_id"`
	AppointmentID       uint      `json:"appointment_id"`
	NewStatus           string    `json:"new_status"`
	RequesterID         uint      `json:"requester_id"`
	OrganizationOwnerID uint      `json:"organization_owner_id"`
	OccurredAt          time.Time `json:"occurred_at"`
}
