package models

import "time"

// LeadHistory is one accepted change on a lead; rows are append-only.
type LeadHistory struct {
	ID              int64      `json:"id"`
	LeadID          int64      `json:"lead_id"`
	TrackNumber     string     `json:"track_number"`
	FromStatus      int        `json:"from_status"`
	ToStatus        int        `json:"to_status"`
	AppointmentDate *time.Time `json:"appointment_date,omitempty"`
	Notes           string     `json:"notes"`
	ActorID         int64      `json:"actor_id"`
	CreatedAt       time.Time  `json:"created_at"`
}
