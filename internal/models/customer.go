package models

import "time"

const CustomerStatusConverted = "Converted"

// Customer is created once, when a disbursed lead is converted.
type Customer struct {
	ID             int64     `json:"id"`
	ExternalID     string    `json:"external_id"`
	OrganizationID int64     `json:"organization_id"`
	LeadID         int64     `json:"leadid"`
	TrackNumber    string    `json:"track_number"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	Product        string    `json:"product"`
	Profile        string    `json:"profile"`
	BankName       string    `json:"bank_name"`
	DisbursedValue float64   `json:"disbursed_value"`
	SanctionValue  float64   `json:"sanction_value"`
	SanctionROI    float64   `json:"sanction_roi"`
	SanctionTenure int       `json:"sanction_tenure"`
	NewStatus      string    `json:"newStatus"`
	LeadFollowedBy int64     `json:"leadFollowedBy"`
	ConvertedAt    time.Time `json:"converted_at"`
}
