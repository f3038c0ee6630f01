package models

import "time"

type VerificationState string

const (
	VerificationPending   VerificationState = "pending"
	VerificationConfirmed VerificationState = "confirmed"
	VerificationFailed    VerificationState = "failed"
	VerificationExpired   VerificationState = "expired"
)

// Terminal reports whether polling can stop on this state.
func (s VerificationState) Terminal() bool {
	return s == VerificationConfirmed || s == VerificationFailed || s == VerificationExpired
}

// PhoneVerification is one SMS code sent to a lead's phone.
// Only the bcrypt hash of the code is stored.
type PhoneVerification struct {
	ID          int64             `json:"id"`
	LeadID      int64             `json:"lead_id"`
	Phone       string            `json:"phone"`
	CodeHash    string            `json:"-"`
	State       VerificationState `json:"state"`
	Attempts    int               `json:"attempts"`
	SentAt      time.Time         `json:"sent_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
	ConfirmedAt *time.Time        `json:"confirmed_at,omitempty"`
}
