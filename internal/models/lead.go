package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Pipeline status codes. Codes not named here fall back to contact rules.
const (
	StatusNew           = 0
	StatusFollowUp      = 1
	StatusAssigned      = 2
	StatusInterested    = 3
	StatusApproved      = 4
	StatusDocsPending   = 11
	StatusDocsCollected = 12
	StatusLoginPending  = 13
	StatusFileLogged    = 14
	StatusSanctionDue   = 15
	StatusSanctioned    = 16
	StatusDisbursed     = 17
	StatusDropped       = 22

	MinStatus = 0
	MaxStatus = 22
)

// legacy compound key separator: "track***lead"
const trackKeySep = "***"

// TrackKey identifies one pipeline run of a lead.
type TrackKey struct {
	TrackNumber string `json:"track_number"`
	LeadID      int64  `json:"lead_id"`
}

func (k TrackKey) Valid() bool {
	return strings.TrimSpace(k.TrackNumber) != "" && k.LeadID > 0
}

func (k TrackKey) String() string {
	return k.TrackNumber + trackKeySep + strconv.FormatInt(k.LeadID, 10)
}

var ErrInvalidTrackKey = errors.New("invalid track key")

// ParseTrackKey accepts the "track***lead" form still sent by older clients.
func ParseTrackKey(raw string) (TrackKey, error) {
	track, lead, ok := strings.Cut(strings.TrimSpace(raw), trackKeySep)
	if !ok {
		return TrackKey{}, fmt.Errorf("%w: %q", ErrInvalidTrackKey, raw)
	}
	id, err := strconv.ParseInt(lead, 10, 64)
	if err != nil {
		return TrackKey{}, fmt.Errorf("%w: lead id %q", ErrInvalidTrackKey, lead)
	}
	key := TrackKey{TrackNumber: track, LeadID: id}
	if !key.Valid() {
		return TrackKey{}, fmt.Errorf("%w: %q", ErrInvalidTrackKey, raw)
	}
	return key, nil
}

// DocumentFlags are the collected-document checkboxes of a lead.
type DocumentFlags struct {
	IDProof       bool `json:"isidproof"`
	AddressProof  bool `json:"isaddressproof"`
	BankStatement bool `json:"isbankstatement"`
	Payslip       bool `json:"ispayslip"`
	Photo         bool `json:"isphoto"`
	ITR           bool `json:"isitr"`
	Form16        bool `json:"isform16"`
	PropertyDocs  bool `json:"ispropertydocs"`
	BusinessProof bool `json:"isbusinessproof"`
}

// StageFields holds the stage-specific data accumulated over the pipeline.
type StageFields struct {
	Occupation string  `json:"occupation,omitempty"`
	LoanAmount float64 `json:"loan_amount,omitempty"`
	Product    string  `json:"product,omitempty"`
	Profile    string  `json:"profile,omitempty"`

	BankName          string     `json:"bank_name,omitempty"`
	ApplicationNumber string     `json:"application_number,omitempty"`
	LoginDate         *time.Time `json:"login_date,omitempty"`
	LoginValue        float64    `json:"login_value,omitempty"`

	SanctionROI    float64    `json:"sanction_roi,omitempty"`
	SanctionTenure int        `json:"sanction_tenure,omitempty"`
	SanctionValue  float64    `json:"sanction_value,omitempty"`
	SanctionDate   *time.Time `json:"sanction_date,omitempty"`

	DisbursementAmount float64 `json:"disbursement_amount,omitempty"`
	IsLegal            bool    `json:"is_legal,omitempty"`
	IsTechnical        bool    `json:"is_technical,omitempty"`
}

// StagePatch is a partial StageFields; nil members are left untouched on merge.
type StagePatch struct {
	Occupation *string  `json:"occupation,omitempty"`
	LoanAmount *float64 `json:"loan_amount,omitempty"`
	Product    *string  `json:"product,omitempty"`
	Profile    *string  `json:"profile,omitempty"`

	BankName          *string    `json:"bank_name,omitempty"`
	ApplicationNumber *string    `json:"application_number,omitempty"`
	LoginDate         *time.Time `json:"login_date,omitempty"`
	LoginValue        *float64   `json:"login_value,omitempty"`

	SanctionROI    *float64   `json:"sanction_roi,omitempty"`
	SanctionTenure *int       `json:"sanction_tenure,omitempty"`
	SanctionValue  *float64   `json:"sanction_value,omitempty"`
	SanctionDate   *time.Time `json:"sanction_date,omitempty"`

	DisbursementAmount *float64 `json:"disbursement_amount,omitempty"`
	IsLegal            *bool    `json:"is_legal,omitempty"`
	IsTechnical        *bool    `json:"is_technical,omitempty"`
}

// Apply returns f with every non-nil member of p written over it.
func (p StagePatch) Apply(f StageFields) StageFields {
	if p.Occupation != nil {
		f.Occupation = strings.TrimSpace(*p.Occupation)
	}
	if p.LoanAmount != nil {
		f.LoanAmount = *p.LoanAmount
	}
	if p.Product != nil {
		f.Product = strings.TrimSpace(*p.Product)
	}
	if p.Profile != nil {
		f.Profile = strings.TrimSpace(*p.Profile)
	}
	if p.BankName != nil {
		f.BankName = strings.TrimSpace(*p.BankName)
	}
	if p.ApplicationNumber != nil {
		f.ApplicationNumber = strings.TrimSpace(*p.ApplicationNumber)
	}
	if p.LoginDate != nil {
		t := *p.LoginDate
		f.LoginDate = &t
	}
	if p.LoginValue != nil {
		f.LoginValue = *p.LoginValue
	}
	if p.SanctionROI != nil {
		f.SanctionROI = *p.SanctionROI
	}
	if p.SanctionTenure != nil {
		f.SanctionTenure = *p.SanctionTenure
	}
	if p.SanctionValue != nil {
		f.SanctionValue = *p.SanctionValue
	}
	if p.SanctionDate != nil {
		t := *p.SanctionDate
		f.SanctionDate = &t
	}
	if p.DisbursementAmount != nil {
		f.DisbursementAmount = *p.DisbursementAmount
	}
	if p.IsLegal != nil {
		f.IsLegal = *p.IsLegal
	}
	if p.IsTechnical != nil {
		f.IsTechnical = *p.IsTechnical
	}
	return f
}

// Baseline is the last-saved state used to detect no-op saves.
type Baseline struct {
	Status          int        `json:"status"`
	AppointmentDate *time.Time `json:"appointment_date,omitempty"`
}

// LeadRecord is one contact/lead moving through the pipeline.
type LeadRecord struct {
	ID              int64         `json:"id"`
	TrackNumber     string        `json:"track_number"`
	OrganizationID  int64         `json:"organization_id"`
	Name            string        `json:"name"`
	Phone           string        `json:"phone"`
	Email           string        `json:"email,omitempty"`
	Status          int           `json:"status"`
	AssignedTo      *int64        `json:"assigned_to,omitempty"`
	AssignedOn      *time.Time    `json:"assigned_on,omitempty"`
	AppointmentDate *time.Time    `json:"appointment_date,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	Documents       DocumentFlags `json:"documents"`
	Stage           StageFields   `json:"stage"`
	OriginalData    Baseline      `json:"original_data"`
	PhoneVerified   bool          `json:"phone_verified"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (l *LeadRecord) Key() TrackKey {
	return TrackKey{TrackNumber: l.TrackNumber, LeadID: l.ID}
}

func (l *LeadRecord) Unassigned() bool {
	return l.AssignedTo == nil
}

// Clone returns a deep copy so validation can work on a scratch record.
func (l *LeadRecord) Clone() *LeadRecord {
	c := *l
	c.AssignedTo = cloneInt64(l.AssignedTo)
	c.AssignedOn = cloneTime(l.AssignedOn)
	c.AppointmentDate = cloneTime(l.AppointmentDate)
	c.Stage.LoginDate = cloneTime(l.Stage.LoginDate)
	c.Stage.SanctionDate = cloneTime(l.Stage.SanctionDate)
	c.OriginalData.AppointmentDate = cloneTime(l.OriginalData.AppointmentDate)
	return &c
}

// TransitionRequest is what a follow-up save submits.
type TransitionRequest struct {
	Status          *int           `json:"status"`
	AppointmentDate *time.Time     `json:"appointment_date"`
	Notes           string         `json:"notes"`
	Fields          StagePatch     `json:"fields"`
	Documents       *DocumentFlags `json:"documents,omitempty"`
}

// LeadCounts is a per-status tally for the pipeline report.
type LeadCounts struct {
	Status int    `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
