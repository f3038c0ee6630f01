package services

import (
	"strings"
	"time"

	"loancrm/internal/models"
)

// TransitionValidator decides whether a follow-up save may move a lead to a new status.
// It never mutates the record it is given.
type TransitionValidator struct {
	now func() time.Time
}

func NewTransitionValidator() *TransitionValidator {
	return &TransitionValidator{now: time.Now}
}

// Validate returns the record to persist, or a *ValidationError.
func (v *TransitionValidator) Validate(record *models.LeadRecord, acting models.ActingContext, req models.TransitionRequest) (*models.LeadRecord, error) {
	if req.Status == nil {
		return nil, &ValidationError{Kind: MissingStatus}
	}
	if req.AppointmentDate == nil || req.AppointmentDate.IsZero() {
		return nil, &ValidationError{Kind: MissingAppointment}
	}

	if !KnownStatus(*req.Status) {
		return nil, &ValidationError{Kind: UnknownStatus, Msg: Label(*req.Status)}
	}
	target := EffectiveStatus(*req.Status)
	if !CanMove(record.Status, target, acting.IsAdmin) {
		return nil, &ValidationError{
			Kind: IllegalTransition,
			Msg:  Label(record.Status) + " -> " + Label(target),
		}
	}

	next := record.Clone()
	next.Stage = req.Fields.Apply(next.Stage)
	if req.Documents != nil {
		next.Documents = *req.Documents
	}

	reqs := RequirementsFor(target)
	for _, rule := range reqs.RequiredFields {
		if !fieldSatisfied(next.Stage, rule) {
			return nil, &ValidationError{Kind: MissingField, Field: rule.Name}
		}
	}
	for _, group := range reqs.AnyOf {
		if !anySet(next.Stage, group) {
			return nil, &ValidationError{Kind: MissingField, Field: strings.Join(group, "|")}
		}
	}
	if reqs.MinDocuments > 0 && !IsSufficient(next.Documents, reqs.MinDocuments) {
		return nil, &ValidationError{Kind: InsufficientDocuments, Msg: strings.Join(Missing(next.Documents), ",")}
	}

	if target == record.OriginalData.Status && sameTime(req.AppointmentDate, record.OriginalData.AppointmentDate) {
		return nil, &ValidationError{Kind: NoChange}
	}

	appt := *req.AppointmentDate
	next.Status = target
	next.AppointmentDate = &appt
	next.Notes = strings.TrimSpace(req.Notes)
	next.UpdatedAt = v.now()
	next.OriginalData = models.Baseline{Status: target, AppointmentDate: &appt}
	return next, nil
}

func fieldSatisfied(f models.StageFields, rule FieldRule) bool {
	num, present := stageValue(f, rule.Name)
	if rule.Check == CheckPositive {
		return num > 0
	}
	return present
}

// stageValue returns the numeric value of a field (0 for text and dates) and whether it is set.
func stageValue(f models.StageFields, name string) (float64, bool) {
	switch name {
	case FieldOccupation:
		return 0, f.Occupation != ""
	case FieldLoanAmount:
		return f.LoanAmount, f.LoanAmount != 0
	case FieldBankName:
		return 0, f.BankName != ""
	case FieldApplicationNumber:
		return 0, f.ApplicationNumber != ""
	case FieldLoginDate:
		return 0, f.LoginDate != nil && !f.LoginDate.IsZero()
	case FieldLoginValue:
		return f.LoginValue, f.LoginValue != 0
	case FieldSanctionROI:
		return f.SanctionROI, f.SanctionROI != 0
	case FieldSanctionTenure:
		return float64(f.SanctionTenure), f.SanctionTenure != 0
	case FieldSanctionValue:
		return f.SanctionValue, f.SanctionValue != 0
	case FieldSanctionDate:
		return 0, f.SanctionDate != nil && !f.SanctionDate.IsZero()
	case FieldDisbursementAmount:
		return f.DisbursementAmount, f.DisbursementAmount != 0
	}
	return 0, false
}

func anySet(f models.StageFields, names []string) bool {
	for _, n := range names {
		switch n {
		case FieldIsLegal:
			if f.IsLegal {
				return true
			}
		case FieldIsTechnical:
			if f.IsTechnical {
				return true
			}
		}
	}
	return false
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
