package services

import (
	"time"

	"github.com/google/uuid"

	"loancrm/internal/models"
)

// ConversionService derives a Customer from a disbursed lead.
// It does not guard against double conversion; the customers.lead_id unique key does.
type ConversionService struct {
	now   func() time.Time
	newID func() string
}

func NewConversionService() *ConversionService {
	return &ConversionService{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

func (s *ConversionService) Convert(record *models.LeadRecord, acting *models.Employee) (*models.Customer, error) {
	if record.Status != models.StatusDisbursed {
		return nil, &ConversionError{Kind: WrongStatus}
	}
	if record.ID <= 0 {
		return nil, &ConversionError{Kind: MissingLeadID}
	}

	var followedBy int64
	if acting != nil {
		followedBy = acting.ID
	}
	return &models.Customer{
		ExternalID:     s.newID(),
		OrganizationID: record.OrganizationID,
		LeadID:         record.ID,
		TrackNumber:    record.TrackNumber,
		Name:           record.Name,
		Phone:          record.Phone,
		Email:          record.Email,
		Product:        record.Stage.Product,
		Profile:        record.Stage.Profile,
		BankName:       record.Stage.BankName,
		DisbursedValue: record.Stage.DisbursementAmount,
		SanctionValue:  record.Stage.SanctionValue,
		SanctionROI:    record.Stage.SanctionROI,
		SanctionTenure: record.Stage.SanctionTenure,
		NewStatus:      models.CustomerStatusConverted,
		LeadFollowedBy: followedBy,
		ConvertedAt:    s.now(),
	}, nil
}
