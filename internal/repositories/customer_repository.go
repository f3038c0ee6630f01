package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"loancrm/internal/models"
)

// ErrAlreadyConverted is returned when a customer already exists for the lead.
var ErrAlreadyConverted = errors.New("lead already converted")

const uniqueViolation = "23505"

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create relies on the unique index on customers.lead_id for idempotency.
func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	const q = `
		INSERT INTO customers (external_id, organization_id, lead_id, track_number, name, phone, email,
			product, profile, bank_name, disbursed_value, sanction_value, sanction_roi, sanction_tenure,
			new_status, lead_followed_by, converted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, q,
		c.ExternalID, c.OrganizationID, c.LeadID, c.TrackNumber, c.Name, c.Phone, c.Email,
		c.Product, c.Profile, c.BankName, c.DisbursedValue, c.SanctionValue, c.SanctionROI, c.SanctionTenure,
		c.NewStatus, c.LeadFollowedBy, c.ConvertedAt,
	).Scan(&c.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrAlreadyConverted
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) GetByLeadID(ctx context.Context, orgID, leadID int64) (*models.Customer, error) {
	const q = `
		SELECT id, external_id, organization_id, lead_id, track_number, name, phone, COALESCE(email, ''),
			product, profile, bank_name, disbursed_value, sanction_value, sanction_roi, sanction_tenure,
			new_status, lead_followed_by, converted_at
		FROM customers
		WHERE lead_id = $1 AND organization_id = $2
	`
	var c models.Customer
	err := r.db.QueryRowContext(ctx, q, leadID, orgID).Scan(
		&c.ID, &c.ExternalID, &c.OrganizationID, &c.LeadID, &c.TrackNumber, &c.Name, &c.Phone, &c.Email,
		&c.Product, &c.Profile, &c.BankName, &c.DisbursedValue, &c.SanctionValue, &c.SanctionROI, &c.SanctionTenure,
		&c.NewStatus, &c.LeadFollowedBy, &c.ConvertedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}
