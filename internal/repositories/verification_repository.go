package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"loancrm/internal/models"
)

type VerificationRepository struct {
	DB *sql.DB
}

func NewVerificationRepository(db *sql.DB) *VerificationRepository {
	return &VerificationRepository{DB: db}
}

// Create stores a new verification; every send is its own row.
func (r *VerificationRepository) Create(ctx context.Context, v *models.PhoneVerification) error {
	const q = `
		INSERT INTO phone_verifications (lead_id, phone, code_hash, state, attempts, sent_at, expires_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
		RETURNING id
	`
	if err := r.DB.QueryRowContext(ctx, q, v.LeadID, v.Phone, v.CodeHash, v.State, v.SentAt, v.ExpiresAt).Scan(&v.ID); err != nil {
		return fmt.Errorf("phone_verification create: %w", err)
	}
	return nil
}

func (r *VerificationRepository) GetLatestByLead(ctx context.Context, leadID int64) (*models.PhoneVerification, error) {
	const q = `
		SELECT id, lead_id, phone, code_hash, state, attempts, sent_at, expires_at, confirmed_at
		FROM phone_verifications
		WHERE lead_id = $1
		ORDER BY sent_at DESC
		LIMIT 1
	`
	var (
		v           models.PhoneVerification
		confirmedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, q, leadID).Scan(
		&v.ID, &v.LeadID, &v.Phone, &v.CodeHash, &v.State, &v.Attempts, &v.SentAt, &v.ExpiresAt, &confirmedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("phone_verification latest: %w", err)
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		v.ConfirmedAt = &t
	}
	return &v, nil
}

// CountRecentSends is used for send throttling.
func (r *VerificationRepository) CountRecentSends(ctx context.Context, leadID int64, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM phone_verifications WHERE lead_id = $1 AND sent_at >= $2`
	var c int
	if err := r.DB.QueryRowContext(ctx, q, leadID, since).Scan(&c); err != nil {
		return 0, fmt.Errorf("phone_verification count recent: %w", err)
	}
	return c, nil
}

func (r *VerificationRepository) IncrementAttempts(ctx context.Context, id int64) (int, error) {
	const q = `
		UPDATE phone_verifications
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRowContext(ctx, q, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("phone_verification increment attempts: %w", err)
	}
	return attempts, nil
}

func (r *VerificationRepository) SetState(ctx context.Context, id int64, state models.VerificationState, at time.Time) error {
	var confirmedAt *time.Time
	if state == models.VerificationConfirmed {
		confirmedAt = &at
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE phone_verifications SET state = $1, confirmed_at = COALESCE($2, confirmed_at) WHERE id = $3`,
		state, confirmedAt, id)
	if err != nil {
		return fmt.Errorf("phone_verification set state: %w", err)
	}
	return nil
}
