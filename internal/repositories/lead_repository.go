package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"loancrm/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrStaleLead = errors.New("lead changed since it was read")
)

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

const leadColumns = `id, track_number, organization_id, name, phone, email, status,
	assigned_to, assigned_on, appointment_date, notes, documents, stage,
	phone_verified, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*models.LeadRecord, error) {
	var (
		l          models.LeadRecord
		email      sql.NullString
		notes      sql.NullString
		assignedTo sql.NullInt64
		assignedOn sql.NullTime
		appt       sql.NullTime
		docs       []byte
		stage      []byte
	)
	if err := row.Scan(
		&l.ID, &l.TrackNumber, &l.OrganizationID, &l.Name, &l.Phone, &email, &l.Status,
		&assignedTo, &assignedOn, &appt, &notes, &docs, &stage,
		&l.PhoneVerified, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	l.Email = email.String
	l.Notes = notes.String
	if assignedTo.Valid {
		v := assignedTo.Int64
		l.AssignedTo = &v
	}
	if assignedOn.Valid {
		t := assignedOn.Time
		l.AssignedOn = &t
	}
	if appt.Valid {
		t := appt.Time
		l.AppointmentDate = &t
	}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &l.Documents); err != nil {
			return nil, fmt.Errorf("decode documents: %w", err)
		}
	}
	if len(stage) > 0 {
		if err := json.Unmarshal(stage, &l.Stage); err != nil {
			return nil, fmt.Errorf("decode stage: %w", err)
		}
	}
	// the stored row is the baseline for the next save
	l.OriginalData = models.Baseline{Status: l.Status}
	if appt.Valid {
		t := appt.Time
		l.OriginalData.AppointmentDate = &t
	}
	return &l, nil
}

func encodeLeadData(l *models.LeadRecord) (docs, stage []byte, err error) {
	if docs, err = json.Marshal(l.Documents); err != nil {
		return nil, nil, fmt.Errorf("encode documents: %w", err)
	}
	if stage, err = json.Marshal(l.Stage); err != nil {
		return nil, nil, fmt.Errorf("encode stage: %w", err)
	}
	return docs, stage, nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *models.LeadRecord) error {
	docs, stage, err := encodeLeadData(lead)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO leads (track_number, organization_id, name, phone, email, status,
			appointment_date, notes, documents, stage, phone_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, $11, $12)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, q,
		lead.TrackNumber, lead.OrganizationID, lead.Name, lead.Phone, lead.Email, lead.Status,
		lead.AppointmentDate, lead.Notes, docs, stage, lead.CreatedAt, lead.UpdatedAt,
	).Scan(&lead.ID); err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) GetByID(ctx context.Context, orgID, id int64) (*models.LeadRecord, error) {
	q := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND organization_id = $2`
	lead, err := scanLead(r.db.QueryRowContext(ctx, q, id, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

func (r *LeadRepository) GetByTrack(ctx context.Context, orgID int64, key models.TrackKey) (*models.LeadRecord, error) {
	q := `SELECT ` + leadColumns + ` FROM leads WHERE track_number = $1 AND id = $2 AND organization_id = $3`
	lead, err := scanLead(r.db.QueryRowContext(ctx, q, key.TrackNumber, key.LeadID, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lead by track: %w", err)
	}
	return lead, nil
}

// SaveTransition writes the validated status, appointment and stage data.
// The row must still carry readStatus and readHolder, otherwise ErrStaleLead.
func (r *LeadRepository) SaveTransition(ctx context.Context, lead *models.LeadRecord, readStatus int, readHolder *int64) error {
	docs, stage, err := encodeLeadData(lead)
	if err != nil {
		return err
	}
	const q = `
		UPDATE leads
		SET status = $1, appointment_date = $2, notes = $3, documents = $4, stage = $5, updated_at = $6
		WHERE id = $7 AND organization_id = $8
			AND status = $9 AND assigned_to IS NOT DISTINCT FROM $10
	`
	ok, err := r.execOne(ctx, q,
		lead.Status, lead.AppointmentDate, lead.Notes, docs, stage, lead.UpdatedAt,
		lead.ID, lead.OrganizationID, readStatus, readHolder,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if !ok {
		return fmt.Errorf("update lead %d: %w", lead.ID, ErrStaleLead)
	}
	return nil
}

// ClaimUnassigned assigns the lead only while assigned_to is still NULL.
func (r *LeadRepository) ClaimUnassigned(ctx context.Context, leadID, orgID, assigneeID int64, at time.Time) (bool, error) {
	const q = `
		UPDATE leads
		SET assigned_to = $1, assigned_on = $2, status = $3, updated_at = $2
		WHERE id = $4 AND organization_id = $5 AND assigned_to IS NULL
	`
	return r.execOne(ctx, q, assigneeID, at, models.StatusAssigned, leadID, orgID)
}

// Reassign moves the lead only while it is still held by fromID.
func (r *LeadRepository) Reassign(ctx context.Context, leadID, orgID, fromID, toID int64, note string, at time.Time) (bool, error) {
	const q = `
		UPDATE leads
		SET assigned_to = $1, assigned_on = $2, notes = $3, updated_at = $2
		WHERE id = $4 AND organization_id = $5 AND assigned_to = $6
	`
	return r.execOne(ctx, q, toID, at, note, leadID, orgID, fromID)
}

func (r *LeadRepository) execOne(ctx context.Context, q string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *LeadRepository) MarkPhoneVerified(ctx context.Context, leadID int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE leads SET phone_verified = TRUE WHERE id = $1`, leadID); err != nil {
		return fmt.Errorf("mark phone verified: %w", err)
	}
	return nil
}

func (r *LeadRepository) ListUnassigned(ctx context.Context, orgID int64, limit, offset int) ([]*models.LeadRecord, error) {
	q := `SELECT ` + leadColumns + `
		FROM leads
		WHERE organization_id = $1 AND assigned_to IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	return r.list(ctx, q, orgID, limit, offset)
}

func (r *LeadRepository) ListAssigned(ctx context.Context, orgID, employeeID int64, limit, offset int) ([]*models.LeadRecord, error) {
	q := `SELECT ` + leadColumns + `
		FROM leads
		WHERE organization_id = $1 AND assigned_to = $2
		ORDER BY appointment_date ASC NULLS LAST, created_at DESC
		LIMIT $3 OFFSET $4`
	return r.list(ctx, q, orgID, employeeID, limit, offset)
}

func (r *LeadRepository) list(ctx context.Context, q string, args ...any) ([]*models.LeadRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []*models.LeadRecord
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LeadRepository) CountByStatus(ctx context.Context, orgID int64) (map[int]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM leads WHERE organization_id = $1 GROUP BY status`, orgID)
	if err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	defer rows.Close()

	out := map[int]int{}
	for rows.Next() {
		var status, n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
