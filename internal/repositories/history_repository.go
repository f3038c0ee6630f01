package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"loancrm/internal/models"
)

// HistoryRepository is append-only; lead history is never updated or deleted.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, h *models.LeadHistory) error {
	const q = `
		INSERT INTO lead_history (lead_id, track_number, from_status, to_status, appointment_date, notes, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, q,
		h.LeadID, h.TrackNumber, h.FromStatus, h.ToStatus, h.AppointmentDate, h.Notes, h.ActorID, h.CreatedAt,
	).Scan(&h.ID); err != nil {
		return fmt.Errorf("append lead history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByTrack(ctx context.Context, key models.TrackKey) ([]*models.LeadHistory, error) {
	const q = `
		SELECT id, lead_id, track_number, from_status, to_status, appointment_date, notes, actor_id, created_at
		FROM lead_history
		WHERE lead_id = $1 AND track_number = $2
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, key.LeadID, key.TrackNumber)
	if err != nil {
		return nil, fmt.Errorf("list lead history: %w", err)
	}
	defer rows.Close()

	var out []*models.LeadHistory
	for rows.Next() {
		var (
			h    models.LeadHistory
			appt sql.NullTime
		)
		if err := rows.Scan(&h.ID, &h.LeadID, &h.TrackNumber, &h.FromStatus, &h.ToStatus, &appt, &h.Notes, &h.ActorID, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead history: %w", err)
		}
		if appt.Valid {
			t := appt.Time
			h.AppointmentDate = &t
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}
