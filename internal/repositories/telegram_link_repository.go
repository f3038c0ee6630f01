package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TelegramLink is a one-time code an employee sends to the bot to bind their chat.
type TelegramLink struct {
	ID         int64
	EmployeeID int64
	Code       string
	ExpiresAt  time.Time
	Used       bool
	CreatedAt  time.Time
}

type TelegramLinkRepository interface {
	Create(ctx context.Context, employeeID int64, code string, ttl time.Duration) (*TelegramLink, error)
	UseByCode(ctx context.Context, code string) (*TelegramLink, error)
}

type telegramLinkRepository struct{ db *sql.DB }

func NewTelegramLinkRepository(db *sql.DB) TelegramLinkRepository {
	return &telegramLinkRepository{db: db}
}

func (r *telegramLinkRepository) Create(ctx context.Context, employeeID int64, code string, ttl time.Duration) (*TelegramLink, error) {
	expiresAt := time.Now().Add(ttl)

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO telegram_links (employee_id, code, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, employee_id, code, expires_at, used, created_at
	`, employeeID, code, expiresAt)

	var l TelegramLink
	if err := row.Scan(&l.ID, &l.EmployeeID, &l.Code, &l.ExpiresAt, &l.Used, &l.CreatedAt); err != nil {
		return nil, fmt.Errorf("create telegram link: %w", err)
	}
	return &l, nil
}

// UseByCode consumes a link once. Used or expired codes give ErrNotFound.
func (r *telegramLinkRepository) UseByCode(ctx context.Context, code string) (*TelegramLink, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var l TelegramLink
	err = tx.QueryRowContext(ctx, `
		SELECT id, employee_id, code, expires_at, used, created_at
		FROM telegram_links
		WHERE code = $1
		FOR UPDATE
	`, code).Scan(&l.ID, &l.EmployeeID, &l.Code, &l.ExpiresAt, &l.Used, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if l.Used || time.Now().After(l.ExpiresAt) {
		return nil, ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `UPDATE telegram_links SET used = TRUE WHERE id = $1`, l.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	l.Used = true
	return &l, nil
}
