package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"loancrm/internal/models"
)

type EmployeeRepository interface {
	GetEmployee(ctx context.Context, id int64) (*models.Employee, error)
	ListActive(ctx context.Context, orgID int64) ([]*models.Employee, error)
	GetByChatID(ctx context.Context, chatID int64) (*models.Employee, error)
	SetTelegramChat(ctx context.Context, id, chatID int64) error
}

type employeeRepository struct {
	DB *sql.DB
}

func NewEmployeeRepository(db *sql.DB) EmployeeRepository {
	return &employeeRepository{DB: db}
}

const employeeColumns = `id, name, email, organization_id, is_active, is_admin_rights, COALESCE(telegram_chat_id, 0)`

func (r *employeeRepository) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
}

func (r *employeeRepository) GetByChatID(ctx context.Context, chatID int64) (*models.Employee, error) {
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE telegram_chat_id = $1`, chatID)
}

func (r *employeeRepository) getOne(ctx context.Context, q string, arg int64) (*models.Employee, error) {
	var e models.Employee
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&e.ID, &e.Name, &e.Email, &e.OrganizationID, &e.IsActive, &e.IsAdminRights, &e.TelegramChatID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &e, nil
}

// ListActive returns the eligible assignees of an organization.
func (r *employeeRepository) ListActive(ctx context.Context, orgID int64) ([]*models.Employee, error) {
	const q = `SELECT ` + employeeColumns + `
		FROM employees
		WHERE organization_id = $1 AND is_active = TRUE
		ORDER BY name`
	rows, err := r.DB.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []*models.Employee
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.OrganizationID, &e.IsActive, &e.IsAdminRights, &e.TelegramChatID); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *employeeRepository) SetTelegramChat(ctx context.Context, id, chatID int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE employees SET telegram_chat_id = $1 WHERE id = $2`, chatID, id)
	if err != nil {
		return fmt.Errorf("set telegram chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
