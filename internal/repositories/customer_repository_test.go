package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loancrm/internal/models"
)

func TestCustomerCreateDuplicateLead(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO customers`).WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})

	err := NewCustomerRepository(db).Create(context.Background(), &models.Customer{LeadID: 42})
	assert.ErrorIs(t, err, ErrAlreadyConverted)
}

func TestCustomerCreate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO customers`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	c := &models.Customer{LeadID: 42, NewStatus: models.CustomerStatusConverted}
	require.NoError(t, NewCustomerRepository(db).Create(context.Background(), c))
	assert.Equal(t, int64(5), c.ID)
}

func TestCustomerCreateOtherError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO customers`).WillReturnError(errors.New("connection reset"))

	err := NewCustomerRepository(db).Create(context.Background(), &models.Customer{LeadID: 42})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyConverted)
}
