package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loancrm/internal/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var leadCols = []string{
	"id", "track_number", "organization_id", "name", "phone", "email", "status",
	"assigned_to", "assigned_on", "appointment_date", "notes", "documents", "stage",
	"phone_verified", "created_at", "updated_at",
}

func TestClaimUnassignedConditionalUpdate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLeadRepository(db)
	at := time.Now()

	mock.ExpectExec(`UPDATE leads\s+SET assigned_to = \$1.*WHERE id = \$4 AND organization_id = \$5 AND assigned_to IS NULL`).
		WithArgs(int64(10), at, models.StatusAssigned, int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE leads\s+SET assigned_to`).
		WithArgs(int64(11), at, models.StatusAssigned, int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ClaimUnassigned(context.Background(), 1, 7, 10, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ClaimUnassigned(context.Background(), 1, 7, 11, at)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReassignGuardsOnHolder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLeadRepository(db)
	at := time.Now()

	mock.ExpectExec(`UPDATE leads\s+SET assigned_to = \$1, assigned_on = \$2, notes = \$3.*AND assigned_to = \$6`).
		WithArgs(int64(11), at, "Assigned to Ravi", int64(1), int64(7), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Reassign(context.Background(), 1, 7, 10, 11, "Assigned to Ravi", at)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByTrackDecodesLead(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLeadRepository(db)
	appt := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	created := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(leadCols).AddRow(
		int64(42), "trk", int64(7), "Priya", "+7701", nil, 12,
		int64(10), created, appt, "note",
		[]byte(`{"isidproof":true,"ispayslip":true,"isphoto":true}`),
		[]byte(`{"bank_name":"HDFC","loan_amount":500000}`),
		false, created, created,
	)
	mock.ExpectQuery(`SELECT .* FROM leads WHERE track_number = \$1 AND id = \$2 AND organization_id = \$3`).
		WithArgs("trk", int64(42), int64(7)).
		WillReturnRows(rows)

	lead, err := repo.GetByTrack(context.Background(), 7, models.TrackKey{TrackNumber: "trk", LeadID: 42})
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, 12, lead.Status)
	assert.Equal(t, int64(10), *lead.AssignedTo)
	assert.True(t, lead.Documents.IDProof)
	assert.False(t, lead.Documents.ITR)
	assert.Equal(t, "HDFC", lead.Stage.BankName)
	assert.Equal(t, 500000.0, lead.Stage.LoanAmount)
	assert.Equal(t, 12, lead.OriginalData.Status)
	assert.True(t, appt.Equal(*lead.OriginalData.AppointmentDate))
	assert.Empty(t, lead.Email)
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT .* FROM leads WHERE id = \$1`).WillReturnError(sql.ErrNoRows)

	lead, err := NewLeadRepository(db).GetByID(context.Background(), 7, 1)
	assert.NoError(t, err)
	assert.Nil(t, lead)
}

func TestSaveTransitionGuardsReadState(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLeadRepository(db)
	holder := int64(10)
	lead := &models.LeadRecord{ID: 1, OrganizationID: 7, Status: 13, AssignedTo: &holder}
	anyArg := sqlmock.AnyArg()

	mock.ExpectExec(`UPDATE leads\s+SET status = \$1.*AND status = \$9 AND assigned_to IS NOT DISTINCT FROM \$10`).
		WithArgs(13, anyArg, anyArg, anyArg, anyArg, anyArg, int64(1), int64(7), 12, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SaveTransition(context.Background(), lead, 12, &holder))

	// another writer moved the lead first
	mock.ExpectExec(`UPDATE leads\s+SET status = \$1`).
		WithArgs(13, anyArg, anyArg, anyArg, anyArg, anyArg, int64(1), int64(7), 12, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SaveTransition(context.Background(), lead, 12, &holder)
	assert.ErrorIs(t, err, ErrStaleLead)

	mock.ExpectExec(`UPDATE leads\s+SET status = \$1`).
		WithArgs(0, anyArg, anyArg, anyArg, anyArg, anyArg, int64(2), int64(7), 0, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SaveTransition(context.Background(), &models.LeadRecord{ID: 2, OrganizationID: 7}, 0, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatus(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM leads`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow(0, 4).AddRow(12, 2))

	counts, err := NewLeadRepository(db).CountByStatus(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 4, 12: 2}, counts)
}
