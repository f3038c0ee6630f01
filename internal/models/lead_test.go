package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrackKey(t *testing.T) {
	key, err := ParseTrackKey("5f2c-aa***42")
	require.NoError(t, err)
	assert.Equal(t, TrackKey{TrackNumber: "5f2c-aa", LeadID: 42}, key)
	assert.Equal(t, "5f2c-aa***42", key.String())

	for _, raw := range []string{"", "abc", "abc***", "***42", "abc***x", "abc***0", "abc***-3"} {
		_, err := ParseTrackKey(raw)
		assert.ErrorIs(t, err, ErrInvalidTrackKey, raw)
	}
}

func TestStagePatchApply(t *testing.T) {
	loginDate := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bank := " HDFC "
	amount := 1500.0
	base := StageFields{Occupation: "Salaried", LoanAmount: 100}

	got := StagePatch{BankName: &bank, LoginDate: &loginDate, LoanAmount: &amount}.Apply(base)
	assert.Equal(t, "Salaried", got.Occupation)
	assert.Equal(t, "HDFC", got.BankName)
	assert.Equal(t, 1500.0, got.LoanAmount)
	require.NotNil(t, got.LoginDate)
	assert.NotSame(t, &loginDate, got.LoginDate)
	assert.Equal(t, 100.0, base.LoanAmount)
}

func TestLeadRecordClone(t *testing.T) {
	appt := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	assignee := int64(3)
	l := &LeadRecord{ID: 1, AssignedTo: &assignee, AppointmentDate: &appt}
	l.OriginalData.AppointmentDate = &appt

	c := l.Clone()
	*c.AssignedTo = 9
	*c.AppointmentDate = appt.Add(time.Hour)

	assert.Equal(t, int64(3), *l.AssignedTo)
	assert.Equal(t, appt, *l.AppointmentDate)
	assert.Equal(t, appt, *c.OriginalData.AppointmentDate)
	assert.False(t, l.Unassigned())
	assert.Equal(t, TrackKey{LeadID: 1}, l.Key())
}
