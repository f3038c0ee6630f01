package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loancrm/internal/models"
)

func unassignedLead(id int64) *models.LeadRecord {
	l := leadAt(id, models.StatusNew, nil)
	l.AssignedTo = nil
	return l
}

func requireAssignmentKind(t *testing.T, err error, kind AssignmentKind) {
	t.Helper()
	got, ok := AssignmentKindOf(err)
	require.True(t, ok, "expected AssignmentError, got %v", err)
	assert.Equal(t, kind, got)
}

func TestClaimConcurrentExactlyOneWins(t *testing.T) {
	store := newMemLeadStore(unassignedLead(1))
	r := NewAssignmentResolver(store, employees())

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		claimed int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(assignee int64) {
			defer wg.Done()
			// every caller read the lead while it was still unassigned
			lead := unassignedLead(1)
			_, _, err := r.Claim(context.Background(), adminActing(), lead, assignee)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			if kind, ok := AssignmentKindOf(err); ok && kind == AlreadyClaimed {
				claimed++
			}
		}([]int64{salesID, otherID}[i%2])
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, claimed)
}

func TestClaimSetsAssignedStatus(t *testing.T) {
	store := newMemLeadStore(unassignedLead(1))
	r := NewAssignmentResolver(store, employees())

	out, emp, err := r.Claim(context.Background(), salesActing(), unassignedLead(1), salesID)
	require.NoError(t, err)
	assert.Equal(t, salesID, emp.ID)
	assert.Equal(t, models.StatusAssigned, out.Status)
	assert.Equal(t, models.StatusAssigned, out.OriginalData.Status)
	require.NotNil(t, out.AssignedTo)
	assert.Equal(t, salesID, *out.AssignedTo)
	assert.NotNil(t, out.AssignedOn)

	stored := store.get(1)
	assert.Equal(t, salesID, *stored.AssignedTo)
}

func TestClaimRules(t *testing.T) {
	ctx := context.Background()
	r := NewAssignmentResolver(newMemLeadStore(unassignedLead(1)), employees())

	_, _, err := r.Claim(ctx, salesActing(), unassignedLead(1), otherID)
	requireAssignmentKind(t, err, Unauthorized)

	foreign := unassignedLead(1)
	foreign.OrganizationID = 2
	_, _, err = r.Claim(ctx, adminActing(), foreign, salesID)
	requireAssignmentKind(t, err, Unauthorized)

	_, _, err = r.Claim(ctx, adminActing(), leadAt(1, models.StatusAssigned, nil), otherID)
	requireAssignmentKind(t, err, AlreadyClaimed)

	for _, id := range []int64{12, 13, 99} {
		_, _, err = r.Claim(ctx, adminActing(), unassignedLead(1), id)
		requireAssignmentKind(t, err, IneligibleAssignee)
	}
}

func TestReassignNonAdminAlwaysUnauthorized(t *testing.T) {
	r := NewAssignmentResolver(newMemLeadStore(leadAt(1, models.StatusInterested, nil)), employees())
	for _, acting := range []models.ActingContext{
		salesActing(),
		{UserID: otherID, OrganizationID: org},
		{UserID: salesID, OrganizationID: 2},
	} {
		_, _, err := r.Reassign(context.Background(), acting, leadAt(1, models.StatusInterested, nil), salesID, otherID)
		requireAssignmentKind(t, err, Unauthorized)
	}
}

func TestReassign(t *testing.T) {
	store := newMemLeadStore(leadAt(1, models.StatusFileLogged, nil))
	r := NewAssignmentResolver(store, employees())
	lead := leadAt(1, models.StatusFileLogged, nil)
	lead.Stage.BankName = "SBI"

	out, to, err := r.Reassign(context.Background(), adminActing(), lead, salesID, otherID)
	require.NoError(t, err)
	assert.Equal(t, otherID, to.ID)
	assert.Equal(t, otherID, *out.AssignedTo)
	assert.Equal(t, "Assigned to Ravi", out.Notes)
	assert.Equal(t, models.StatusFileLogged, out.Status)
	assert.Equal(t, "SBI", out.Stage.BankName)

	// second reassign from the stale holder loses
	_, _, err = r.Reassign(context.Background(), adminActing(), lead, salesID, adminID)
	requireAssignmentKind(t, err, AlreadyClaimed)
}

func TestReassignWrongHolder(t *testing.T) {
	r := NewAssignmentResolver(newMemLeadStore(leadAt(1, models.StatusInterested, nil)), employees())
	_, _, err := r.Reassign(context.Background(), adminActing(), leadAt(1, models.StatusInterested, nil), otherID, adminID)
	requireAssignmentKind(t, err, AlreadyClaimed)
}
