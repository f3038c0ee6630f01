package services

import (
	"context"
	"fmt"
	"time"

	"loancrm/internal/models"
)

// AssignmentStore performs the conditional updates that make claims atomic.
// Both methods report false when the guarding condition no longer holds.
type AssignmentStore interface {
	ClaimUnassigned(ctx context.Context, leadID, orgID, assigneeID int64, at time.Time) (bool, error)
	Reassign(ctx context.Context, leadID, orgID, fromID, toID int64, note string, at time.Time) (bool, error)
}

type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id int64) (*models.Employee, error)
}

type AssignmentResolver struct {
	store     AssignmentStore
	employees EmployeeDirectory
	now       func() time.Time
}

func NewAssignmentResolver(store AssignmentStore, employees EmployeeDirectory) *AssignmentResolver {
	return &AssignmentResolver{store: store, employees: employees, now: time.Now}
}

// Claim takes a lead out of the unassigned pool. Non-admins may only claim for themselves.
func (r *AssignmentResolver) Claim(ctx context.Context, acting models.ActingContext, lead *models.LeadRecord, assigneeID int64) (*models.LeadRecord, *models.Employee, error) {
	if lead.OrganizationID != acting.OrganizationID {
		return nil, nil, &AssignmentError{Kind: Unauthorized, Msg: "lead belongs to another organization"}
	}
	if assigneeID != acting.UserID && !acting.IsAdmin {
		return nil, nil, &AssignmentError{Kind: Unauthorized, Msg: "only admins may assign leads to others"}
	}
	if !lead.Unassigned() {
		return nil, nil, &AssignmentError{Kind: AlreadyClaimed}
	}
	assignee, err := r.eligible(ctx, acting.OrganizationID, assigneeID)
	if err != nil {
		return nil, nil, err
	}

	at := r.now()
	ok, err := r.store.ClaimUnassigned(ctx, lead.ID, lead.OrganizationID, assignee.ID, at)
	if err != nil {
		return nil, nil, fmt.Errorf("claim lead %d: %w", lead.ID, err)
	}
	if !ok {
		return nil, nil, &AssignmentError{Kind: AlreadyClaimed}
	}

	out := lead.Clone()
	out.AssignedTo = &assignee.ID
	out.AssignedOn = &at
	out.Status = models.StatusAssigned
	out.OriginalData.Status = models.StatusAssigned
	out.UpdatedAt = at
	return out, assignee, nil
}

// Reassign moves an assigned lead between employees. Admin only; stage data is kept.
func (r *AssignmentResolver) Reassign(ctx context.Context, acting models.ActingContext, lead *models.LeadRecord, fromID, toID int64) (*models.LeadRecord, *models.Employee, error) {
	if !acting.IsAdmin {
		return nil, nil, &AssignmentError{Kind: Unauthorized, Msg: "reassignment requires admin rights"}
	}
	if lead.OrganizationID != acting.OrganizationID {
		return nil, nil, &AssignmentError{Kind: Unauthorized, Msg: "lead belongs to another organization"}
	}
	if lead.AssignedTo == nil || *lead.AssignedTo != fromID {
		return nil, nil, &AssignmentError{Kind: AlreadyClaimed, Msg: "lead is not held by the given employee"}
	}
	to, err := r.eligible(ctx, acting.OrganizationID, toID)
	if err != nil {
		return nil, nil, err
	}

	at := r.now()
	note := fmt.Sprintf("Assigned to %s", to.Name)
	ok, err := r.store.Reassign(ctx, lead.ID, lead.OrganizationID, fromID, to.ID, note, at)
	if err != nil {
		return nil, nil, fmt.Errorf("reassign lead %d: %w", lead.ID, err)
	}
	if !ok {
		return nil, nil, &AssignmentError{Kind: AlreadyClaimed, Msg: "lead changed hands concurrently"}
	}

	out := lead.Clone()
	out.AssignedTo = &to.ID
	out.AssignedOn = &at
	out.Notes = note
	out.UpdatedAt = at
	return out, to, nil
}

func (r *AssignmentResolver) eligible(ctx context.Context, orgID, employeeID int64) (*models.Employee, error) {
	emp, err := r.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load employee %d: %w", employeeID, err)
	}
	if emp == nil || !emp.IsActive || emp.OrganizationID != orgID {
		return nil, &AssignmentError{Kind: IneligibleAssignee, Msg: fmt.Sprintf("employee %d", employeeID)}
	}
	return emp, nil
}
