package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"loancrm/internal/metrics"
	"loancrm/internal/models"
	"loancrm/internal/repositories"
)

// LeadStore is the persistence the workflow needs. Every read is organization scoped.
type LeadStore interface {
	AssignmentStore
	Create(ctx context.Context, lead *models.LeadRecord) error
	GetByID(ctx context.Context, orgID, id int64) (*models.LeadRecord, error)
	GetByTrack(ctx context.Context, orgID int64, key models.TrackKey) (*models.LeadRecord, error)
	// SaveTransition fails with repositories.ErrStaleLead unless the stored status and
	// holder still equal readStatus and readHolder.
	SaveTransition(ctx context.Context, lead *models.LeadRecord, readStatus int, readHolder *int64) error
	ListUnassigned(ctx context.Context, orgID int64, limit, offset int) ([]*models.LeadRecord, error)
	ListAssigned(ctx context.Context, orgID, employeeID int64, limit, offset int) ([]*models.LeadRecord, error)
	CountByStatus(ctx context.Context, orgID int64) (map[int]int, error)
}

type HistoryStore interface {
	Append(ctx context.Context, h *models.LeadHistory) error
	ListByTrack(ctx context.Context, key models.TrackKey) ([]*models.LeadHistory, error)
}

type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	GetByLeadID(ctx context.Context, orgID, leadID int64) (*models.Customer, error)
}

// CustomerPublisher emits the converted customer to downstream systems.
type CustomerPublisher interface {
	PublishConverted(ctx context.Context, c *models.Customer) error
}

type Notifier interface {
	LeadAssigned(ctx context.Context, to *models.Employee, lead *models.LeadRecord) error
	CustomerConverted(ctx context.Context, by *models.Employee, c *models.Customer) error
}

// TransitionResult is an accepted save plus the customer created when it reached disbursement.
type TransitionResult struct {
	Lead            *models.LeadRecord `json:"lead"`
	Customer        *models.Customer   `json:"customer,omitempty"`
	ConversionError string             `json:"conversion_error,omitempty"`
}

type LeadService struct {
	Repo      LeadStore
	History   HistoryStore
	Customers CustomerStore
	Employees EmployeeDirectory
	Publisher CustomerPublisher
	Notifier  Notifier

	validator *TransitionValidator
	resolver  *AssignmentResolver
	converter *ConversionService
}

func NewLeadService(
	repo LeadStore,
	history HistoryStore,
	customers CustomerStore,
	employees EmployeeDirectory,
	publisher CustomerPublisher,
	notifier Notifier,
) *LeadService {
	return &LeadService{
		Repo:      repo,
		History:   history,
		Customers: customers,
		Employees: employees,
		Publisher: publisher,
		Notifier:  notifier,
		validator: NewTransitionValidator(),
		resolver:  NewAssignmentResolver(repo, employees),
		converter: NewConversionService(),
	}
}

// Create puts a new contact into the unassigned pool with a fresh track number.
func (s *LeadService) Create(ctx context.Context, acting models.ActingContext, lead *models.LeadRecord) error {
	if strings.TrimSpace(lead.Name) == "" {
		return &ValidationError{Kind: MissingField, Field: "name"}
	}
	if strings.TrimSpace(lead.Phone) == "" {
		return &ValidationError{Kind: MissingField, Field: "phone"}
	}
	now := time.Now()
	lead.ID = 0
	lead.OrganizationID = acting.OrganizationID
	lead.TrackNumber = uuid.NewString()
	lead.Status = models.StatusNew
	lead.AssignedTo = nil
	lead.AssignedOn = nil
	lead.PhoneVerified = false
	lead.OriginalData = models.Baseline{Status: models.StatusNew, AppointmentDate: lead.AppointmentDate}
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if err := s.Repo.Create(ctx, lead); err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	log.Printf("[lead][create] org=%d lead=%d track=%s", lead.OrganizationID, lead.ID, lead.TrackNumber)
	return nil
}

func (s *LeadService) GetByTrack(ctx context.Context, acting models.ActingContext, key models.TrackKey) (*models.LeadRecord, error) {
	lead, err := s.Repo.GetByTrack(ctx, acting.OrganizationID, key)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

func (s *LeadService) getByID(ctx context.Context, acting models.ActingContext, id int64) (*models.LeadRecord, error) {
	lead, err := s.Repo.GetByID(ctx, acting.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

// Transition validates and persists a follow-up save. Reaching disbursement converts the lead.
func (s *LeadService) Transition(ctx context.Context, acting models.ActingContext, key models.TrackKey, req models.TransitionRequest) (*TransitionResult, error) {
	lead, err := s.GetByTrack(ctx, acting, key)
	if err != nil {
		return nil, err
	}
	// sales work their own leads; admins any lead of the organization
	if !acting.IsAdmin && (lead.AssignedTo == nil || *lead.AssignedTo != acting.UserID) {
		return nil, &AssignmentError{Kind: Unauthorized, Msg: "lead is not assigned to you"}
	}

	next, err := s.validator.Validate(lead, acting, req)
	if err != nil {
		if kind, ok := ValidationKindOf(err); ok {
			metrics.RecordTransitionRejected(string(kind))
		}
		return nil, err
	}
	if err := s.Repo.SaveTransition(ctx, next, lead.Status, lead.AssignedTo); err != nil {
		if errors.Is(err, repositories.ErrStaleLead) {
			metrics.RecordTransitionRejected("stale")
		}
		return nil, fmt.Errorf("save lead %d: %w", lead.ID, err)
	}
	metrics.RecordTransitionAccepted(string(CategoryOf(next.Status)))
	log.Printf("[lead][transition] lead=%d track=%s %d -> %d by=%d", next.ID, next.TrackNumber, lead.Status, next.Status, acting.UserID)

	s.appendHistory(ctx, &models.LeadHistory{
		LeadID:          next.ID,
		TrackNumber:     next.TrackNumber,
		FromStatus:      lead.Status,
		ToStatus:        next.Status,
		AppointmentDate: next.AppointmentDate,
		Notes:           next.Notes,
		ActorID:         acting.UserID,
		CreatedAt:       next.UpdatedAt,
	})

	res := &TransitionResult{Lead: next}
	if next.Status == models.StatusDisbursed && lead.Status != models.StatusDisbursed {
		customer, err := s.convert(ctx, acting, next)
		if err != nil {
			log.Printf("[lead][convert] lead=%d failed: %v", next.ID, err)
			res.ConversionError = err.Error()
		}
		res.Customer = customer
	}
	return res, nil
}

// Convert turns a disbursed lead into a customer. Used to retry a failed automatic conversion.
func (s *LeadService) Convert(ctx context.Context, acting models.ActingContext, leadID int64) (*models.Customer, error) {
	lead, err := s.getByID(ctx, acting, leadID)
	if err != nil {
		return nil, err
	}
	if !acting.IsAdmin && (lead.AssignedTo == nil || *lead.AssignedTo != acting.UserID) {
		return nil, &AssignmentError{Kind: Unauthorized, Msg: "lead is not assigned to you"}
	}
	return s.convert(ctx, acting, lead)
}

func (s *LeadService) convert(ctx context.Context, acting models.ActingContext, lead *models.LeadRecord) (*models.Customer, error) {
	emp, err := s.Employees.GetEmployee(ctx, acting.UserID)
	if err != nil {
		return nil, fmt.Errorf("load employee %d: %w", acting.UserID, err)
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}
	customer, err := s.converter.Convert(lead, emp)
	if err != nil {
		return nil, err
	}
	if err := s.Customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repositories.ErrAlreadyConverted) {
			return nil, err
		}
		return nil, fmt.Errorf("store customer for lead %d: %w", lead.ID, err)
	}
	metrics.RecordConversion()
	log.Printf("[lead][convert] lead=%d customer=%d external=%s by=%d", lead.ID, customer.ID, customer.ExternalID, emp.ID)

	if s.Publisher != nil {
		if err := s.Publisher.PublishConverted(ctx, customer); err != nil {
			log.Printf("[lead][convert] publish customer=%d: %v", customer.ID, err)
		}
	}
	if s.Notifier != nil {
		if err := s.Notifier.CustomerConverted(ctx, emp, customer); err != nil {
			log.Printf("[lead][convert] notify customer=%d: %v", customer.ID, err)
		}
	}
	return customer, nil
}

// Customer returns the customer a lead was converted into.
func (s *LeadService) Customer(ctx context.Context, acting models.ActingContext, leadID int64) (*models.Customer, error) {
	c, err := s.Customers.GetByLeadID(ctx, acting.OrganizationID, leadID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

// Claim takes a lead from the unassigned pool for assigneeID.
func (s *LeadService) Claim(ctx context.Context, acting models.ActingContext, leadID, assigneeID int64) (*models.LeadRecord, error) {
	lead, err := s.getByID(ctx, acting, leadID)
	if err != nil {
		return nil, err
	}
	out, assignee, err := s.resolver.Claim(ctx, acting, lead, assigneeID)
	if err != nil {
		if kind, ok := AssignmentKindOf(err); ok {
			metrics.RecordAssignment("claim", string(kind))
		}
		return nil, err
	}
	metrics.RecordAssignment("claim", "ok")
	log.Printf("[assign][claim] lead=%d to=%d by=%d", out.ID, assignee.ID, acting.UserID)

	s.appendHistory(ctx, &models.LeadHistory{
		LeadID:          out.ID,
		TrackNumber:     out.TrackNumber,
		FromStatus:      lead.Status,
		ToStatus:        out.Status,
		AppointmentDate: out.AppointmentDate,
		Notes:           fmt.Sprintf("Assigned to %s", assignee.Name),
		ActorID:         acting.UserID,
		CreatedAt:       out.UpdatedAt,
	})
	s.notifyAssigned(ctx, assignee, out)
	return out, nil
}

// Reassign hands an assigned lead to another employee. Admin only.
func (s *LeadService) Reassign(ctx context.Context, acting models.ActingContext, leadID, fromID, toID int64) (*models.LeadRecord, error) {
	lead, err := s.getByID(ctx, acting, leadID)
	if err != nil {
		return nil, err
	}
	out, to, err := s.resolver.Reassign(ctx, acting, lead, fromID, toID)
	if err != nil {
		if kind, ok := AssignmentKindOf(err); ok {
			metrics.RecordAssignment("reassign", string(kind))
		}
		return nil, err
	}
	metrics.RecordAssignment("reassign", "ok")
	log.Printf("[assign][reassign] lead=%d from=%d to=%d by=%d", out.ID, fromID, to.ID, acting.UserID)

	s.appendHistory(ctx, &models.LeadHistory{
		LeadID:          out.ID,
		TrackNumber:     out.TrackNumber,
		FromStatus:      out.Status,
		ToStatus:        out.Status,
		AppointmentDate: out.AppointmentDate,
		Notes:           out.Notes,
		ActorID:         acting.UserID,
		CreatedAt:       out.UpdatedAt,
	})
	s.notifyAssigned(ctx, to, out)
	return out, nil
}

func (s *LeadService) ListUnassigned(ctx context.Context, acting models.ActingContext, limit, offset int) ([]*models.LeadRecord, error) {
	return s.Repo.ListUnassigned(ctx, acting.OrganizationID, limit, offset)
}

// ListAssigned lists the acting user's leads; admins may look at another employee's list.
func (s *LeadService) ListAssigned(ctx context.Context, acting models.ActingContext, employeeID int64, limit, offset int) ([]*models.LeadRecord, error) {
	if employeeID == 0 || !acting.IsAdmin {
		employeeID = acting.UserID
	}
	return s.Repo.ListAssigned(ctx, acting.OrganizationID, employeeID, limit, offset)
}

func (s *LeadService) ListHistory(ctx context.Context, acting models.ActingContext, key models.TrackKey) ([]*models.LeadHistory, error) {
	if _, err := s.GetByTrack(ctx, acting, key); err != nil {
		return nil, err
	}
	return s.History.ListByTrack(ctx, key)
}

// PipelineReport counts the organization's leads for every known status.
func (s *LeadService) PipelineReport(ctx context.Context, acting models.ActingContext) ([]models.LeadCounts, error) {
	counts, err := s.Repo.CountByStatus(ctx, acting.OrganizationID)
	if err != nil {
		return nil, err
	}
	out := make([]models.LeadCounts, 0, models.MaxStatus+1)
	for st := models.MinStatus; st <= models.MaxStatus; st++ {
		out = append(out, models.LeadCounts{Status: st, Label: Label(st), Count: counts[st]})
	}
	return out, nil
}

func (s *LeadService) appendHistory(ctx context.Context, h *models.LeadHistory) {
	if s.History == nil {
		return
	}
	if err := s.History.Append(ctx, h); err != nil {
		log.Printf("[lead][history] lead=%d append failed: %v", h.LeadID, err)
	}
}

func (s *LeadService) notifyAssigned(ctx context.Context, to *models.Employee, lead *models.LeadRecord) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.LeadAssigned(ctx, to, lead); err != nil {
		log.Printf("[assign][notify] lead=%d employee=%d: %v", lead.ID, to.ID, err)
	}
}
