package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"loancrm/internal/models"
	"loancrm/internal/repositories"
	"loancrm/internal/utils"
)

// memLeadStore mirrors the conditional updates of the SQL repository.
type memLeadStore struct {
	mu     sync.Mutex
	nextID int64
	leads  map[int64]*models.LeadRecord
	saves  int
}

func newMemLeadStore(leads ...*models.LeadRecord) *memLeadStore {
	s := &memLeadStore{leads: map[int64]*models.LeadRecord{}, nextID: 100}
	for _, l := range leads {
		s.leads[l.ID] = l.Clone()
	}
	return s
}

func (s *memLeadStore) get(id int64) *models.LeadRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.leads[id]; ok {
		return l.Clone()
	}
	return nil
}

func (s *memLeadStore) Create(_ context.Context, lead *models.LeadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	lead.ID = s.nextID
	s.leads[lead.ID] = lead.Clone()
	return nil
}

func (s *memLeadStore) GetByID(_ context.Context, orgID, id int64) (*models.LeadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok || l.OrganizationID != orgID {
		return nil, nil
	}
	out := l.Clone()
	out.OriginalData = models.Baseline{Status: l.Status, AppointmentDate: out.AppointmentDate}
	return out, nil
}

func (s *memLeadStore) GetByTrack(ctx context.Context, orgID int64, key models.TrackKey) (*models.LeadRecord, error) {
	l, err := s.GetByID(ctx, orgID, key.LeadID)
	if err != nil || l == nil || l.TrackNumber != key.TrackNumber {
		return nil, err
	}
	return l, nil
}

func (s *memLeadStore) SaveTransition(_ context.Context, lead *models.LeadRecord, readStatus int, readHolder *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.leads[lead.ID]
	if !ok || cur.OrganizationID != lead.OrganizationID {
		return repositories.ErrNotFound
	}
	if cur.Status != readStatus || !sameHolder(cur.AssignedTo, readHolder) {
		return repositories.ErrStaleLead
	}
	s.leads[lead.ID] = lead.Clone()
	s.saves++
	return nil
}

func sameHolder(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *memLeadStore) ClaimUnassigned(_ context.Context, leadID, orgID, assigneeID int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadID]
	if !ok || l.OrganizationID != orgID || l.AssignedTo != nil {
		return false, nil
	}
	id := assigneeID
	l.AssignedTo = &id
	l.AssignedOn = &at
	l.Status = models.StatusAssigned
	return true, nil
}

func (s *memLeadStore) Reassign(_ context.Context, leadID, orgID, fromID, toID int64, note string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadID]
	if !ok || l.OrganizationID != orgID || l.AssignedTo == nil || *l.AssignedTo != fromID {
		return false, nil
	}
	id := toID
	l.AssignedTo = &id
	l.AssignedOn = &at
	l.Notes = note
	return true, nil
}

func (s *memLeadStore) ListUnassigned(_ context.Context, orgID int64, limit, offset int) ([]*models.LeadRecord, error) {
	return s.filter(func(l *models.LeadRecord) bool {
		return l.OrganizationID == orgID && l.AssignedTo == nil
	}, limit, offset), nil
}

func (s *memLeadStore) ListAssigned(_ context.Context, orgID, employeeID int64, limit, offset int) ([]*models.LeadRecord, error) {
	return s.filter(func(l *models.LeadRecord) bool {
		return l.OrganizationID == orgID && l.AssignedTo != nil && *l.AssignedTo == employeeID
	}, limit, offset), nil
}

func (s *memLeadStore) filter(keep func(*models.LeadRecord) bool, limit, offset int) []*models.LeadRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.LeadRecord
	for _, l := range s.leads {
		if keep(l) {
			out = append(out, l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func (s *memLeadStore) CountByStatus(_ context.Context, orgID int64) (map[int]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int]int{}
	for _, l := range s.leads {
		if l.OrganizationID == orgID {
			out[l.Status]++
		}
	}
	return out, nil
}

func (s *memLeadStore) MarkPhoneVerified(_ context.Context, leadID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.leads[leadID]; ok {
		l.PhoneVerified = true
	}
	return nil
}

type memHistory struct {
	mu    sync.Mutex
	items []*models.LeadHistory
	err   error
}

func (h *memHistory) Append(_ context.Context, item *models.LeadHistory) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.items = append(h.items, item)
	return nil
}

func (h *memHistory) ListByTrack(_ context.Context, key models.TrackKey) ([]*models.LeadHistory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*models.LeadHistory
	for _, it := range h.items {
		if it.LeadID == key.LeadID && it.TrackNumber == key.TrackNumber {
			out = append(out, it)
		}
	}
	return out, nil
}

// memCustomers enforces one customer per lead like the unique index.
type memCustomers struct {
	mu     sync.Mutex
	byLead map[int64]*models.Customer
}

func newMemCustomers() *memCustomers {
	return &memCustomers{byLead: map[int64]*models.Customer{}}
}

func (m *memCustomers) Create(_ context.Context, c *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byLead[c.LeadID]; ok {
		return repositories.ErrAlreadyConverted
	}
	c.ID = int64(len(m.byLead) + 1)
	m.byLead[c.LeadID] = c
	return nil
}

func (m *memCustomers) GetByLeadID(_ context.Context, orgID, leadID int64) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byLead[leadID]
	if !ok || c.OrganizationID != orgID {
		return nil, nil
	}
	return c, nil
}

type memEmployees map[int64]*models.Employee

func (m memEmployees) GetEmployee(_ context.Context, id int64) (*models.Employee, error) {
	return m[id], nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishConverted(ctx context.Context, c *models.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) LeadAssigned(ctx context.Context, to *models.Employee, lead *models.LeadRecord) error {
	args := m.Called(ctx, to, lead)
	return args.Error(0)
}

func (m *mockNotifier) CustomerConverted(ctx context.Context, by *models.Employee, c *models.Customer) error {
	args := m.Called(ctx, by, c)
	return args.Error(0)
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSMS) SendSMS(to, text string) (*utils.SendSMSResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, text)
	return &utils.SendSMSResponse{}, nil
}

func (f *fakeSMS) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	last := f.sent[len(f.sent)-1]
	return last[len(last)-6:]
}

// fixture helpers

var (
	org     int64 = 1
	salesID int64 = 10
	otherID int64 = 11
	adminID int64 = 1
)

func employees() memEmployees {
	return memEmployees{
		adminID: {ID: adminID, Name: "Admin", Email: "admin@example.com", OrganizationID: org, IsActive: true, IsAdminRights: true},
		salesID: {ID: salesID, Name: "Asha", Email: "asha@example.com", OrganizationID: org, IsActive: true},
		otherID: {ID: otherID, Name: "Ravi", OrganizationID: org, IsActive: true},
		12:      {ID: 12, Name: "Gone", OrganizationID: org, IsActive: false},
		13:      {ID: 13, Name: "Elsewhere", OrganizationID: 2, IsActive: true},
	}
}

func salesActing() models.ActingContext {
	return models.ActingContext{UserID: salesID, OrganizationID: org}
}

func adminActing() models.ActingContext {
	return models.ActingContext{UserID: adminID, OrganizationID: org, IsAdmin: true}
}

func ptr[T any](v T) *T { return &v }

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return &t
}

// leadAt builds an assigned lead with a baseline matching its stored state.
func leadAt(id int64, status int, appt *time.Time) *models.LeadRecord {
	assignee := salesID
	l := &models.LeadRecord{
		ID:              id,
		TrackNumber:     "trk-1",
		OrganizationID:  org,
		Name:            "Priya",
		Phone:           "+77010000000",
		Status:          status,
		AssignedTo:      &assignee,
		AppointmentDate: appt,
	}
	l.OriginalData = models.Baseline{Status: status, AppointmentDate: appt}
	return l
}
