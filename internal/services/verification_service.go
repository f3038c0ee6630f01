package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"loancrm/internal/models"
	"loancrm/internal/utils"
)

var (
	ErrResendThrottled = errors.New("resend throttled")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrCodeExpired     = errors.New("code expired")
	ErrCodeInvalid     = errors.New("code invalid")
	ErrNoVerification  = errors.New("no verification requested")
	ErrPhoneMissing    = errors.New("lead has no phone number")
	ErrNonPositivePoll = errors.New("poll interval must be positive")
)

const (
	maxSendsPerWindow      = 3
	sendWindow             = 10 * time.Minute
	maxConfirmAttempts     = 5
	defaultVerificationTTL = 5 * time.Minute
)

type VerificationStore interface {
	Create(ctx context.Context, v *models.PhoneVerification) error
	GetLatestByLead(ctx context.Context, leadID int64) (*models.PhoneVerification, error)
	CountRecentSends(ctx context.Context, leadID int64, since time.Time) (int, error)
	IncrementAttempts(ctx context.Context, id int64) (int, error)
	SetState(ctx context.Context, id int64, state models.VerificationState, at time.Time) error
}

type LeadLookup interface {
	GetByID(ctx context.Context, orgID, id int64) (*models.LeadRecord, error)
	MarkPhoneVerified(ctx context.Context, leadID int64) error
}

type SMSSender interface {
	SendSMS(to, text string) (*utils.SendSMSResponse, error)
}

// VerificationService confirms a lead's phone by SMS code.
// Reads are idempotent and safe to poll; only Confirm writes the lead's phone_verified flag.
type VerificationService struct {
	Repo   VerificationStore
	Leads  LeadLookup
	Client SMSSender

	CodeTTL time.Duration // 0 means defaultVerificationTTL
	now     func() time.Time
}

func NewVerificationService(repo VerificationStore, leads LeadLookup, client SMSSender, ttl time.Duration) *VerificationService {
	return &VerificationService{Repo: repo, Leads: leads, Client: client, CodeTTL: ttl, now: time.Now}
}

func (s *VerificationService) ttl() time.Duration {
	if s.CodeTTL <= 0 {
		return defaultVerificationTTL
	}
	return s.CodeTTL
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *VerificationService) lead(ctx context.Context, acting models.ActingContext, leadID int64) (*models.LeadRecord, error) {
	lead, err := s.Leads.GetByID(ctx, acting.OrganizationID, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

// Send issues a new code. At most maxSendsPerWindow codes per lead per sendWindow.
func (s *VerificationService) Send(ctx context.Context, acting models.ActingContext, leadID int64) (*models.PhoneVerification, error) {
	lead, err := s.lead(ctx, acting, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Phone == "" {
		return nil, ErrPhoneMissing
	}

	now := s.now()
	cnt, err := s.Repo.CountRecentSends(ctx, lead.ID, now.Add(-sendWindow))
	if err != nil {
		return nil, err
	}
	if cnt >= maxSendsPerWindow {
		return nil, ErrResendThrottled
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt generate: %w", err)
	}

	// undelivered codes are never stored
	if _, err := s.Client.SendSMS(lead.Phone, fmt.Sprintf("Verification code: %s", code)); err != nil {
		return nil, fmt.Errorf("mobizon error: %w", err)
	}
	v := &models.PhoneVerification{
		LeadID:    lead.ID,
		Phone:     lead.Phone,
		CodeHash:  string(hash),
		State:     models.VerificationPending,
		SentAt:    now,
		ExpiresAt: now.Add(s.ttl()),
	}
	if err := s.Repo.Create(ctx, v); err != nil {
		return nil, err
	}
	log.Printf("[verify][send] lead=%d phone=%s", lead.ID, lead.Phone)
	return v, nil
}

// Confirm checks code against the latest pending verification.
func (s *VerificationService) Confirm(ctx context.Context, acting models.ActingContext, leadID int64, code string) error {
	lead, err := s.lead(ctx, acting, leadID)
	if err != nil {
		return err
	}
	v, err := s.Repo.GetLatestByLead(ctx, lead.ID)
	if err != nil {
		return err
	}
	if v == nil || v.State != models.VerificationPending {
		return ErrCodeInvalid
	}
	now := s.now()
	if now.After(v.ExpiresAt) {
		if err := s.Repo.SetState(ctx, v.ID, models.VerificationExpired, now); err != nil {
			return err
		}
		return ErrCodeExpired
	}

	if err := bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(code)); err != nil {
		attempts, incErr := s.Repo.IncrementAttempts(ctx, v.ID)
		if incErr != nil {
			return incErr
		}
		if attempts >= maxConfirmAttempts {
			if err := s.Repo.SetState(ctx, v.ID, models.VerificationFailed, now); err != nil {
				return err
			}
			return ErrTooManyAttempts
		}
		return ErrCodeInvalid
	}

	if err := s.Repo.SetState(ctx, v.ID, models.VerificationConfirmed, now); err != nil {
		return err
	}
	if err := s.Leads.MarkPhoneVerified(ctx, lead.ID); err != nil {
		return err
	}
	log.Printf("[verify][confirm] OK lead=%d", lead.ID)
	return nil
}

// Status reads the latest verification. A pending code past its expiry is reported as
// expired without writing anything.
func (s *VerificationService) Status(ctx context.Context, acting models.ActingContext, leadID int64) (*models.PhoneVerification, error) {
	lead, err := s.lead(ctx, acting, leadID)
	if err != nil {
		return nil, err
	}
	v, err := s.Repo.GetLatestByLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNoVerification
	}
	if v.State == models.VerificationPending && s.now().After(v.ExpiresAt) {
		v.State = models.VerificationExpired
	}
	return v, nil
}

// Poll repeats Status every interval until a terminal state or ctx is done.
// When ctx ends it returns the last state read together with ctx.Err().
func (s *VerificationService) Poll(ctx context.Context, acting models.ActingContext, leadID int64, interval time.Duration) (*models.PhoneVerification, error) {
	if interval <= 0 {
		return nil, ErrNonPositivePoll
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var last *models.PhoneVerification
	for {
		v, err := s.Status(ctx, acting, leadID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && last != nil {
				return last, ctxErr
			}
			return nil, err
		}
		if v.State.Terminal() {
			return v, nil
		}
		last = v
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
