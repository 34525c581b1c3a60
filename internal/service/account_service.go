package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"twolaunch/internal/credentials"
	"twolaunch/internal/models"
	"twolaunch/internal/repository"
	"twolaunch/internal/validation"
)

// DefaultInsertAttempts bounds registration retries after a username conflict
const DefaultInsertAttempts = 5

// AccountOptions are the tunables of the account service
type AccountOptions struct {
	PasswordLength int
	InsertAttempts int
	AdminURL       string
}

// RegistrationResult is what a successful registration reports back
type RegistrationResult struct {
	AccountID int64
	Username  string
	SentEmail bool
}

// AccountService handles registration, login and account reads
type AccountService struct {
	accounts *repository.AccountRepository
	sessions *SessionManager
	identity *IdentityGenerator
	mailer   Mailer
	opts     AccountOptions
	logger   zerolog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAccountService creates a new account service
func NewAccountService(accounts *repository.AccountRepository, sessions *SessionManager, identity *IdentityGenerator, mailer Mailer, opts AccountOptions, logger zerolog.Logger) *AccountService {
	if opts.PasswordLength < 1 {
		opts.PasswordLength = credentials.DefaultPasswordLength
	}
	if opts.InsertAttempts < 1 {
		opts.InsertAttempts = DefaultInsertAttempts
	}
	return &AccountService{
		accounts: accounts,
		sessions: sessions,
		identity: identity,
		mailer:   mailer,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates an account with a generated username and password and
// mails the credentials. A mail failure leaves the account in place and is
// reported through SentEmail.
func (s *AccountService) Register(ctx context.Context, reg models.Registration) (*RegistrationResult, error) {
	reg = reg.Trimmed()
	if err := validation.ValidateRegistration(reg); err != nil {
		return nil, err
	}

	password, err := credentials.GeneratePassword(s.opts.PasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	passwordHash, err := credentials.HashPassword(password)
	if err != nil {
		return nil, err
	}
	createdAt := models.FormatTimestamp(s.now())

	// The existence check and the insert are not atomic; the unique index
	// catches the race and a fresh username is drawn.
	var id int64
	var username string
	for attempt := 1; ; attempt++ {
		username = s.identity.GenerateUniqueUsername(ctx, reg.CompanyName)
		id, err = s.accounts.CreateAccount(ctx, reg, username, passwordHash, createdAt)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrUsernameTaken) {
			return nil, err
		}
		if attempt >= s.opts.InsertAttempts {
			return nil, fmt.Errorf("failed to allocate username after %d attempts: %w", attempt, err)
		}
		s.logger.Debug().Str("username", username).Int("attempt", attempt).Msg("username taken at insert, retrying")
	}

	subject, body := WelcomeEmail(reg.FirstName, reg.CompanyName, s.opts.AdminURL, username, password)
	sent := true
	if err := s.mailer.Send(ctx, reg.Email, subject, body); err != nil {
		sent = false
		if !errors.Is(err, ErrMailDisabled) {
			s.logger.Warn().Err(err).Int64("reg_id", id).Msg("welcome email not delivered")
		}
	}

	s.logger.Info().Int64("reg_id", id).Str("username", username).Bool("sent_email", sent).Msg("account registered")

	return &RegistrationResult{
		AccountID: id,
		Username:  username,
		SentEmail: sent,
	}, nil
}

// Login verifies credentials and issues a session. Unknown usernames and
// wrong passwords both return ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.Session, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if err := validation.ValidateLogin(username, password); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		// Spend the same hashing work as a real check
		credentials.CheckPassword(password, s.placeholderHash())
		return nil, ErrInvalidCredentials
	}

	if !credentials.CheckPassword(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.sessions.Create(ctx, account.ID)
}

func (s *AccountService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := credentials.HashPassword("placeholder-password")
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to build placeholder hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// ValidateSession returns the account bound to token
func (s *AccountService) ValidateSession(ctx context.Context, token string) (int64, error) {
	return s.sessions.Validate(ctx, token)
}

// GetAccount retrieves an account by ID
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// GetMetrics computes an account's metrics as of now
func (s *AccountService) GetMetrics(ctx context.Context, id int64) (*models.Metrics, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics := ComputeMetrics(account.Views, account.Orders, account.CreatedAt, s.now())
	return &metrics, nil
}

// ListAccounts returns the public listing of all accounts
func (s *AccountService) ListAccounts(ctx context.Context) ([]models.AccountSummary, error) {
	return s.accounts.ListAccounts(ctx)
}

// CompanyNameExists reports whether a company is already registered
func (s *AccountService) CompanyNameExists(ctx context.Context, name string) (bool, error) {
	return s.accounts.CompanyNameExists(ctx, name)
}

// IncrementView bumps the view counter of an account
func (s *AccountService) IncrementView(ctx context.Context, id int64) error {
	found, err := s.accounts.IncrementViews(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrAccountNotFound
	}
	return nil
}

// DeleteAccount removes an account and its sessions
func (s *AccountService) DeleteAccount(ctx context.Context, id int64) error {
	deleted, err := s.accounts.DeleteAccount(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAccountNotFound
	}
	s.logger.Info().Int64("reg_id", id).Msg("account deleted")
	return nil
}

// SendEmail forwards a message to the mail transport and reports whether it
// was delivered
func (s *AccountService) SendEmail(ctx context.Context, to, subject, body string) (bool, error) {
	to = strings.TrimSpace(to)
	if err := validation.ValidateOutboundEmail(to, subject, body); err != nil {
		return false, err
	}

	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		if !errors.Is(err, ErrMailDisabled) {
			s.logger.Warn().Err(err).Msg("outbound email not delivered")
		}
		return false, nil
	}
	return true, nil
}
