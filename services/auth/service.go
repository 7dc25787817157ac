package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lepens-foundation/lepens/config"
	"github.com/lepens-foundation/lepens/services/logging"
)

var (
	ErrMissingFields          = errors.New("all fields are required")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrEmailAlreadyRegistered = errors.New("email is already registered")
	ErrAccountNotFound        = errors.New("account not found")
	ErrAlreadyVerified        = errors.New("account is already verified")
	ErrCodeInvalidOrExpired   = errors.New("invalid or expired verification code")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrNotVerified            = errors.New("account is not verified")
	ErrPasswordHashingFailed  = errors.New("failed to hash password")
)

// dummyHash keeps the unknown-email login path doing the same bcrypt work as
// the wrong-password path.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Notifier queues an email for asynchronous delivery. Satisfied by the outbox
// service.
type Notifier interface {
	Enqueue(recipient, subject, template string, data map[string]any) error
}

type Service struct {
	config   *config.Config
	db       *gorm.DB
	notifier Notifier
	logger   *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, notifier Notifier, logger *logging.Service) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		config:   cfg,
		db:       db,
		notifier: notifier,
		logger:   logger,
	}
}

// Signup registers an unverified account and queues the verification code
// email. No token is issued until the code is confirmed.
func (s *Service) Signup(name, email, password string) (*Account, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))

	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	if len(password) < s.config.Auth.MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters: %w",
			s.config.Auth.MinPasswordLength, ErrPasswordTooShort)
	}

	var existing Account
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		s.logger.Warn("signup attempted with registered email", zap.String("email", email))
		return nil, ErrEmailAlreadyRegistered
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return nil, ErrPasswordHashingFailed
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	expiresAt := time.Now().Add(s.config.Auth.VerificationCodeExpiry)
	account := &Account{
		Name:                      name,
		Email:                     email,
		Password:                  string(hash),
		Verified:                  false,
		VerificationCode:          &code,
		VerificationCodeExpiresAt: &expiresAt,
	}

	if err := s.db.Create(account).Error; err != nil {
		// The unique index backstops a concurrent signup for the same email.
		if isDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if err := s.notifier.Enqueue(email, "Verify Your LEPENS Admin Account", "verification_code", map[string]any{
		"Name":    name,
		"Code":    code,
		"AppName": s.config.App.Name,
		"Expiry":  s.config.Auth.VerificationCodeExpiry.String(),
	}); err != nil {
		// The account exists either way; the dispatcher owns delivery.
		s.logger.Error("failed to enqueue verification email",
			zap.Uint("account_id", account.ID),
			zap.Error(err))
	}

	s.logger.Info("account created",
		zap.Uint("account_id", account.ID),
		zap.String("email", email),
		zap.Time("code_expires_at", expiresAt))
	return account, nil
}

// VerifyCode confirms the emailed code and marks the account verified. Wrong
// code and expired code report the same error.
func (s *Service) VerifyCode(accountID uint, code string) (*Account, error) {
	var account Account
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if account.Verified {
		return nil, ErrAlreadyVerified
	}

	if account.VerificationCode == nil || account.VerificationCodeExpiresAt == nil ||
		*account.VerificationCode != code ||
		time.Now().After(*account.VerificationCodeExpiresAt) {
		s.logger.Warn("verification code rejected", zap.Uint("account_id", account.ID))
		return nil, ErrCodeInvalidOrExpired
	}

	updates := map[string]any{
		"verified":                     true,
		"verification_code":            nil,
		"verification_code_expires_at": nil,
	}
	if err := s.db.Model(&account).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to mark account verified: %w", err)
	}

	account.Verified = true
	account.VerificationCode = nil
	account.VerificationCodeExpiresAt = nil

	s.logger.Info("account verified", zap.Uint("account_id", account.ID))
	return &account, nil
}

// Login authenticates a verified account. Unknown email and wrong password
// return the identical error.
func (s *Service) Login(email, password string) (*Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	var account Account
	err := s.db.Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		s.logger.Warn("login failed: password mismatch", zap.Uint("account_id", account.ID))
		return nil, ErrInvalidCredentials
	}

	if !account.Verified {
		s.logger.Warn("login rejected: account not verified", zap.Uint("account_id", account.ID))
		return nil, ErrNotVerified
	}

	s.logger.Info("login successful", zap.Uint("account_id", account.ID))
	return &account, nil
}

// ByID loads an account with the password hash cleared.
func (s *Service) ByID(accountID uint) (*Account, error) {
	var account Account
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	account.Password = ""
	return &account, nil
}

func (s *Service) Projection(account *Account) Projection {
	return Projection{
		ID:    account.ID,
		Name:  account.Name,
		Email: account.Email,
	}
}

// generateVerificationCode draws a uniform 6-digit code from
// [100000, 999999].
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}
