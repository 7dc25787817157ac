package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lepens-foundation/lepens/config"
	"github.com/lepens-foundation/lepens/services/logging"
)

// Sender delivers a rendered template email. Satisfied by the mail service.
type Sender interface {
	SendTemplate(templateName string, to []string, subject string, data map[string]any) error
}

type Service struct {
	config *config.OutboxConfig
	db     *gorm.DB
	sender Sender
	logger *logging.Service

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewService(cfg *config.OutboxConfig, db *gorm.DB, sender Sender, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		db:     db,
		sender: sender,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// Enqueue records an email for asynchronous delivery. The caller's transaction
// or request outcome never depends on SMTP availability.
func (s *Service) Enqueue(recipient, subject, template string, data map[string]any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode template data: %w", err)
	}

	email := &OutboxEmail{
		Recipient:     recipient,
		Subject:       subject,
		Template:      template,
		Data:          string(encoded),
		NextAttemptAt: time.Now(),
	}

	if err := s.db.Create(email).Error; err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}

	s.logger.Info("email enqueued",
		zap.Uint("outbox_id", email.ID),
		zap.String("template", template),
		zap.String("recipient", recipient))
	return nil
}

// Start launches the background dispatcher.
func (s *Service) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.config.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.DispatchDue()
			}
		}
	}()

	s.logger.Info("outbox dispatcher started",
		zap.Duration("poll_interval", s.config.PollInterval),
		zap.Int("max_attempts", s.config.MaxAttempts))
}

func (s *Service) Stop(ctx context.Context) error {
	close(s.stop)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DispatchDue sends every pending email whose next attempt is due. Returns the
// number of emails delivered.
func (s *Service) DispatchDue() int {
	var pending []OutboxEmail
	err := s.db.
		Where("sent_at IS NULL AND attempts < ? AND next_attempt_at <= ?", s.config.MaxAttempts, time.Now()).
		Order("id").
		Limit(s.config.BatchSize).
		Find(&pending).Error
	if err != nil {
		s.logger.Error("failed to load pending outbox emails", zap.Error(err))
		return 0
	}

	sent := 0
	for i := range pending {
		if s.dispatch(&pending[i]) {
			sent++
		}
	}
	return sent
}

func (s *Service) dispatch(email *OutboxEmail) bool {
	var data map[string]any
	if email.Data != "" {
		if err := json.Unmarshal([]byte(email.Data), &data); err != nil {
			// Undeliverable row; exhaust it rather than retrying forever.
			s.logger.Error("outbox email has corrupt template data",
				zap.Uint("outbox_id", email.ID),
				zap.Error(err))
			email.Attempts = s.config.MaxAttempts
			email.LastError = fmt.Sprintf("corrupt template data: %v", err)
			s.save(email)
			return false
		}
	}

	err := s.sender.SendTemplate(email.Template, []string{email.Recipient}, email.Subject, data)
	email.Attempts++

	if err != nil {
		email.LastError = err.Error()
		email.NextAttemptAt = time.Now().Add(s.backoff(email.Attempts))

		if email.Attempts >= s.config.MaxAttempts {
			s.logger.Error("outbox email exhausted all attempts",
				zap.Uint("outbox_id", email.ID),
				zap.String("template", email.Template),
				zap.Int("attempts", email.Attempts),
				zap.Error(err))
		} else {
			s.logger.Warn("outbox email delivery failed, will retry",
				zap.Uint("outbox_id", email.ID),
				zap.Int("attempts", email.Attempts),
				zap.Time("next_attempt_at", email.NextAttemptAt),
				zap.Error(err))
		}
		s.save(email)
		return false
	}

	now := time.Now()
	email.SentAt = &now
	email.LastError = ""
	s.save(email)

	s.logger.Info("outbox email delivered",
		zap.Uint("outbox_id", email.ID),
		zap.String("template", email.Template),
		zap.Int("attempts", email.Attempts))
	return true
}

func (s *Service) save(email *OutboxEmail) {
	if err := s.db.Save(email).Error; err != nil {
		s.logger.Error("failed to update outbox email",
			zap.Uint("outbox_id", email.ID),
			zap.Error(err))
	}
}

func (s *Service) backoff(attempts int) time.Duration {
	d := s.config.InitialBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
	}
	return d
}
