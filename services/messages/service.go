package messages

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lepens-foundation/lepens/config"
	"github.com/lepens-foundation/lepens/services/logging"
)

var (
	ErrMissingFields   = errors.New("all fields are required")
	ErrMessageNotFound = errors.New("message not found")
)

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
	return &Service{
		config:   cfg,
		db:       db,
		notifier: notifier,
		logger:   logger,
	}
}

// Submit stores a contact-form message and queues the admin notification
// email. The stored message is the source of truth; delivery is retried by the
// outbox dispatcher and never blocks or fails the submission.
func (s *Service) Submit(fullName, email, subject, body string) (*ContactMessage, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)

	if fullName == "" || email == "" || subject == "" || body == "" {
		return nil, ErrMissingFields
	}

	message := &ContactMessage{
		FullName: fullName,
		Email:    email,
		Subject:  subject,
		Body:     body,
	}

	if err := s.db.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	if s.config.Mail.AdminAddress != "" {
		err := s.notifier.Enqueue(s.config.Mail.AdminAddress,
			fmt.Sprintf("New Contact Message: %s", subject),
			"contact_notification", map[string]any{
				"FullName": fullName,
				"Email":    email,
				"Subject":  subject,
				"Message":  body,
				"AppName":  s.config.App.Name,
			})
		if err != nil {
			s.logger.Error("failed to enqueue contact notification",
				zap.Uint("message_id", message.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("contact message stored",
		zap.Uint("message_id", message.ID),
		zap.String("subject", subject))
	return message, nil
}

// List returns every stored message in storage order.
func (s *Service) List() ([]ContactMessage, error) {
	var list []ContactMessage
	if err := s.db.Order("id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return list, nil
}

func (s *Service) GetByID(id uint) (*ContactMessage, error) {
	var message ContactMessage
	if err := s.db.First(&message, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	return &message, nil
}

// Delete removes a message permanently. No soft-delete row or audit trail is
// kept.
func (s *Service) Delete(id uint) error {
	result := s.db.Unscoped().Delete(&ContactMessage{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}

	s.logger.Info("contact message deleted", zap.Uint("message_id", id))
	return nil
}
