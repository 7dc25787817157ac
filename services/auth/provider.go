package auth

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lepens-foundation/lepens/config"
	"github.com/lepens-foundation/lepens/services/logging"
	"github.com/lepens-foundation/lepens/services/outbox"
)

func ProvideAuthService(cfg *config.Config, db *gorm.DB, outboxService *outbox.Service, logger *logging.Service) *Service {
	return NewService(cfg, db, outboxService, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideAuthService),
)
