package outbox

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lepens-foundation/lepens/config"
	"github.com/lepens-foundation/lepens/services/logging"
	"github.com/lepens-foundation/lepens/services/mail"
)

func ProvideOutboxService(cfg *config.Config, db *gorm.DB, mailService *mail.Service, logger *logging.Service) *Service {
	return NewService(&cfg.Outbox, db, mailService, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideOutboxService),
	fx.Invoke(func(lc fx.Lifecycle, svc *Service) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				svc.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return svc.Stop(ctx)
			},
		})
	}),
)
