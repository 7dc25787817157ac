package jwt

import (
	"github.com/lepens-foundation/lepens/config"
	"github.com/lepens-foundation/lepens/services/logging"
	"go.uber.org/fx"
)

func ProvideJWTService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(&cfg.JWT, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideJWTService),
)
