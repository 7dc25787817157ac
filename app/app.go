package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/lepens-foundation/lepens/config"
	"github.com/lepens-foundation/lepens/database"
	"github.com/lepens-foundation/lepens/handlers"
	"github.com/lepens-foundation/lepens/server"
	"github.com/lepens-foundation/lepens/services/auth"
	"github.com/lepens-foundation/lepens/services/jwt"
	"github.com/lepens-foundation/lepens/services/logging"
	"github.com/lepens-foundation/lepens/services/mail"
	"github.com/lepens-foundation/lepens/services/messages"
	"github.com/lepens-foundation/lepens/services/outbox"
)

type App struct {
	fx     *fx.App
	logger *logging.Service
}

// New assembles the application. A nil cfg loads configuration from the
// environment.
func New(cfg *config.Config) *App {
	app := &App{}

	app.fx = fx.New(
		config.NewProvider(cfg),
		logging.Module,
		fx.Supply(database.WithModels(
			&auth.Account{},
			&messages.ContactMessage{},
			&outbox.OutboxEmail{},
		)),
		database.Module,
		mail.Module,
		outbox.Module,
		jwt.Module,
		auth.Module,
		messages.Module,
		server.NewProvider(),
		handlers.Module,
		fx.Populate(&app.logger),
		fx.WithLogger(func(logger *logging.Service) fxevent.Logger {
			if logger.Logger() == nil {
				return fxevent.NopLogger
			}
			return &fxevent.ZapLogger{Logger: logger.Logger()}
		}),
	)

	return app
}

func (a *App) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Run starts the application and blocks until SIGINT or SIGTERM, then shuts
// down gracefully.
func (a *App) Run() {
	if err := a.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	a.logger.Info("Received shutdown signal, stopping gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Stop(ctx); err != nil {
		a.logger.Error("Failed to stop application gracefully")
	}

	_ = a.logger.Sync()
}
