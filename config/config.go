package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig      `envPrefix:"APP_"`
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Log      LogConfig      `envPrefix:"LOG_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	JWT      JWTConfig      `envPrefix:"JWT_"`
	Mail     MailConfig     `envPrefix:"MAIL_"`
	Outbox   OutboxConfig   `envPrefix:"OUTBOX_"`
	CORS     CORSConfig     `envPrefix:"CORS_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"LEPENS Foundation"`
	URL  string `env:"URL" envDefault:"http://localhost:8080"`
}

type ServerConfig struct {
	Host string `env:"HOST" envDefault:"localhost"`
	Port string `env:"PORT" envDefault:"8080"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"lepens.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type AuthConfig struct {
	MinPasswordLength      int           `env:"MIN_PASSWORD_LENGTH" envDefault:"6"`
	BcryptCost             int           `env:"BCRYPT_COST" envDefault:"10"`
	VerificationCodeExpiry time.Duration `env:"VERIFICATION_CODE_EXPIRY" envDefault:"10m"`
}

type JWTConfig struct {
	SecretKey    string        `env:"SECRET_KEY"`
	Issuer       string        `env:"ISSUER" envDefault:"lepens"`
	AccessExpiry time.Duration `env:"ACCESS_EXPIRY" envDefault:"168h"`
}

type MailConfig struct {
	Host         string `env:"HOST" envDefault:"localhost"`
	Port         int    `env:"PORT" envDefault:"587"`
	Username     string `env:"USERNAME"`
	Password     string `env:"PASSWORD"`
	Encryption   string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress  string `env:"FROM_ADDRESS"`
	FromName     string `env:"FROM_NAME" envDefault:"LEPENS Admin"`
	TemplatesDir string `env:"TEMPLATES_DIR" envDefault:"templates/mail"`
	AdminAddress string `env:"ADMIN_ADDRESS"`
}

type OutboxConfig struct {
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"15s"`
	BatchSize      int           `env:"BATCH_SIZE" envDefault:"10"`
	MaxAttempts    int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF" envDefault:"30s"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

func LoadConfig(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return Validate(cfg)
}

func Validate(cfg *Config) error {
	if err := validateJWTConfig(&cfg.JWT); err != nil {
		return err
	}

	switch cfg.Database.Driver {
	case "sqlite", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	return nil
}

func validateJWTConfig(cfg *JWTConfig) error {
	if cfg.SecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(cfg.SecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters, got %d", len(cfg.SecretKey))
	}
	if cfg.AccessExpiry <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRY must be positive")
	}
	return nil
}
