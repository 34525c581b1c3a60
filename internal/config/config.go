package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// MaxPasswordLength is the longest input bcrypt accepts, in bytes
const MaxPasswordLength = 72

// Config holds application configuration
type Config struct {
	ServerPort   string `env:"PORT,default=5000"`
	DatabaseType string `env:"DB_TYPE,default=sqlite"`
	DatabasePath string `env:"DB_PATH,default=database.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	SessionDuration      time.Duration `env:"SESSION_DURATION,default=168h"`
	SessionPruneInterval time.Duration `env:"SESSION_PRUNE_INTERVAL,default=0s"`

	UsernameAttempts       int `env:"USERNAME_ATTEMPTS,default=20"`
	RegisterInsertAttempts int `env:"REGISTER_INSERT_ATTEMPTS,default=5"`
	PasswordLength         int `env:"PASSWORD_LENGTH,default=10"`

	AdminURL     string `env:"ADMIN_URL,default=http://127.0.0.1:5500/admin.html"`
	AWSRegion    string `env:"AWS_REGION,default=eu-central-1"`
	SESFromEmail string `env:"SES_FROM_EMAIL"`
	SESFromName  string `env:"SES_FROM_NAME,default=2Launch"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=*"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=console"`
	Debug     bool   `env:"DEBUG,default=false"`
}

// Load reads configuration from an optional .env file and the environment.
func Load(ctx context.Context) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the components cannot work with.
func (c *Config) Validate() error {
	if c.SessionDuration <= 0 {
		return fmt.Errorf("SESSION_DURATION must be positive, got %s", c.SessionDuration)
	}
	if c.UsernameAttempts < 1 {
		return fmt.Errorf("USERNAME_ATTEMPTS must be at least 1, got %d", c.UsernameAttempts)
	}
	if c.RegisterInsertAttempts < 1 {
		return fmt.Errorf("REGISTER_INSERT_ATTEMPTS must be at least 1, got %d", c.RegisterInsertAttempts)
	}
	if c.PasswordLength < 1 || c.PasswordLength > MaxPasswordLength {
		return fmt.Errorf("PASSWORD_LENGTH must be between 1 and %d, got %d", MaxPasswordLength, c.PasswordLength)
	}
	return nil
}
