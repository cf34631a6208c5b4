// Package config loads process configuration from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

// devSessionSecret signs tokens in development when SESSION_SECRET is unset.
const devSessionSecret = "order-desk-development-secret"

type Config struct {
	Port          string   `env:"PORT,            default=8080"`
	Env           string   `env:"ENV,             default=development"`
	LogLevel      string   `env:"LOG_LEVEL,       default=info"`
	CORSOrigins   []string `env:"CORS_ORIGINS,    default=*"`
	AuthRateLimit float64  `env:"AUTH_RATE_LIMIT, default=5"` // per minute per client IP

	// SeedUsers holds "role:email:password:name" entries.
	SeedUsers []string `env:"SEED_USERS"`

	Session   SessionConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	AMQP      AMQPConfig
	Events    EventsConfig
	Lifecycle LifecycleConfig
}

type SessionConfig struct {
	Secret         string        `env:"SESSION_SECRET"`
	TTL            time.Duration `env:"SESSION_TTL,     default=24h"`
	Issuer         string        `env:"SESSION_ISSUER,  default=order-desk"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=order_desk"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// AMQPConfig enables the RabbitMQ event sink when URL is set.
type AMQPConfig struct {
	URL      string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE, default=order_events"`
}

type EventsConfig struct {
	Workers int `env:"EVENT_WORKERS, default=4"`
}

type LifecycleConfig struct {
	AssignRequiresPayment bool `env:"ASSIGN_REQUIRES_PAYMENT, default=false"`
	RevertOnRefusal       bool `env:"REVERT_ON_REFUSAL,       default=false"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		if !c.IsDevelopment() {
			return errors.New("SESSION_SECRET is required outside development")
		}
		c.Session.Secret = devSessionSecret
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.AuthRateLimit <= 0 {
		return errors.New("AUTH_RATE_LIMIT must be positive")
	}
	if _, err := c.StaffSeeds(); err != nil {
		return err
	}
	return nil
}

// LifecyclePolicy returns the order lifecycle flags.
func (c *Config) LifecyclePolicy() domain.LifecyclePolicy {
	return domain.LifecyclePolicy{
		AssignRequiresPayment: c.Lifecycle.AssignRequiresPayment,
		RevertOnRefusal:       c.Lifecycle.RevertOnRefusal,
	}
}

// StaffSeeds parses SEED_USERS. The name is the remainder after the third
// colon, so it may contain colons itself.
func (c *Config) StaffSeeds() ([]ports.StaffSeed, error) {
	seeds := make([]ports.StaffSeed, 0, len(c.SeedUsers))
	for _, raw := range c.SeedUsers {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, ":", 4)
		if len(parts) != 4 || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("SEED_USERS: malformed entry %q, want role:email:password:name", raw)
		}
		role := domain.Role(strings.ToLower(parts[0]))
		if !role.IsStaff() {
			return nil, fmt.Errorf("SEED_USERS: role %q is not a staff role", parts[0])
		}
		seeds = append(seeds, ports.StaffSeed{
			Role:     role,
			Email:    parts[1],
			Password: parts[2],
			Name:     parts[3],
		})
	}
	return seeds, nil
}
