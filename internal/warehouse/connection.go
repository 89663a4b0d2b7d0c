package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"
	"github.com/snowflakedb/gosnowflake"
)

const (
	AuthModeOAuth    = "oauth"
	AuthModePassword = "password"

	// DefaultTokenFile is where managed Snowflake containers mount the session token.
	DefaultTokenFile = "/snowflake/session/token"
)

var (
	// ErrInvalidConfig is returned when the warehouse configuration is incomplete.
	ErrInvalidConfig = errors.New("invalid warehouse configuration")

	validate = validator.New()
)

// Auth selects how the connection authenticates. It is one of TokenFileAuth or
// CredentialAuth.
type Auth interface {
	Mode() string
	isAuth()
}

// TokenFileAuth authenticates with an OAuth token read from Path.
type TokenFileAuth struct {
	Path string `validate:"required"`
}

func (TokenFileAuth) Mode() string { return AuthModeOAuth }
func (TokenFileAuth) isAuth()      {}

// CredentialAuth authenticates with a username/password pair.
type CredentialAuth struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

func (CredentialAuth) Mode() string { return AuthModePassword }
func (CredentialAuth) isAuth()      {}

// Config identifies the target warehouse and how to reach it.
type Config struct {
	Account   string `validate:"required"`
	Host      string
	Database  string `validate:"required"`
	Schema    string `validate:"required"`
	Warehouse string `validate:"required"`
	Role      string
	Table     string `validate:"required"`
	Auth      Auth   `validate:"required"`
}

// Open builds an authenticated handle to the warehouse and verifies it with a
// ping. The caller owns the returned handle.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	dc, err := cfg.driverConfig()
	if err != nil {
		return nil, err
	}

	dsn, err := gosnowflake.DSN(dc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	log.Info().
		Str("account", cfg.Account).
		Str("database", cfg.Database).
		Str("schema", cfg.Schema).
		Str("auth", cfg.Auth.Mode()).
		Msg("connecting to snowflake")

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snowflake: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping snowflake: %w", err)
	}
	return db, nil
}

func (c Config) driverConfig() (*gosnowflake.Config, error) {
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validate.Struct(c.Auth); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	dc := &gosnowflake.Config{
		Account:   c.Account,
		Host:      c.Host,
		Database:  c.Database,
		Schema:    c.Schema,
		Warehouse: c.Warehouse,
	}

	switch auth := c.Auth.(type) {
	case TokenFileAuth:
		if c.Host == "" {
			return nil, fmt.Errorf("%w: host is required for oauth", ErrInvalidConfig)
		}
		token, err := os.ReadFile(auth.Path)
		if err != nil {
			return nil, fmt.Errorf("read token file: %w", err)
		}
		dc.Authenticator = gosnowflake.AuthTypeOAuth
		dc.Token = strings.TrimSpace(string(token))
	case CredentialAuth:
		dc.User = auth.Username
		dc.Password = auth.Password
		dc.Role = c.Role
	default:
		return nil, fmt.Errorf("%w: unsupported auth %T", ErrInvalidConfig, c.Auth)
	}

	return dc, nil
}
