// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package config

import (
	"fmt"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Token    TokenConfig
	OTP      OTPConfig
	Google   GoogleConfig
	SMTP     SMTPConfig
	Storage  StorageConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	FrontendURL string // where the OAuth callback redirects to
	MaxBodySize int    // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

// TokenConfig holds the JWT signing material. Access and refresh tokens are
// signed with distinct secrets so compromise of one cannot forge the other.
type TokenConfig struct {
	AccessSecret     string
	RefreshSecret    string
	AccessTTLMinutes int
	RefreshTTLHours  int
}

type OTPConfig struct {
	ExpiryMinutes int
	ResendSeconds int // minimum interval between resends
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	StateSecret  string // 32-byte hex key signing the OAuth state cookie
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	From     string
	FromName string
	Username string
	Password string
	TLS      bool
}

type StorageConfig struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for S3-compatible stores
	AccessKey string
	SecretKey string
	BaseURL   string // public URL prefix for uploaded objects
}

func NewFromCLI(cmd *cli.Command) *Config {
	return &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			FrontendURL: cmd.String("frontend-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		Token: TokenConfig{
			AccessSecret:     cmd.String("access-token-secret"),
			RefreshSecret:    cmd.String("refresh-token-secret"),
			AccessTTLMinutes: int(cmd.Int("access-token-ttl")),
			RefreshTTLHours:  int(cmd.Int("refresh-token-ttl")),
		},
		OTP: OTPConfig{
			ExpiryMinutes: int(cmd.Int("otp-expiry")),
			ResendSeconds: int(cmd.Int("otp-resend-interval")),
		},
		Google: GoogleConfig{
			ClientID:     cmd.String("google-client-id"),
			ClientSecret: cmd.String("google-client-secret"),
			StateSecret:  cmd.String("oauth-state-secret"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Storage: StorageConfig{
			Bucket:    cmd.String("storage-bucket"),
			Region:    cmd.String("storage-region"),
			Endpoint:  cmd.String("storage-endpoint"),
			AccessKey: cmd.String("storage-access-key"),
			SecretKey: cmd.String("storage-secret-key"),
			BaseURL:   cmd.String("storage-base-url"),
		},
	}
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Token.AccessSecret == "" || c.Token.RefreshSecret == "" {
		return fmt.Errorf("access and refresh token secrets are required")
	}
	if c.Token.AccessSecret == c.Token.RefreshSecret {
		return fmt.Errorf("access and refresh token secrets must differ")
	}
	if c.Google.ClientID != "" && c.Google.StateSecret == "" {
		return fmt.Errorf("oauth state secret is required when google login is configured")
	}
	return nil
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "frontend-url",
			Value:   "http://localhost:3000",
			Usage:   "Frontend base URL for OAuth redirects",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FRONTEND_URL"), toml.TOML("server.frontend_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   10,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/devshelf.db",
			Usage:   "Database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		&cli.StringFlag{
			Name:    "access-token-secret",
			Usage:   "Secret signing access tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ACCESS_TOKEN_SECRET"), toml.TOML("token.access_secret", configFile)),
		},
		&cli.StringFlag{
			Name:    "refresh-token-secret",
			Usage:   "Secret signing refresh tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REFRESH_TOKEN_SECRET"), toml.TOML("token.refresh_secret", configFile)),
		},
		&cli.IntFlag{
			Name:    "access-token-ttl",
			Value:   15,
			Usage:   "Access token lifetime in minutes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ACCESS_TOKEN_TTL"), toml.TOML("token.access_ttl", configFile)),
		},
		&cli.IntFlag{
			Name:    "refresh-token-ttl",
			Value:   168,
			Usage:   "Refresh token lifetime in hours",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REFRESH_TOKEN_TTL"), toml.TOML("token.refresh_ttl", configFile)),
		},
		&cli.IntFlag{
			Name:    "otp-expiry",
			Value:   10,
			Usage:   "OTP code lifetime in minutes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("OTP_EXPIRY"), toml.TOML("otp.expiry", configFile)),
		},
		&cli.IntFlag{
			Name:    "otp-resend-interval",
			Value:   60,
			Usage:   "Minimum seconds between OTP resends",
			Sources: cli.NewValueSourceChain(cli.EnvVar("OTP_RESEND_INTERVAL"), toml.TOML("otp.resend_interval", configFile)),
		},
		&cli.StringFlag{
			Name:    "google-client-id",
			Usage:   "Google OAuth client ID",
			Sources: cli.NewValueSourceChain(cli.EnvVar("GOOGLE_CLIENT_ID"), toml.TOML("google.client_id", configFile)),
		},
		&cli.StringFlag{
			Name:    "google-client-secret",
			Usage:   "Google OAuth client secret",
			Sources: cli.NewValueSourceChain(cli.EnvVar("GOOGLE_CLIENT_SECRET"), toml.TOML("google.client_secret", configFile)),
		},
		&cli.StringFlag{
			Name:    "oauth-state-secret",
			Usage:   "Key signing the OAuth state cookie (32-byte hex)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("OAUTH_STATE_SECRET"), toml.TOML("google.state_secret", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address for outbound mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "devshelf",
			Usage:   "Sender display name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("smtp.password", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
		&cli.StringFlag{
			Name:    "storage-bucket",
			Usage:   "S3 bucket for uploads (uploads disabled if empty)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STORAGE_BUCKET"), toml.TOML("storage.bucket", configFile)),
		},
		&cli.StringFlag{
			Name:    "storage-region",
			Value:   "us-east-1",
			Usage:   "S3 region",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STORAGE_REGION"), toml.TOML("storage.region", configFile)),
		},
		&cli.StringFlag{
			Name:    "storage-endpoint",
			Usage:   "Custom S3 endpoint (for S3-compatible stores)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STORAGE_ENDPOINT"), toml.TOML("storage.endpoint", configFile)),
		},
		&cli.StringFlag{
			Name:    "storage-access-key",
			Usage:   "S3 access key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STORAGE_ACCESS_KEY"), toml.TOML("storage.access_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "storage-secret-key",
			Usage:   "S3 secret key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STORAGE_SECRET_KEY"), toml.TOML("storage.secret_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "storage-base-url",
			Usage:   "Public URL prefix for uploaded objects",
			Sources: cli.NewValueSourceChain(cli.EnvVar("STORAGE_BASE_URL"), toml.TOML("storage.base_url", configFile)),
		},
	}
}
