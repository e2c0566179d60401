package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMySQL  = "mysql"
	StoreMemory = "memory"

	MailSMTP     = "smtp"
	MailPostmark = "postmark"
	MailLog      = "log"
)

type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	GRPC      GRPCConfig
	Store     StoreConfig
	JWT       JWTConfig
	Tokens    TokenConfig
	Password  PasswordConfig
	Mail      MailConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type AppConfig struct {
	FrontendURL    string
	AllowedOrigins []string
}

type HTTPConfig struct {
	Host string
	Port string
}

type GRPCConfig struct {
	Host string
	Port string
}

type StoreConfig struct {
	Driver string
	Mongo  MongoConfig
	MySQL  MySQLConfig
}

type MongoConfig struct {
	URL            string
	Database       string
	ConnectTimeout time.Duration
	RetryAttempts  int
	RetryInterval  time.Duration
}

type MySQLConfig struct {
	DSN string
}

type JWTConfig struct {
	AccessSecret    string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type TokenConfig struct {
	VerificationTTL       time.Duration
	ResendVerificationTTL time.Duration
	ResetTTL              time.Duration
}

type PasswordConfig struct {
	BcryptCost        int
	RegisterMinLength int
	ResetMinLength    int
	ChangeMinLength   int
}

type MailConfig struct {
	Driver   string
	From     string
	FromName string
	SMTP     SMTPConfig
	Postmark PostmarkConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
}

type RateLimitConfig struct {
	Enabled bool
	Rate    string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	accessSecret := os.Getenv("JWT_SECRET")
	if accessSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	refreshSecret := os.Getenv("REFRESH_TOKEN_SECRET")
	if refreshSecret == "" {
		return nil, errors.New("REFRESH_TOKEN_SECRET environment variable is required")
	}

	cfg := &Config{
		App: AppConfig{
			FrontendURL:    strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		HTTP: HTTPConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: GRPCConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
			Mongo: MongoConfig{
				URL:            os.Getenv("MONGODB_URL"),
				Database:       getEnv("MONGODB_DATABASE", "academy"),
				ConnectTimeout: getDurationEnv("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
				RetryAttempts:  getIntEnv("MONGODB_RETRY_ATTEMPTS", 3),
				RetryInterval:  getDurationEnv("MONGODB_RETRY_INTERVAL", 5*time.Second),
			},
			MySQL: MySQLConfig{
				DSN: os.Getenv("MYSQL_DSN"),
			},
		},
		JWT: JWTConfig{
			AccessSecret:    accessSecret,
			RefreshSecret:   refreshSecret,
			AccessTokenTTL:  getDurationEnv("JWT_EXPIRE_TIME", time.Hour),
			RefreshTokenTTL: getDurationEnv("JWT_REFRESH_EXPIRE_TIME", 7*24*time.Hour),
		},
		Tokens: TokenConfig{
			VerificationTTL:       getDurationEnv("VERIFICATION_TOKEN_TTL", 15*time.Minute),
			ResendVerificationTTL: getDurationEnv("RESEND_VERIFICATION_TOKEN_TTL", 24*time.Hour),
			ResetTTL:              getDurationEnv("RESET_TOKEN_TTL", 15*time.Minute),
		},
		Password: PasswordConfig{
			BcryptCost:        getIntEnv("BCRYPT_COST", 10),
			RegisterMinLength: getIntEnv("PASSWORD_REGISTER_MIN_LENGTH", 8),
			ResetMinLength:    getIntEnv("PASSWORD_RESET_MIN_LENGTH", 6),
			ChangeMinLength:   getIntEnv("PASSWORD_CHANGE_MIN_LENGTH", 8),
		},
		Mail: MailConfig{
			Driver:   strings.ToLower(getEnv("MAIL_DRIVER", MailLog)),
			From:     getEnv("MAIL_FROM", "no-reply@localhost"),
			FromName: getEnv("MAIL_FROM_NAME", "Academy"),
			SMTP: SMTPConfig{
				Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
				Port:     getIntEnv("SMTP_PORT", 587),
				Username: os.Getenv("SMTP_USERNAME"),
				Password: os.Getenv("SMTP_PASSWORD"),
			},
			Postmark: PostmarkConfig{
				ServerToken:  os.Getenv("POSTMARK_SERVER_TOKEN"),
				AccountToken: os.Getenv("POSTMARK_ACCOUNT_TOKEN"),
			},
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolEnv("RATE_LIMIT_ENABLED", true),
			Rate:    getEnv("RATE_LIMIT", "10-M"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreMongo:
		if c.Store.Mongo.URL == "" {
			return errors.New("MONGODB_URL environment variable is required for the mongo store")
		}
	case StoreMySQL:
		if c.Store.MySQL.DSN == "" {
			return errors.New("MYSQL_DSN environment variable is required for the mysql store")
		}
		dsn, err := normalizeMySQLDSN(c.Store.MySQL.DSN)
		if err != nil {
			return fmt.Errorf("invalid MYSQL_DSN: %w", err)
		}
		c.Store.MySQL.DSN = dsn
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Mail.Driver {
	case MailSMTP:
		if c.Mail.SMTP.Host == "" {
			return errors.New("SMTP_HOST environment variable is required for the smtp mailer")
		}
	case MailPostmark:
		if c.Mail.Postmark.ServerToken == "" || c.Mail.Postmark.AccountToken == "" {
			return errors.New("POSTMARK_SERVER_TOKEN and POSTMARK_ACCOUNT_TOKEN are required for the postmark mailer")
		}
	case MailLog:
	default:
		return fmt.Errorf("unsupported MAIL_DRIVER %q", c.Mail.Driver)
	}

	return nil
}

// normalizeMySQLDSN forces the driver flags the mysql store depends on:
// DATETIME columns scan into time.Time and guarded updates count matched rows.
func normalizeMySQLDSN(dsn string) (string, error) {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	parsed.ParseTime = true
	parsed.ClientFoundRows = true
	return parsed.FormatDSN(), nil
}

func (c *Config) HTTPAddr() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}

func (c *Config) GRPCAddr() string {
	return c.GRPC.Host + ":" + c.GRPC.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv accepts a Go duration ("15m", "7d" is not valid) or a bare
// number of minutes.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
