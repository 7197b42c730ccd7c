package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, auth secrets)
// - default: Values common across all environments (intervals, timeouts)
// Remote backend settings are intentionally NOT required: an empty DB_HOST
// means the ledger runs local-only on the device store.
// -----------------------------------------------------------------------------

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Local    LocalConfig
	Sync     SyncConfig
	CORS     CORSConfig
	Log      LogConfig
	Auth     AuthConfig
	Notifier NotifierConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

// DBConfig describes the optional remote relational backend.
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:""`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"voucherpos"`
	Password string `envconfig:"DB_PASSWORD" default:""`
	DBName   string `envconfig:"DB_NAME" default:"voucherpos"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Asia/Jakarta"`
}

// LocalConfig describes the on-device sqlite store.
type LocalConfig struct {
	Path string `envconfig:"LOCAL_DB_PATH" default:"voucherpos.db"`
}

type SyncConfig struct {
	ProbeURL      string        `envconfig:"SYNC_PROBE_URL" default:""`
	ProbeTimeout  time.Duration `envconfig:"SYNC_PROBE_TIMEOUT" default:"3s"`
	CheckInterval time.Duration `envconfig:"SYNC_CHECK_INTERVAL" default:"30s"`
	DrainInterval time.Duration `envconfig:"SYNC_DRAIN_INTERVAL" default:"5s"`
	MaxRetries    int           `envconfig:"SYNC_MAX_RETRIES" default:"3"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Jakarta"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"25200"` // 7*60*60
}

type AuthConfig struct {
	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	TokenDuration string `envconfig:"JWT_DURATION" default:"24h"`
	// bcrypt hash of the single operator's PIN
	OperatorPinHash string `envconfig:"OPERATOR_PIN_HASH" required:"true"`
	OperatorName    string `envconfig:"OPERATOR_NAME" default:"operator"`
}

type NotifierConfig struct {
	WebhookURL     string        `envconfig:"NOTIFIER_WEBHOOK_URL" default:""`
	WebhookTimeout time.Duration `envconfig:"NOTIFIER_WEBHOOK_TIMEOUT" default:"5s"`
}

// Configured reports whether a remote backend is set up. The record stores
// route writes remote-first only when this is true.
func (c *DBConfig) Configured() bool {
	return c.Host != ""
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	// .env is a development convenience; on the device everything comes from
	// the service environment.
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "", // local-only by default in tests
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "Asia/Jakarta",
		},
		Local: LocalConfig{
			Path: ":memory:",
		},
		Sync: SyncConfig{
			ProbeTimeout:  time.Second,
			CheckInterval: 30 * time.Second,
			DrainInterval: 5 * time.Second,
			MaxRetries:    3,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Asia/Jakarta",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 25200,
		},
		Auth: AuthConfig{
			JWTSecret:     "test-secret",
			TokenDuration: "1h",
			OperatorName:  "test-operator",
		},
	}
}
