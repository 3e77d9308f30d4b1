// Package config loads Tracehub settings with viper. Environment variables
// win over config.yaml, which wins over the built-in defaults.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the root configuration structure.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Log          LogConfig          `mapstructure:"log"`
	River        RiverConfig        `mapstructure:"river"`
	Security     SecurityConfig     `mapstructure:"security"`
	Worker       WorkerConfig       `mapstructure:"worker"`
	Notification NotificationConfig `mapstructure:"notification"`
	Mail         MailConfig         `mapstructure:"mail"`
	SMS          SMSConfig          `mapstructure:"sms"`
	Push         PushConfig         `mapstructure:"push"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                  int           `mapstructure:"port"`
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	WriteTimeout          time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout       time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins        []string      `mapstructure:"allowed_origins"`
	AllowCredentials      bool          `mapstructure:"allow_credentials"`
	UnsafeAllowAllOrigins bool          `mapstructure:"unsafe_allow_all_origins"`
	ValidateContract      bool          `mapstructure:"validate_contract"`
}

// DatabaseConfig contains PostgreSQL connection settings.
// The pool is shared by the notification store and River.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// RedisConfig configures the activity store. An empty Addr disables Redis and
// recipient activity falls back to users.last_active_at.
type RedisConfig struct {
	Addr           string        `mapstructure:"addr"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	ActivityWindow time.Duration `mapstructure:"activity_window"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// RiverConfig contains River Queue settings.
type RiverConfig struct {
	MaxWorkers                  int           `mapstructure:"max_workers"`
	CompletedJobRetentionPeriod time.Duration `mapstructure:"completed_job_retention_period"`
}

// SecurityConfig contains security-related settings.
type SecurityConfig struct {
	JWTSigningKey string `mapstructure:"jwt_signing_key"`
	JWTIssuer     string `mapstructure:"jwt_issuer"`
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	GeneralPoolSize  int `mapstructure:"general_pool_size"`
	DispatchPoolSize int `mapstructure:"dispatch_pool_size"`
}

// NotificationConfig drives content generation and deep links.
type NotificationConfig struct {
	// BaseURL is used when a tenant has no base URL of its own.
	BaseURL       string   `mapstructure:"base_url"`
	DefaultLocale string   `mapstructure:"default_locale"`
	Locales       []string `mapstructure:"locales"`
	// DispatchAsync routes Dispatcher.Send through the dispatch_notification job.
	DispatchAsync bool `mapstructure:"dispatch_async"`
	// SMSEnabled makes dispatch also call SendSMS. Send alone never texts.
	SMSEnabled bool `mapstructure:"sms_enabled"`
}

// MailConfig configures the SMTP transport used by the send_email worker.
type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Enabled reports whether an SMTP host is configured.
func (c MailConfig) Enabled() bool {
	return c.Host != ""
}

// SMSConfig selects and configures the SMS provider.
type SMSConfig struct {
	Provider        string `mapstructure:"provider"` // none or aliyun
	RegionID        string `mapstructure:"region_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	SignName        string `mapstructure:"sign_name"`
	TemplateCode    string `mapstructure:"template_code"`
}

// PushConfig configures Firebase Cloud Messaging. Empty CredentialsFile keeps
// the push channel as a no-op.
type PushConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

// ConfigFileEnv names an explicit config file, overriding the search path.
const ConfigFileEnv = "TRACEHUB_CONFIG"

var searchPaths = []string{".", "./config", "/etc/tracehub"}

// defaults are applied beneath the config file and the environment. Every
// key an operator may set through the environment needs an entry here, or
// AutomaticEnv cannot see it.
var defaults = map[string]any{
	"server.port":                     8080,
	"server.read_timeout":             "30s",
	"server.write_timeout":            "30s",
	"server.shutdown_timeout":         "30s",
	"server.allowed_origins":          []string{},
	"server.allow_credentials":        true,
	"server.unsafe_allow_all_origins": false,
	"server.validate_contract":        true,

	"database.url":                "",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "tracehub",
	"database.password":           "",
	"database.database":           "tracehub",
	"database.sslmode":            "disable",
	"database.max_conns":          50,
	"database.min_conns":          5,
	"database.max_conn_lifetime":  "1h",
	"database.max_conn_idle_time": "10m",
	"database.auto_migrate":       false,

	"redis.addr":            "",
	"redis.password":        "",
	"redis.db":              0,
	"redis.activity_window": "720h",

	"log.level":  "info",
	"log.format": "json",

	"river.max_workers":                    10,
	"river.completed_job_retention_period": "24h",

	"security.jwt_signing_key": "",
	"security.jwt_issuer":      "tracehub",

	"worker.general_pool_size":  100,
	"worker.dispatch_pool_size": 20,

	"notification.base_url":       "http://localhost:3000",
	"notification.default_locale": "en",
	"notification.locales":        []string{"en", "fr", "es"},
	"notification.dispatch_async": true,
	"notification.sms_enabled":    false,

	"mail.host":     "",
	"mail.port":     465,
	"mail.username": "",
	"mail.password": "",
	"mail.from":     "",

	"sms.provider":          "none",
	"sms.region_id":         "cn-hangzhou",
	"sms.access_key_id":     "",
	"sms.access_key_secret": "",
	"sms.sign_name":         "",
	"sms.template_code":     "",

	"push.credentials_file": "",
}

// Load reads defaults, then the config file, then the environment. There is
// no env prefix: notification.base_url is NOTIFICATION_BASE_URL.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := strings.TrimSpace(os.Getenv(ConfigFileEnv)); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range searchPaths {
			v.AddConfigPath(path)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.ensureSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	if len(c.Security.JWTSigningKey) < 32 {
		fail("security.jwt_signing_key must be at least 32 characters")
	}

	n := c.Notification
	switch {
	case n.DefaultLocale == "":
		fail("notification.default_locale must not be empty")
	case len(n.Locales) > 0 && !slices.Contains(n.Locales, n.DefaultLocale):
		fail("notification.default_locale %q is not in notification.locales", n.DefaultLocale)
	}

	smsConfigured := false
	switch c.SMS.Provider {
	case "", "none":
	case "aliyun":
		smsConfigured = true
		if c.SMS.AccessKeyID == "" || c.SMS.AccessKeySecret == "" {
			fail("sms.access_key_id and sms.access_key_secret are required for provider aliyun")
		}
		if c.SMS.TemplateCode == "" {
			fail("sms.template_code is required for provider aliyun")
		}
	default:
		fail("sms.provider %q is not supported", c.SMS.Provider)
	}
	if n.SMSEnabled && !smsConfigured {
		fail("notification.sms_enabled requires an sms.provider")
	}

	if c.Mail.Enabled() && c.Mail.From == "" {
		fail("mail.from must be set when mail.host is configured")
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ensureSecrets fills in a random JWT signing key when none is configured.
// Tokens then stop validating on every restart, so a warning is written
// before the process logger exists.
func (c *Config) ensureSecrets() error {
	if c.Security.JWTSigningKey != "" {
		return nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("generate jwt signing key: %w", err)
	}
	c.Security.JWTSigningKey = hex.EncodeToString(key)
	bootstrapLogger().Warn("generated an ephemeral jwt signing key; set SECURITY_JWT_SIGNING_KEY to keep sessions across restarts")
	return nil
}

var bootstrapLogger = sync.OnceValue(func() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.InitialFields = map[string]any{"service": "tracehub", "phase": "config"}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
})
