package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AppConfig holds the application configuration.
type AppConfig struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"APP_ENV" envDefault:"development"` // "development", "staging", "production"
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppVersion  string `env:"APP_VERSION" envDefault:"unknown"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"lifelog"`
	DBPassword  string `env:"DB_PASSWORD" envDefault:"lifelog"`
	DBName      string `env:"DB_NAME" envDefault:"lifelog"`
	DBSSLMode   string `env:"DB_SSLMODE" envDefault:"disable"`

	JWTSecret       string        `env:"JWT_SECRET_KEY"`
	SessionLifespan time.Duration `env:"SESSION_LIFESPAN" envDefault:"168h"`

	FrontendURL      string        `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	PasswordResetTTL time.Duration `env:"PASSWORD_RESET_TTL" envDefault:"1h"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"12"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	EmailProvider     string `env:"EMAIL_PROVIDER" envDefault:"log"` // "log", "ses", "smtp"
	AWSRegion         string `env:"AWS_REGION"`
	AWSSESEmailSender string `env:"AWS_SES_EMAIL_SENDER"`
	SMTPHost          string `env:"SMTP_HOST"`
	SMTPPort          int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername      string `env:"SMTP_USERNAME"`
	SMTPPassword      string `env:"SMTP_PASSWORD"`
	SMTPFrom          string `env:"SMTP_FROM"`

	FileStorageProvider string        `env:"FILE_STORAGE_PROVIDER"` // "", "s3", "gcs"
	DownloadLinkTTL     time.Duration `env:"DOWNLOAD_LINK_TTL" envDefault:"15m"`
	AWSS3Bucket         string        `env:"AWS_S3_BUCKET"`
	GCSBucketName       string        `env:"GCS_BUCKET_NAME"`
	GCSAccessID         string        `env:"GCS_ACCESS_ID"`
	GCSPrivateKeyFile   string        `env:"GCS_PRIVATE_KEY_FILE"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	PasswordResetRateLimit  int           `env:"PASSWORD_RESET_RATE_LIMIT" envDefault:"5"`
	PasswordResetRateWindow time.Duration `env:"PASSWORD_RESET_RATE_WINDOW" envDefault:"15m"`
	SignInRateLimit         int           `env:"SIGN_IN_RATE_LIMIT" envDefault:"10"`
	SignInRateWindow        time.Duration `env:"SIGN_IN_RATE_WINDOW" envDefault:"15m"`

	DemoEmail    string `env:"DEMO_EMAIL" envDefault:"demo@lifelog.local"`
	DemoPassword string `env:"DEMO_PASSWORD" envDefault:"DemoPassw0rd"`

	// FeatureToggles is filled from FEATURE_* variables, keyed without the prefix.
	FeatureToggles map[string]bool
}

var Cfg AppConfig

const featurePrefix = "FEATURE_"

// LoadConfig loads the configuration from the environment, reading .env first when present.
func LoadConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("Warning: could not load .env file:", err)
	}

	cfg, err := Parse()
	if err != nil {
		log.Printf("Warning: invalid configuration, some settings keep their zero value: %v", err)
	}
	Cfg = cfg
}

// Parse reads an AppConfig from the current environment without touching Cfg.
func Parse() (AppConfig, error) {
	cfg, err := env.ParseAs[AppConfig]()
	cfg.FeatureToggles = featureToggles(os.Environ())
	if err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// DSN returns the Postgres connection string. DATABASE_URL wins over the discrete DB_* settings.
func (c AppConfig) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// MigrationURL returns a URL-form connection string, as golang-migrate expects.
func (c AppConfig) MigrationURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func featureToggles(environ []string) map[string]bool {
	toggles := make(map[string]bool)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, featurePrefix) {
			continue
		}
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("Warning: feature toggle %s has invalid value %q, treating as disabled", key, value)
			continue
		}
		toggles[strings.TrimPrefix(key, featurePrefix)] = enabled
	}
	return toggles
}

func init() {
	LoadConfig()
}
