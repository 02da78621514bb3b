package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	Email     EmailConfig
	Upload    UploadConfig
	Bootstrap BootstrapConfig
}

type DatabaseConfig struct {
	URL               string // DATABASE_URL, takes precedence over the discrete fields
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectAttempts   int
	AutoMigrate       bool
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string // CIDR ranges whose X-Forwarded-For is honored
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret               string
	JWTAlgorithm            string
	AccessTokenExpiry       time.Duration
	RefreshTokenExpiry      time.Duration
	RememberMeExpiry        time.Duration
	LoginRateLimitPerMinute int
}

type EmailConfig struct {
	Driver     string // "smtp", "ses" or "log"
	SMTPServer string
	SMTPPort   int
	Sender     string
	Password   string
	AdminEmail string
	AWSRegion  string
}

type UploadConfig struct {
	Dir           string
	MaxBytes      int64
	URLPrefix     string
	SweepInterval time.Duration // 0 disables the orphaned image sweep
	SweepGrace    time.Duration
}

type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
}

var supportedAlgorithms = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", getEnv("SECRET_KEY", ""))
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "fortifund"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			ConnectAttempts:   getEnvAsInt("DB_CONNECT_ATTEMPTS", 5),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:               jwtSecret,
			JWTAlgorithm:            strings.ToUpper(getEnv("JWT_ALGORITHM", getEnv("ALGORITHM", "HS256"))),
			AccessTokenExpiry:       time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 15)) * time.Minute,
			RefreshTokenExpiry:      time.Duration(getEnvAsInt("REFRESH_TOKEN_EXPIRE_MINUTES", 1440)) * time.Minute,
			RememberMeExpiry:        time.Duration(getEnvAsInt("REMEMBER_ME_EXPIRE_DAYS", 30)) * 24 * time.Hour,
			LoginRateLimitPerMinute: getEnvAsInt("LOGIN_RATE_LIMIT_PER_MINUTE", 10),
		},
		Email: EmailConfig{
			Driver:     strings.ToLower(getEnv("MAIL_DRIVER", "smtp")),
			SMTPServer: getEnv("SMTP_SERVER", "smtp.gmail.com"),
			SMTPPort:   getEnvAsInt("SMTP_PORT", 587),
			Sender:     getEnv("EMAIL_SENDER", ""),
			Password:   getEnv("EMAIL_PASSWORD", ""),
			AdminEmail: getEnv("ADMIN_EMAIL", ""),
			AWSRegion:  getEnv("AWS_REGION", "us-east-1"),
		},
		Upload: UploadConfig{
			Dir:           getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes:      int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
			URLPrefix:     getEnv("UPLOAD_URL_PREFIX", "/uploads/"),
			SweepInterval: getEnvAsDuration("UPLOAD_SWEEP_INTERVAL", 6*time.Hour),
			SweepGrace:    getEnvAsDuration("UPLOAD_SWEEP_GRACE", 1*time.Hour),
		},
		Bootstrap: BootstrapConfig{
			AdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
			AdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
	}

	if cfg.Database.URL == "" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("DATABASE_URL or DB_PASSWORD is required")
	}

	if !supportedAlgorithms[cfg.Auth.JWTAlgorithm] {
		return nil, fmt.Errorf("JWT_ALGORITHM %q is not supported", cfg.Auth.JWTAlgorithm)
	}

	if cfg.Auth.AccessTokenExpiry <= 0 || cfg.Auth.RefreshTokenExpiry <= cfg.Auth.AccessTokenExpiry {
		return nil, fmt.Errorf("refresh token expiry must be longer than access token expiry")
	}

	// Mail falls back to logging when there is nowhere to send it
	if cfg.Email.Sender == "" || cfg.Email.AdminEmail == "" {
		cfg.Email.Driver = "log"
	}

	if !strings.HasSuffix(cfg.Upload.URLPrefix, "/") {
		cfg.Upload.URLPrefix += "/"
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

// DSN returns DATABASE_URL when set, otherwise a keyword/value connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseAllowedOrigins(env string) []string {
	if originsStr := getEnv("ALLOWED_ORIGINS", ""); originsStr != "" {
		return splitList(originsStr)
	}

	if env == "production" {
		return []string{}
	}

	return []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
