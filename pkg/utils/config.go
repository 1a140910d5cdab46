package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Email    EmailConfig
	SMS      SMSConfig
	OTP      OTPConfig
	Webhook  WebhookConfig
	Storage  StorageConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
	// ExposeOTP echoes freshly issued OTPs in API responses. Development only.
	ExposeOTP bool
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	RecoveryTTL   time.Duration
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type SMSConfig struct {
	GatewayURL string
	APIKey     string
	From       string
}

type OTPConfig struct {
	Length           int
	ActivationExpiry time.Duration
	ResendExpiry     time.Duration
	RecoveryExpiry   time.Duration
	NotifyTimeout    time.Duration
}

type WebhookConfig struct {
	Secret     string
	ForwardURL string
	Tolerance  time.Duration
}

type StorageConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	PresignTTL    time.Duration
}

// Enabled reports whether avatar uploads can be served.
func (s StorageConfig) Enabled() bool {
	return s.Bucket != "" && s.Region != ""
}

func LoadConfig() (*Config, error) {
	// .env is optional, real environment wins.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("APP_NAME", "account-service")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("EXPOSE_OTP", false)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("JWT_ACCESS_TTL", "96h")
	v.SetDefault("JWT_REFRESH_TTL", "96h")
	v.SetDefault("JWT_RECOVERY_TTL", "10m")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("OTP_LENGTH", 6)
	v.SetDefault("OTP_ACTIVATION_EXPIRY", "30m")
	v.SetDefault("OTP_RESEND_EXPIRY", "60s")
	v.SetDefault("OTP_RECOVERY_EXPIRY", "60s")
	v.SetDefault("OTP_NOTIFY_TIMEOUT", "15s")
	v.SetDefault("WEBHOOK_TOLERANCE", "5m")
	v.SetDefault("S3_PRESIGN_TTL", "15m")

	config := &Config{
		App: AppConfig{
			Name:      v.GetString("APP_NAME"),
			Port:      v.GetString("PORT"),
			Debug:     v.GetBool("DEBUG"),
			LogPath:   v.GetString("LOG_PATH"),
			ExposeOTP: v.GetBool("EXPOSE_OTP"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASS"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			AccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
			RefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
			AccessTTL:     v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL:    v.GetDuration("JWT_REFRESH_TTL"),
			RecoveryTTL:   v.GetDuration("JWT_RECOVERY_TTL"),
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
		},
		SMS: SMSConfig{
			GatewayURL: v.GetString("SMS_GATEWAY_URL"),
			APIKey:     v.GetString("SMS_API_KEY"),
			From:       v.GetString("SMS_FROM"),
		},
		OTP: OTPConfig{
			Length:           v.GetInt("OTP_LENGTH"),
			ActivationExpiry: v.GetDuration("OTP_ACTIVATION_EXPIRY"),
			ResendExpiry:     v.GetDuration("OTP_RESEND_EXPIRY"),
			RecoveryExpiry:   v.GetDuration("OTP_RECOVERY_EXPIRY"),
			NotifyTimeout:    v.GetDuration("OTP_NOTIFY_TIMEOUT"),
		},
		Webhook: WebhookConfig{
			Secret:     v.GetString("WEBHOOK_SECRET"),
			ForwardURL: v.GetString("WEBHOOK_FORWARD_URL"),
			Tolerance:  v.GetDuration("WEBHOOK_TOLERANCE"),
		},
		Storage: StorageConfig{
			Bucket:        v.GetString("S3_BUCKET"),
			Region:        v.GetString("S3_REGION"),
			Endpoint:      v.GetString("S3_ENDPOINT"),
			AccessKey:     v.GetString("S3_ACCESS_KEY"),
			SecretKey:     v.GetString("S3_SECRET_KEY"),
			PublicBaseURL: v.GetString("S3_PUBLIC_BASE_URL"),
			PresignTTL:    v.GetDuration("S3_PRESIGN_TTL"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET is not set"))
	}
	if c.JWT.RefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is not set"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 || c.JWT.RecoveryTTL <= 0 {
		errs = append(errs, errors.New("JWT token TTLs must be positive"))
	}
	if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
		errs = append(errs, errors.New("DB_HOST, DB_NAME and DB_USER are required"))
	}
	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		errs = append(errs, fmt.Errorf("OTP_LENGTH must be between 4 and 10, got %d", c.OTP.Length))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
