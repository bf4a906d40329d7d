package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Admin    AdminConfig
	Payment  PaymentConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type AdminConfig struct {
	APIKey string
}

type PaymentConfig struct {
	// CallbackBaseURL is the public base URL providers redirect back to,
	// e.g. https://shop.example.com
	CallbackBaseURL string
	// ReconcileCron is the schedule for re-verifying stuck payments
	// (six-field cron expression, seconds included).
	ReconcileCron string
	// ReconcileGrace is how old a pending payment must be before the
	// reconciler re-checks it with the provider.
	ReconcileGrace time.Duration
	// WebhookDedupTTL bounds how long webhook event ids are remembered.
	WebhookDedupTTL time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("PAYMENT_RECONCILE_CRON", "0 */5 * * * *")
	viper.SetDefault("PAYMENT_RECONCILE_GRACE", "10m")
	viper.SetDefault("WEBHOOK_DEDUP_TTL", "30m")

	grace, err := time.ParseDuration(viper.GetString("PAYMENT_RECONCILE_GRACE"))
	if err != nil {
		grace = 10 * time.Minute
	}
	dedupTTL, err := time.ParseDuration(viper.GetString("WEBHOOK_DEDUP_TTL"))
	if err != nil {
		dedupTTL = 30 * time.Minute
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Admin: AdminConfig{
			APIKey: viper.GetString("ADMIN_API_KEY"),
		},
		Payment: PaymentConfig{
			CallbackBaseURL: viper.GetString("PAYMENT_CALLBACK_BASE_URL"),
			ReconcileCron:   viper.GetString("PAYMENT_RECONCILE_CRON"),
			ReconcileGrace:  grace,
			WebhookDedupTTL: dedupTTL,
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.Payment.CallbackBaseURL == "" {
		log.Println("WARNING: PAYMENT_CALLBACK_BASE_URL is not set; gateway redirects will not reach this server")
	}
	if cfg.Admin.APIKey == "" {
		log.Println("WARNING: ADMIN_API_KEY is not set; admin API is disabled")
	}

	return cfg, nil
}

// LoadDatabaseOnly loads just the database section, for schema bootstrap runs.
func LoadDatabaseOnly() (*DatabaseConfig, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	return &cfg.Database, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
