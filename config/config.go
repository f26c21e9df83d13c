package config

import (
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	AppEnv         string
	LogLevel       string
	PostgresURL    string
	MigrationsPath string
	DraftStore     string
	MongoURL       string
	MongoDB        string
	RedisURL       string
	PDFDir         string
	TemplateDir    string
	MetricsEnabled bool
	R2             R2Config
}

// R2Config enables PDF upload when every field is set.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.SecretAccessKey != "" && r.Bucket != ""
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MIGRATIONS_PATH", "file://db/migrations")
	v.SetDefault("DRAFT_STORE", "memory")
	v.SetDefault("MONGO_DB", "freighterp")
	v.SetDefault("PDF_DIR", "./pdfs")
	v.SetDefault("TEMPLATE_DIR", "templates")
	v.SetDefault("METRICS_ENABLED", true)
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:           v.GetString("PORT"),
		AppEnv:         v.GetString("APP_ENV"),
		LogLevel:       strings.ToLower(v.GetString("LOG_LEVEL")),
		PostgresURL:    v.GetString("POSTGRES_URL"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		DraftStore:     strings.ToLower(v.GetString("DRAFT_STORE")),
		MongoURL:       v.GetString("MONGO_URL"),
		MongoDB:        v.GetString("MONGO_DB"),
		RedisURL:       v.GetString("REDIS_URL"),
		PDFDir:         v.GetString("PDF_DIR"),
		TemplateDir:    v.GetString("TEMPLATE_DIR"),
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		R2: R2Config{
			AccountID:       v.GetString("R2_ACCOUNT_ID"),
			AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("R2_SECRET_ACCESS_KEY"),
			Bucket:          v.GetString("R2_BUCKET"),
			PublicURL:       v.GetString("R2_PUBLIC_URL"),
		},
	}

	if cfg.PostgresURL == "" {
		return nil, errors.New("POSTGRES_URL not set in environment")
	}
	switch cfg.DraftStore {
	case "memory":
	case "mongo":
		if cfg.MongoURL == "" {
			return nil, errors.New("DRAFT_STORE=mongo requires MONGO_URL")
		}
	default:
		return nil, errors.New("DRAFT_STORE must be memory or mongo")
	}
	return cfg, nil
}
