package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Weights  WeightsConfig  `mapstructure:"weights"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Callback CallbackConfig `mapstructure:"callback"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or sqlite
	DSN             string        `mapstructure:"dsn"`
	Path            string        `mapstructure:"path"` // sqlite file path
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type StorageConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	AccessKey    string        `mapstructure:"access_key"`
	SecretKey    string        `mapstructure:"secret_key"`
	UseSSL       bool          `mapstructure:"use_ssl"`
	Bucket       string        `mapstructure:"bucket"`
	Region       string        `mapstructure:"region"`
	PublicURL    string        `mapstructure:"public_url"`
	SignedURLTTL time.Duration `mapstructure:"signed_url_ttl"`
}

type OracleConfig struct {
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryBase   time.Duration `mapstructure:"retry_base"`
}

type RulesConfig struct {
	PassOverall          float64 `mapstructure:"pass_overall"`
	PassTech             float64 `mapstructure:"pass_tech"`
	BorderlineOverall    float64 `mapstructure:"borderline_overall"`
	BorderlineTech       float64 `mapstructure:"borderline_tech"`
	BorderlineMaxMissing int     `mapstructure:"borderline_max_missing"`
}

type WeightsConfig struct {
	Tech       float64 `mapstructure:"tech"`
	Experience float64 `mapstructure:"experience"`
	Language   float64 `mapstructure:"language"`
	Culture    float64 `mapstructure:"culture"`
}

type WorkerConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	RateLimit   int           `mapstructure:"rate_limit"`
	RateWindow  time.Duration `mapstructure:"rate_window"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

type NotifyConfig struct {
	EmailWebhookURL string `mapstructure:"email_webhook"`
	EmailFrom       string `mapstructure:"email_from"`
	SlackWebhookURL string `mapstructure:"slack_webhook"`
	TeamsWebhookURL string `mapstructure:"teams_webhook"`
	FrontendURL     string `mapstructure:"frontend_url"`
	SchedulingLink  string `mapstructure:"scheduling_link"`
}

type CallbackConfig struct {
	URL string `mapstructure:"url"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/screenline.db")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "cvs")
	v.SetDefault("storage.signed_url_ttl", 10*time.Minute)
	v.SetDefault("oracle.model", "gpt-4o-mini")
	v.SetDefault("oracle.base_url", "https://api.openai.com/v1")
	v.SetDefault("oracle.timeout", 60*time.Second)
	v.SetDefault("oracle.max_attempts", 3)
	v.SetDefault("oracle.retry_base", time.Second)
	v.SetDefault("rules.pass_overall", 70)
	v.SetDefault("rules.pass_tech", 65)
	v.SetDefault("rules.borderline_overall", 50)
	v.SetDefault("rules.borderline_tech", 50)
	v.SetDefault("rules.borderline_max_missing", 3)
	v.SetDefault("weights.tech", 0.4)
	v.SetDefault("weights.experience", 0.3)
	v.SetDefault("weights.language", 0.2)
	v.SetDefault("weights.culture", 0.1)
	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.rate_limit", 10)
	v.SetDefault("worker.rate_window", time.Minute)
	v.SetDefault("worker.max_attempts", 3)
	v.SetDefault("worker.backoff_base", 5*time.Second)
	v.SetDefault("notify.email_from", "noreply@recruitment.com")
	v.SetDefault("notify.frontend_url", "http://localhost:3000")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.dsn", "DATABASE_DSN")
	v.BindEnv("redis.url", "REDIS_URL")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	v.BindEnv("oracle.api_key", "ORACLE_API_KEY")
	v.BindEnv("oracle.base_url", "ORACLE_BASE_URL")
	v.BindEnv("oracle.model", "ORACLE_MODEL")
	v.BindEnv("notify.email_webhook", "EMAIL_WEBHOOK_URL")
	v.BindEnv("notify.slack_webhook", "SLACK_WEBHOOK_URL")
	v.BindEnv("notify.teams_webhook", "TEAMS_WEBHOOK_URL")
	v.BindEnv("notify.scheduling_link", "SCHEDULING_LINK")
	v.BindEnv("callback.url", "WORKFLOW_CALLBACK_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
