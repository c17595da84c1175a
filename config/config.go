package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Supabase   SupabaseConfig   `mapstructure:"supabase"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Meta       MetaConfig       `mapstructure:"meta"`
	Checkout   CheckoutConfig   `mapstructure:"checkout"`
	Plans      PlansConfig      `mapstructure:"plans"`
	Generation GenerationConfig `mapstructure:"generation"`
	Storage    StorageConfig    `mapstructure:"storage"`
	History    HistoryConfig    `mapstructure:"history"`
	OSS        OSSConfig        `mapstructure:"oss"`
	Email      EmailConfig      `mapstructure:"email"`
	Queue      QueueConfig      `mapstructure:"queue"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Mode      string `mapstructure:"mode"`
	PublicURL string `mapstructure:"public_url"`
	StaticDir string `mapstructure:"static_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres, mysql, sqlite
	DSN          string `mapstructure:"dsn"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type AuthConfig struct {
	Provider string `mapstructure:"provider"` // supabase, local
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SupabaseConfig struct {
	URL            string `mapstructure:"url"`
	AnonKey        string `mapstructure:"anon_key"`
	ServiceRoleKey string `mapstructure:"service_role_key"`
}

type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	TextModel      string  `mapstructure:"text_model"`
	VisionModel    string  `mapstructure:"vision_model"`
	ImageModel     string  `mapstructure:"image_model"`
	Temperature    float32 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

type MetaConfig struct {
	AppID        string   `mapstructure:"app_id"`
	AppSecret    string   `mapstructure:"app_secret"`
	RedirectURI  string   `mapstructure:"redirect_uri"`
	GraphVersion string   `mapstructure:"graph_version"`
	GraphBaseURL string   `mapstructure:"graph_base_url"`
	DialogURL    string   `mapstructure:"dialog_url"`
	Scopes       []string `mapstructure:"scopes"`
}

type CheckoutConfig struct {
	AccessToken     string `mapstructure:"access_token"`
	NotificationURL string `mapstructure:"notification_url"`
	SuccessURL      string `mapstructure:"success_url"`
	PendingURL      string `mapstructure:"pending_url"`
	FailureURL      string `mapstructure:"failure_url"`
	AsyncWebhooks   bool   `mapstructure:"async_webhooks"`
}

type PlansConfig struct {
	TrialDays int                  `mapstructure:"trial_days"`
	Catalog   map[string]PlanOffer `mapstructure:"catalog"`
}

// PlanOffer is a purchasable pro plan.
type PlanOffer struct {
	Title        string  `mapstructure:"title"`
	DurationDays int     `mapstructure:"duration_days"`
	Price        float64 `mapstructure:"price"`
	Currency     string  `mapstructure:"currency"`
}

type GenerationConfig struct {
	RequirePlan        bool  `mapstructure:"require_plan"`
	MaxReferenceImages int   `mapstructure:"max_reference_images"`
	MaxReferenceBytes  int64 `mapstructure:"max_reference_bytes"`
	RatePerMinute      int   `mapstructure:"rate_per_minute"`
	CorpusPosts        int   `mapstructure:"corpus_posts"`
	CorpusPostChars    int   `mapstructure:"corpus_post_chars"`
	CorpusTotalChars   int   `mapstructure:"corpus_total_chars"`
	StyleSampleImages  int   `mapstructure:"style_sample_images"`
}

type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

type HistoryConfig struct {
	Limit int `mapstructure:"limit"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type QueueConfig struct {
	PaymentQueue string `mapstructure:"payment_queue"`
	MaxWorkers   int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// legacyEnv maps the environment names used by the panel deployment to config keys.
var legacyEnv = map[string]string{
	"server.port":               "PORT",
	"server.mode":               "APP_ENV",
	"openai.api_key":            "OPENAI_API_KEY",
	"openai.image_model":        "OPENAI_IMAGE_MODEL",
	"supabase.url":              "SUPABASE_URL",
	"supabase.anon_key":         "SUPABASE_ANON_KEY",
	"supabase.service_role_key": "SUPABASE_SERVICE_ROLE_KEY",
	"database.dsn":              "DATABASE_URL",
	"meta.app_id":               "META_APP_ID",
	"meta.app_secret":           "META_APP_SECRET",
	"meta.redirect_uri":         "META_REDIRECT_URI",
	"checkout.access_token":     "MP_ACCESS_TOKEN",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.static_dir", "public")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("auth.provider", "supabase")
	v.SetDefault("jwt.expire_hours", 168)
	v.SetDefault("openai.text_model", "gpt-4o-mini")
	v.SetDefault("openai.vision_model", "gpt-4o")
	v.SetDefault("openai.image_model", "gpt-image-1")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.timeout_seconds", 120)
	v.SetDefault("meta.graph_version", "v20.0")
	v.SetDefault("meta.graph_base_url", "https://graph.facebook.com")
	v.SetDefault("meta.dialog_url", "https://www.facebook.com")
	v.SetDefault("meta.scopes", []string{
		"public_profile", "pages_show_list", "pages_read_engagement",
		"pages_read_user_content", "instagram_basic", "instagram_manage_insights",
	})
	v.SetDefault("plans.trial_days", 7)
	v.SetDefault("plans.catalog", map[string]interface{}{
		"biweekly": map[string]interface{}{"title": "Nexora Pro 15 dias", "duration_days": 15, "price": 37.0, "currency": "BRL"},
		"monthly":  map[string]interface{}{"title": "Nexora Pro 30 dias", "duration_days": 30, "price": 68.0, "currency": "BRL"},
	})
	v.SetDefault("generation.require_plan", true)
	v.SetDefault("generation.max_reference_images", 3)
	v.SetDefault("generation.max_reference_bytes", 6*1024*1024)
	v.SetDefault("generation.rate_per_minute", 10)
	v.SetDefault("generation.corpus_posts", 25)
	v.SetDefault("generation.corpus_post_chars", 1200)
	v.SetDefault("generation.corpus_total_chars", 12000)
	v.SetDefault("generation.style_sample_images", 6)
	v.SetDefault("storage.dir", "storage")
	v.SetDefault("history.limit", 20)
	v.SetDefault("queue.payment_queue", "queue:payments")
	v.SetDefault("queue.max_workers", 2)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization"})
}

func Load(configPath string) (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// config.local.yaml holds real secrets and is never committed
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Mode == "production" {
		cfg.Server.Mode = "release"
	}

	return &cfg, nil
}

// Offer returns the catalog entry for a plan type.
func (c *PlansConfig) Offer(planType string) (PlanOffer, bool) {
	offer, ok := c.Catalog[planType]
	return offer, ok
}
