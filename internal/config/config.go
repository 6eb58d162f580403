package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	OpenAIAPIKey           string
	AIModel                string
	AIBaseURL              string
	AIMaxTokens            int
	InferenceTimeout       time.Duration
	PersistTimeout         time.Duration
	StrictClassification   bool
	EssayCacheTTL          time.Duration
	MaxImageMB             int
	ImageMaxDimension      int
	NATSURL                string
	EventsSubject          string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	SubmissionsPerMinute   int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// MaxImageBytes is the decoded size limit for scanned essays.
func (c Config) MaxImageBytes() int64 {
	return int64(c.MaxImageMB) * 1024 * 1024
}

// BodyLimit is the request size limit, large enough for a base64 encoded scan.
func (c Config) BodyLimit() int {
	return int(c.MaxImageBytes()*4/3) + 1024*1024
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PREPARAI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	durations := map[string]time.Duration{}
	for _, key := range []string{"grading.inference_timeout", "grading.persist_timeout", "essay.cache_ttl"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", key)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		AIModel:                v.GetString("ai.model"),
		AIBaseURL:              v.GetString("ai.base_url"),
		AIMaxTokens:            v.GetInt("ai.max_tokens"),
		InferenceTimeout:       durations["grading.inference_timeout"],
		PersistTimeout:         durations["grading.persist_timeout"],
		StrictClassification:   v.GetBool("grading.strict_classification"),
		EssayCacheTTL:          durations["essay.cache_ttl"],
		MaxImageMB:             v.GetInt("essay.max_image_mb"),
		ImageMaxDimension:      v.GetInt("essay.image_max_dimension"),
		NATSURL:                v.GetString("nats.url"),
		EventsSubject:          v.GetString("events.subject"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		SubmissionsPerMinute:   v.GetInt("rate_limit.submissions_per_minute"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.AIMaxTokens <= 0 {
		cfg.AIMaxTokens = 4096
	}

	if cfg.MaxImageMB <= 0 {
		cfg.MaxImageMB = 8
	}

	if cfg.SubmissionsPerMinute <= 0 {
		cfg.SubmissionsPerMinute = 6
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "PreparAI API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.max_tokens", 4096)
	v.SetDefault("grading.inference_timeout", "60s")
	v.SetDefault("grading.persist_timeout", "10s")
	v.SetDefault("grading.strict_classification", false)
	v.SetDefault("essay.cache_ttl", "10m")
	v.SetDefault("essay.max_image_mb", 8)
	v.SetDefault("essay.image_max_dimension", 2048)
	v.SetDefault("events.subject", "preparai.essays.graded")
	v.SetDefault("cloudinary.folder", "preparai/essays")
	v.SetDefault("rate_limit.submissions_per_minute", 6)
}
