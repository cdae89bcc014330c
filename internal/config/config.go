package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	VLM      VLMConfig      `mapstructure:"vlm"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
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

type StorageConfig struct {
	Type      string `mapstructure:"type"` // r2, s3, s3compatible; empty auto-detects from endpoint
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	// ServerSideEncryption is sent with every upload when set (e.g. AES256).
	ServerSideEncryption string `mapstructure:"server_side_encryption"`
}

type VLMConfig struct {
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Seed    int           `mapstructure:"seed"`
	// FoodNameLanguage is the language the model is asked to name foods in.
	FoodNameLanguage string `mapstructure:"food_name_language"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"` // zero issues tokens without expiry
}

type AnalysisConfig struct {
	SignedURLTTL  time.Duration `mapstructure:"signed_url_ttl"`
	MaxImageBytes int           `mapstructure:"max_image_bytes"`
}

// Load reads configuration from the YAML file at configPath (or ./configs/config.yaml),
// then applies environment overrides.
func Load(configPath string) (*Config, error) {
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

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Names used by the deployment environment for secrets
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.access_key", "ACCESS_KEY_ID")
	v.BindEnv("storage.secret_key", "SECRET_ACCESS_KEY")
	v.BindEnv("storage.bucket", "S3_BUCKET")
	v.BindEnv("vlm.api_key", "OPENAI_API_KEY")
	v.BindEnv("vlm.base_url", "OPENAI_BASE_URL")
	v.BindEnv("vlm.model", "VLM_MODEL")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/dietsupport.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "diet-support-bucket")
	v.SetDefault("storage.server_side_encryption", "AES256")

	v.SetDefault("vlm.model", "gpt-4o")
	v.SetDefault("vlm.base_url", "https://api.openai.com/v1")
	v.SetDefault("vlm.timeout", 60*time.Second)
	v.SetDefault("vlm.seed", 0)
	v.SetDefault("vlm.food_name_language", "Japanese")

	v.SetDefault("auth.issuer", "dietsupport")
	v.SetDefault("auth.token_ttl", time.Duration(0))

	v.SetDefault("analysis.signed_url_ttl", 15*time.Minute)
	v.SetDefault("analysis.max_image_bytes", 10<<20)
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: auth.jwt_secret (JWT_SECRET) is required")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Storage.Bucket == "" {
		return errors.New("config: storage.bucket is required")
	}
	if c.Analysis.SignedURLTTL <= 0 {
		return errors.New("config: analysis.signed_url_ttl must be positive")
	}
	return nil
}
