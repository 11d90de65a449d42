package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	DB      DBConfig
	Redis   RedisConfig
	LLM     LLMConfig
	Auth    AuthConfig
	Storage StorageConfig
	Cache   CacheConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	BodyLimit       int
	AllowOrigins    string
	// StreamHeartbeat is the comment-line interval on SSE streams.
	StreamHeartbeat time.Duration
}

type LoggerConfig struct {
	Level string
	Env   string
}

type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// LLMConfig selects the completion backend used by the chat tutor and the quiz generator.
type LLMConfig struct {
	Provider    string // openai, ollama or anthropic
	Model       string
	APIKey      string
	ServerURL   string
	Timeout     time.Duration
	Temperature float64
}

type AuthConfig struct {
	JWT            JWTConfig
	BcryptCost     int
	MinPasswordLen int
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type StorageConfig struct {
	Bucket          string
	CredentialsFile string
	PublicBaseURL   string
	MaxUploadBytes  int64
	PhotoSize       int
}

type CacheConfig struct {
	DashboardTTL time.Duration
	SessionTTL   time.Duration
}

const (
	LLMProviderOpenAI    = "openai"
	LLMProviderOllama    = "ollama"
	LLMProviderAnthropic = "anthropic"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "20s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "20s")
	v.SetDefault("server.body_limit", 10*1024*1024)
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("server.stream_heartbeat", "25s")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "studymitra")
	v.SetDefault("db.name", "studymitra")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("llm.provider", LLMProviderOpenAI)
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.server_url", "http://localhost:11434")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("auth.jwt.access_ttl", "15m")
	v.SetDefault("auth.jwt.refresh_ttl", "168h")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.min_password_len", 6)

	v.SetDefault("storage.max_upload_bytes", 5*1024*1024)
	v.SetDefault("storage.photo_size", 256)
	v.SetDefault("storage.public_base_url", "https://storage.googleapis.com")

	v.SetDefault("cache.dashboard_ttl", "60s")
	v.SetDefault("cache.session_ttl", "24h")
}

// LoadConfig reads the configuration and rejects settings the API server cannot start without.
func LoadConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads config.yaml (optional), then .env, then APP_* environment variables.
// An environment variable wins over the file: APP_DB_HOST overrides db.host.
func Load() (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			BodyLimit:       v.GetInt("server.body_limit"),
			AllowOrigins:    v.GetString("server.allow_origins"),
			StreamHeartbeat: v.GetDuration("server.stream_heartbeat"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		DB: DBConfig{
			Host:            v.GetString("db.host"),
			Port:            v.GetInt("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			DBName:          v.GetString("db.name"),
			SSLMode:         v.GetString("db.sslmode"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			ServerURL:   v.GetString("llm.server_url"),
			Timeout:     v.GetDuration("llm.timeout"),
			Temperature: v.GetFloat64("llm.temperature"),
		},
		Auth: AuthConfig{
			JWT: JWTConfig{
				SecretKey:       v.GetString("auth.jwt.secret_key"),
				AccessTokenTTL:  v.GetDuration("auth.jwt.access_ttl"),
				RefreshTokenTTL: v.GetDuration("auth.jwt.refresh_ttl"),
			},
			BcryptCost:     v.GetInt("auth.bcrypt_cost"),
			MinPasswordLen: v.GetInt("auth.min_password_len"),
		},
		Storage: StorageConfig{
			Bucket:          v.GetString("storage.bucket"),
			CredentialsFile: v.GetString("storage.credentials_file"),
			PublicBaseURL:   v.GetString("storage.public_base_url"),
			MaxUploadBytes:  v.GetInt64("storage.max_upload_bytes"),
			PhotoSize:       v.GetInt("storage.photo_size"),
		},
		Cache: CacheConfig{
			DashboardTTL: v.GetDuration("cache.dashboard_ttl"),
			SessionTTL:   v.GetDuration("cache.session_ttl"),
		},
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWT.SecretKey == "" {
		return errors.New("auth.jwt.secret_key is required")
	}
	if len(c.Auth.JWT.SecretKey) < 32 {
		return errors.New("auth.jwt.secret_key must be at least 32 bytes long")
	}
	switch c.LLM.Provider {
	case LLMProviderOpenAI, LLMProviderAnthropic:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for provider %q", c.LLM.Provider)
		}
	case LLMProviderOllama:
		if c.LLM.ServerURL == "" {
			return errors.New("llm.server_url is required for provider ollama")
		}
	default:
		return fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider)
	}
	if c.Cache.SessionTTL <= 0 {
		return errors.New("cache.session_ttl must be positive")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection URL understood by pgx and golang-migrate.
func (c *Config) GetDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DB.User, c.DB.Password),
		Host:   fmt.Sprintf("%s:%d", c.DB.Host, c.DB.Port),
		Path:   "/" + c.DB.DBName,
	}
	q := u.Query()
	if c.DB.SSLMode != "" {
		q.Set("sslmode", c.DB.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
