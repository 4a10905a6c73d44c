package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"SERVER_ADDR"             env-default:":8443"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"45s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	Cert            string        `yaml:"cert"             env:"SERVER_TLS_CERT"`
	Key             string        `yaml:"key"              env:"SERVER_TLS_KEY"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"             env:"DATABASE_DRIVER"             env-default:"sqlite"`
	URL             string        `yaml:"url"                env:"DATABASE_URL"                env-default:"file:ponto.db"`
	AuthToken       string        `yaml:"auth_token"         env:"DATABASE_AUTH_TOKEN"`
	MaxOpenConns    int           `yaml:"max_open_conns"     env:"DATABASE_MAX_OPEN_CONNS"     env-default:"20"`
	MaxIdleConns    int           `yaml:"max_idle_conns"     env:"DATABASE_MAX_IDLE_CONNS"     env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"  env:"DATABASE_CONN_MAX_LIFETIME"  env-default:"30m"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"DATABASE_CONN_MAX_IDLE_TIME" env-default:"5m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"true"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"  env:"AUTH_JWT_SECRET"`
	TokenTTL   time.Duration `yaml:"token_ttl"   env:"AUTH_TOKEN_TTL"   env-default:"24h"`
	CookieName string        `yaml:"cookie_name" env:"AUTH_COOKIE_NAME" env-default:"ponto_session"`
}

// AssistantConfig configures the chat assistant and its inference provider.
type AssistantConfig struct {
	APIKey        string        `yaml:"api_key"         env:"GEMINI_API_KEY"`
	Model         string        `yaml:"model"           env:"ASSISTANT_MODEL"           env-default:"gemini-flash-lite-latest"`
	PromptPath    string        `yaml:"prompt_path"     env:"ASSISTANT_PROMPT_PATH"     env-default:"prompt.txt"`
	MaxDuration   time.Duration `yaml:"max_duration"    env:"ASSISTANT_MAX_DURATION"    env-default:"30s"`
	MaxToolRounds int           `yaml:"max_tool_rounds" env:"ASSISTANT_MAX_TOOL_ROUNDS" env-default:"5"`
	Temperature   float32       `yaml:"temperature"     env:"ASSISTANT_TEMPERATURE"     env-default:"0.2"`
}

type AppConfig struct {
	Timezone  string `yaml:"timezone"   env:"APP_TIMEZONE"   env-default:"America/Sao_Paulo"`
	// CacheSize > 0 caches GET /date months in process; only safe with a single writer.
	CacheSize int    `yaml:"cache_size" env:"APP_CACHE_SIZE" env-default:"0"`
	// WebDir holds the built frontend; empty disables static serving.
	WebDir    string `yaml:"web_dir"    env:"APP_WEB_DIR"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins" env:"CORS_ALLOW_ORIGINS" env-default:"http://localhost:3000"`
}

type Config struct {
	Version   string          `yaml:"version"`
	Mode      string          `yaml:"mode"      env:"APP_MODE" env-default:"dev"`
	Server    ServerConfig    `yaml:"server"`
	DB        DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Assistant AssistantConfig `yaml:"assistant"`
	App       AppConfig       `yaml:"app"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
}

// Load reads the YAML file at path (if present), then applies environment
// overrides and defaults. An empty path falls back to CONFIG_PATH and then
// DefaultPath; only an explicitly requested file is required to exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath
	}

	var cfg Config
	buf, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// env + defaults only
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Location resolves App.Timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsDev() bool { return c.Mode == "dev" }
