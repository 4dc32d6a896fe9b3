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
	App        AppConfig
	Server     ServerConfig
	Storage    StorageConfig
	Log        LogConfig
	Validation ValidationConfig
	CORS       CORSConfig
}

type AppConfig struct {
	Env      string
	Timezone string
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

type StorageConfig struct {
	Driver string // json or sqlite
	Path   string
}

type LogConfig struct {
	Level    string
	Encoding string
}

type ValidationConfig struct {
	// Strict rejects malformed numbers and unknown payment methods with 400
	// instead of coercing them.
	Strict bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

// IsDevelopment reports whether the service runs in a local development setup.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "dev" || c.App.Env == "development"
}

// Location resolves the configured timezone used for calendar-day reports.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || strings.EqualFold(c.App.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("app.timezone", "Local")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("storage.driver", "json")
	v.SetDefault("storage.path", "data.json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("validation.strict", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load reads configuration from defaults, an optional loanbook.yaml and the
// environment (LOANBOOK_SERVER_PORT and so on). A .env file in the working
// directory is loaded into the environment first, and the bare PORT variable
// is honoured for the listen port.
func Load(configPaths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("loanbook")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("loanbook")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "LOANBOOK_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind port env: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("app.env"),
			Timezone: v.GetString("app.timezone"),
		},
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("storage.driver")),
			Path:   v.GetString("storage.path"),
		},
		Log: LogConfig{
			Level:    v.GetString("log.level"),
			Encoding: v.GetString("log.encoding"),
		},
		Validation: ValidationConfig{
			Strict: v.GetBool("validation.strict"),
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetStringSlice("cors.allowed_origins"),
		},
	}

	if cfg.Server.Port <= 0 {
		return nil, fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	switch cfg.Storage.Driver {
	case "json", "sqlite":
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	return cfg, nil
}
