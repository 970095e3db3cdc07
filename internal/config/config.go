package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shamss11/pychiatrist-backend/internal/pkg/envutil"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
)

// Config holds the application's configuration. Values come from an optional
// YAML file (CONFIG_PATH) with environment variables taking precedence.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		Path     string `yaml:"path"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Knowledge struct {
		URL        string `yaml:"url"`
		Collection string `yaml:"collection"`
	} `yaml:"knowledge"`
	Generation struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"generation"`
}

func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}

	applyEnvOverrides(cfg, log)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, log *logger.Logger) {
	cfg.Server.Port = envutil.GetEnv("PORT", orDefault(cfg.Server.Port, "8000"), log)

	cfg.Database.Driver = envutil.GetEnv("DB_DRIVER", orDefault(cfg.Database.Driver, "postgres"), log)
	cfg.Database.Host = envutil.GetEnv("POSTGRES_HOST", orDefault(cfg.Database.Host, "localhost"), log)
	cfg.Database.Port = envutil.GetEnv("POSTGRES_PORT", orDefault(cfg.Database.Port, "5432"), log)
	cfg.Database.User = envutil.GetEnv("POSTGRES_USER", orDefault(cfg.Database.User, "postgres"), log)
	cfg.Database.Password = envutil.GetEnv("POSTGRES_PASSWORD", cfg.Database.Password, nil)
	cfg.Database.Name = envutil.GetEnv("POSTGRES_NAME", orDefault(cfg.Database.Name, "pychiatrist"), log)
	cfg.Database.Path = envutil.GetEnv("SQLITE_PATH", orDefault(cfg.Database.Path, "pychiatrist.db"), log)

	cfg.Redis.Addr = envutil.GetEnv("REDIS_ADDR", cfg.Redis.Addr, log)
	cfg.Redis.Password = envutil.GetEnv("REDIS_PASSWORD", cfg.Redis.Password, nil)
	cfg.Redis.DB = envutil.GetEnvAsInt("REDIS_DB", cfg.Redis.DB, log)

	cfg.Knowledge.URL = envutil.GetEnv("CHROMA_URL", cfg.Knowledge.URL, log)
	cfg.Knowledge.Collection = envutil.GetEnv("CHROMA_COLLECTION", orDefault(cfg.Knowledge.Collection, "clinical_knowledge"), log)

	cfg.Generation.BaseURL = envutil.GetEnv("GEMINI_BASE_URL", cfg.Generation.BaseURL, log)
	cfg.Generation.Model = envutil.GetEnv("GEMINI_MODEL", orDefault(cfg.Generation.Model, "gemini-2.0-flash"), log)
}

func orDefault(val, fallback string) string {
	if val == "" {
		return fallback
	}
	return val
}
