package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"taskManager/internal/models/task"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yml"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	Logging    LoggingConfig    `yaml:"logging"`
	Repository RepositoryConfig `yaml:"repository"`
	Tasks      TasksConfig      `yaml:"tasks"`
	Worker     WorkerConfig     `yaml:"worker"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int32         `yaml:"max_connections"`
	MinConnections int32         `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

const RepositoryPostgres = "postgres"
const RepositorySQLite = "sqlite"
const RepositoryInMemory = "inmemory"

type RepositoryConfig struct {
	Type string `yaml:"type"` // "postgres", "sqlite" или "inmemory"
}

type TasksConfig struct {
	StatusSet string `yaml:"status_set"` // "board" или "classic"
}

type WorkerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "5000",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			MaxConnections: 10,
			MinConnections: 2,
			IdleTimeout:    5 * time.Minute,
		},
		SQLite:     SQLiteConfig{Path: "data/tasks.db"},
		Repository: RepositoryConfig{Type: RepositorySQLite},
		Tasks:      TasksConfig{StatusSet: "board"},
		Worker:     WorkerConfig{Enabled: true, Interval: time.Minute},
	}
}

// Load читает .env и config.yml (если есть), затем применяет переменные окружения
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("не могу прочитать .env: %w", err)
	}

	cfg := Default()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		c.Server.Port = v
	}
	if v, ok := os.LookupEnv("HOST"); ok {
		c.Server.Host = v
	}
	if v, ok := os.LookupEnv("DATABASE_URL"); ok && v != "" {
		c.Database.URL = v
	}
	if v, ok := os.LookupEnv("REPOSITORY_TYPE"); ok && v != "" {
		c.Repository.Type = v
	}
	if v, ok := os.LookupEnv("SQLITE_PATH"); ok && v != "" {
		c.SQLite.Path = v
	}
	if v, ok := os.LookupEnv("STATUS_SET"); ok && v != "" {
		c.Tasks.StatusSet = v
	}
	if v, ok := os.LookupEnv("LOG_DEVELOPMENT"); ok && v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_DEVELOPMENT: %w", err)
		}
		c.Logging.Development = dev
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("для postgres нужен database.url или DATABASE_URL")
		}
	case RepositorySQLite:
		if c.SQLite.Path == "" {
			return errors.New("для sqlite нужен sqlite.path")
		}
	case RepositoryInMemory:
	default:
		return fmt.Errorf("неизвестный тип репозитория %q", c.Repository.Type)
	}

	if _, err := task.StatusSetByName(c.Tasks.StatusSet); err != nil {
		return err
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("неверный порт %q: %w", c.Server.Port, err)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
