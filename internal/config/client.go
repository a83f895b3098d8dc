package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultAPIURL подменяется при сборке: -ldflags "-X taskManager/internal/config.DefaultAPIURL=..."
var DefaultAPIURL = "http://localhost:5000"

const (
	ClientConfigName = "taskcli"
	ClientEnvPrefix  = "TASKS"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type ClientConfig struct {
	APIURL       string        `mapstructure:"api_url"`
	Debounce     time.Duration `mapstructure:"debounce"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SessionStore string        `mapstructure:"session_store"`
	RedisURL     string        `mapstructure:"redis_url"`
	SessionID    string        `mapstructure:"session_id"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	Development  bool          `mapstructure:"dev"`
}

// ClientFlags регистрирует флаги клиента; имена флагов совпадают с ключами viper через дефис
func ClientFlags(fs *pflag.FlagSet) {
	fs.String("api-url", DefaultAPIURL, "адрес API задач")
	fs.Duration("debounce", 300*time.Millisecond, "задержка перед перезагрузкой списка")
	fs.Duration("timeout", 15*time.Second, "таймаут HTTP-запросов")
	fs.String("session-store", SessionStoreMemory, "хранилище сессии: memory или redis")
	fs.String("redis-url", "redis://localhost:6379/0", "адрес Redis для session-store=redis")
	fs.String("session-id", "", "идентификатор сессии (пусто - новая сессия)")
	fs.Duration("session-ttl", 24*time.Hour, "время жизни сессии в Redis")
	fs.Bool("dev", false, "подробные логи")
	fs.String("config", "", "путь к taskcli.yml")
}

// LoadClient собирает конфигурацию из флагов, TASKS_* переменных и taskcli.yml
func LoadClient(fs *pflag.FlagSet) (*ClientConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(ClientEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = errors.Join(bindErr, err)
		}
	})
	if bindErr != nil {
		return nil, fmt.Errorf("привязка флагов: %w", bindErr)
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ClientConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("чтение конфигурации клиента: %w", err)
		}
	}

	cfg := &ClientConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации клиента: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ClientConfig) Validate() error {
	if c.APIURL == "" {
		return errors.New("не задан api_url")
	}
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.RedisURL == "" {
			return errors.New("для session_store=redis нужен redis_url")
		}
	default:
		return fmt.Errorf("неизвестное хранилище сессии %q", c.SessionStore)
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce должен быть положительным, получено %s", c.Debounce)
	}
	return nil
}
