package main

import (
	"context"
	"fmt"
	"os"
	"taskManager/internal/board"
	"taskManager/internal/cli"
	"taskManager/internal/client"
	"taskManager/internal/config"
	"taskManager/internal/logger"
	"taskManager/internal/session"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("taskcli", pflag.ExitOnError)
	config.ClientFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.LoadClient(fs)
	if err != nil {
		return err
	}

	if cfg.Development {
		if err := logger.Init(true); err != nil {
			return fmt.Errorf("инициализация логгера: %w", err)
		}
		defer logger.Sync()
	}

	ctx := context.Background()

	store, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("инициализация сессии: %w", err)
	}
	if _, err := session.Notice(ctx, store, os.Stdout); err != nil {
		logger.Warn("CLI: не удалось сохранить флаг предупреждения", zap.Error(err))
	}

	api, err := client.New(cfg.APIURL, client.WithTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	statuses, err := api.Statuses(ctx)
	if err != nil {
		return fmt.Errorf("получение статусов с %s: %w", api.BaseURL(), err)
	}

	var repl *cli.REPL
	b := board.New(api,
		board.WithDebounce(cfg.Debounce),
		board.WithOnChange(func(s board.State) { repl.OnChange(s) }),
	)
	defer b.Close()
	repl = cli.NewREPL(b, api, statuses.Statuses, os.Stdin, os.Stdout)

	logger.Info("CLI: Подключено к API",
		zap.String("api_url", api.BaseURL()),
		zap.String("session_id", store.ID()))

	b.Start()
	return repl.Run(ctx)
}

func openSession(cfg *config.ClientConfig) (session.Store, error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		return session.NewRedisStore(cfg.RedisURL, cfg.SessionID, session.WithTTL(cfg.SessionTTL))
	default:
		return session.NewMemoryStore(cfg.SessionID), nil
	}
}
