package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskManager/internal/config"
	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/models/task"
	"taskManager/internal/repository/task/inmemory"
	"taskManager/internal/repository/task/postgres"
	"taskManager/internal/repository/task/sqlite"
	"taskManager/internal/service"
	"taskManager/internal/tracing"
	"taskManager/internal/worker"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Repository - хранилище задач, которое нужно закрыть при остановке
type Repository interface {
	service.TaskRepository
	Close()
}

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository Repository
	service    *service.TaskService
	worker     *worker.StatusWorker
	registry   *prometheus.Registry

	// mu защищает воркер: Run и Shutdown вызываются из разных горутин
	mu         sync.Mutex
	stopped    bool
	stopWorker context.CancelFunc
	workerDone chan struct{}
	shutdowns  []func(context.Context) // выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(context.Context), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	a.onShutdown(func(context.Context) {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	shutdownTracing, err := tracing.Init(a.config.Tracing.Enabled)
	if err != nil {
		return fmt.Errorf("инициализация трейсинга: %w", err)
	}
	a.onShutdown(func(ctx context.Context) {
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("Ошибка остановки трейсинга", zap.Error(err))
		}
	})

	statuses, err := task.StatusSetByName(a.config.Tasks.StatusSet)
	if err != nil {
		return fmt.Errorf("набор статусов: %w", err)
	}

	repo, err := openRepository(ctx, a.config)
	if err != nil {
		return err
	}
	a.repository = repo
	a.onShutdown(func(context.Context) {
		logger.Info("Закрытие хранилища...")
		repo.Close()
	})

	svc := service.NewTaskService(repo, statuses)
	a.service = &svc

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if a.config.Worker.Enabled {
		a.worker = worker.NewStatusWorker(repo, statuses, a.registry, a.config.Worker.Interval)
	}

	a.router = a.newRouter()
	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.Strings("statuses", statuses.Strings()),
		zap.String("addr", a.server.Addr))
	return nil
}

func (a *App) newRouter() *chi.Mux {
	metrics := middleware.NewMetrics(a.registry)
	handler := handlers.NewTaskHandler(a.service)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, middleware.TraceIDHeader},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	if a.config.Tracing.Enabled {
		r.Use(middleware.Tracing)
	}
	if a.config.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(a.config.Server.RequestTimeout))
	}

	handler.Register(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

// Handler отдаёт собранный роутер, используется в тестах
func (a *App) Handler() http.Handler {
	return a.router
}

// Run запускает воркер и блокируется до остановки HTTP-сервера
func (a *App) Run() error {
	a.mu.Lock()
	if a.worker != nil && !a.stopped {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		a.stopWorker = cancel
		a.workerDone = done
		go func() {
			defer close(done)
			a.worker.Start(ctx)
		}()
	}
	a.mu.Unlock()

	logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("запуск сервера: %w", err)
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	logger.Info("Остановка сервера...")

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("остановка сервера: %w", err))
		}
	}

	a.mu.Lock()
	a.stopped = true
	stopWorker, workerDone := a.stopWorker, a.workerDone
	a.mu.Unlock()

	if stopWorker != nil {
		stopWorker()
		select {
		case <-workerDone:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("остановка воркера: %w", ctx.Err()))
		}
	}

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i](ctx)
	}
	a.shutdowns = nil

	return errors.Join(errs...)
}

func (a *App) onShutdown(fn func(context.Context)) {
	a.shutdowns = append(a.shutdowns, fn)
}

func openRepository(ctx context.Context, cfg *config.Config) (Repository, error) {
	switch cfg.Repository.Type {
	case config.RepositoryPostgres:
		storage, err := postgres.New(ctx, cfg.Database.URL,
			postgres.WithMaxConns(cfg.Database.MaxConnections),
			postgres.WithMinConns(cfg.Database.MinConnections),
			postgres.WithMaxConnIdleTime(cfg.Database.IdleTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		if err := storage.Migrate(ctx); err != nil {
			storage.Close()
			return nil, err
		}
		return storage, nil

	case config.RepositorySQLite:
		storage, err := sqlite.New(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("открытие SQLite: %w", err)
		}
		if err := storage.Migrate(ctx); err != nil {
			storage.Close()
			return nil, err
		}
		return storage, nil

	case config.RepositoryInMemory:
		logger.Warn("Используется хранилище в памяти, данные не сохраняются между запусками")
		return inmemory.NewTaskStorage(), nil

	default:
		return nil, fmt.Errorf("неизвестный тип хранилища %q", cfg.Repository.Type)
	}
}
