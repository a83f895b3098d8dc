package worker

import (
	"context"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const defaultInterval = time.Minute

type TaskLister interface {
	List(context.Context, task.ListOptions) ([]*task.Task, error)
}

// StatusWorker периодически пересчитывает количество задач по статусам
type StatusWorker struct {
	repo     TaskLister
	interval time.Duration
	statuses task.StatusSet
	gauge    *prometheus.GaugeVec
	total    prometheus.Gauge
}

func NewStatusWorker(repo TaskLister, statuses task.StatusSet, reg prometheus.Registerer, interval time.Duration) *StatusWorker {
	if interval <= 0 {
		interval = defaultInterval
	}

	w := &StatusWorker{
		repo:     repo,
		interval: interval,
		statuses: statuses,
		gauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tasks_by_status",
				Help: "Number of stored tasks per status",
			},
			[]string{"status"},
		),
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tasks_total",
			Help: "Number of stored tasks",
		}),
	}
	reg.MustRegister(w.gauge, w.total)
	return w
}

// Start блокируется до отмены ctx; первый подсчёт выполняется сразу
func (w *StatusWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Подсчёт задач по статусам запущен", zap.Duration("interval", w.interval))
	w.Check(ctx)

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Подсчёт задач останавливается")
			return
		}
	}
}

func (w *StatusWorker) Check(ctx context.Context) {
	start := time.Now()

	counts, total, err := w.count(ctx)
	if err != nil {
		logger.Warn("Worker: ошибка получения задач", zap.Error(err))
		return
	}

	w.gauge.Reset()
	for _, st := range w.statuses {
		w.gauge.WithLabelValues(string(st)).Set(0)
	}
	for st, n := range counts {
		w.gauge.WithLabelValues(string(st)).Set(float64(n))
	}
	w.total.Set(float64(total))

	logger.Debug("Worker: Завершение подсчёта задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", total))
}

func (w *StatusWorker) count(ctx context.Context) (map[task.Status]int, int, error) {
	tasks, err := w.repo.List(ctx, task.ListOptions{}.Normalized())
	if err != nil {
		return nil, 0, fmt.Errorf("получение задач: %w", err)
	}

	counts := make(map[task.Status]int, len(w.statuses))
	for _, t := range tasks {
		counts[t.Status]++
	}
	return counts, len(tasks), nil
}
