// Package board хранит локальное состояние списка задач на клиенте:
// строку поиска, фильтр, сортировку и последний загруженный список.
// Любое изменение критериев откладывает перезагрузку на время debounce.
package board

import (
	"context"
	"errors"
	"sync"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"time"

	"go.uber.org/zap"
)

const DefaultDebounce = 300 * time.Millisecond

var ErrNoPendingDelete = errors.New("нет задачи, ожидающей удаления")

// API - то, что доска использует из client.Client
type API interface {
	ListTasks(ctx context.Context, opts task.ListOptions) ([]dto.TaskResponse, error)
	CreateTask(ctx context.Context, req dto.CreateTaskRequest) (dto.TaskResponse, error)
	UpdateTask(ctx context.Context, id int64, req dto.UpdateTaskRequest) (dto.TaskResponse, error)
	DeleteTask(ctx context.Context, id int64) error
}

type State struct {
	Search        string
	StatusFilter  string
	SortBy        task.SortField
	Order         task.SortOrder
	Tasks         []dto.TaskResponse
	PendingDelete int64 // 0 - подтверждение не запрошено
	Loaded        bool
	LastError     error
	Revision      uint64 // растёт с каждым применённым ответом ListTasks
}

func (s State) ListOptions() task.ListOptions {
	return task.ListOptions{
		Status: s.StatusFilter,
		Search: s.Search,
		SortBy: s.SortBy,
		Order:  s.Order,
	}
}

func (s State) clone() State {
	c := s
	c.Tasks = append([]dto.TaskResponse(nil), s.Tasks...)
	return c
}

type Board struct {
	api      API
	debounce time.Duration
	onChange func(State)

	mu         sync.Mutex
	state      State
	timer      *time.Timer
	timerSeq   uint64 // номер последнего запланированного таймера
	generation uint64
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Board)

func WithDebounce(d time.Duration) Option {
	return func(b *Board) {
		if d > 0 {
			b.debounce = d
		}
	}
}

// WithOnChange задаёт колбэк перерисовки, вызывается вне блокировки
func WithOnChange(fn func(State)) Option {
	return func(b *Board) {
		b.onChange = fn
	}
}

func New(api API, opts ...Option) *Board {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Board{
		api:      api,
		debounce: DefaultDebounce,
		state: State{
			StatusFilter: task.StatusAll,
			SortBy:       task.SortByCreatedAt,
			Order:        task.OrderDesc,
			Tasks:        []dto.TaskResponse{},
		},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start планирует первую загрузку списка
func (b *Board) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scheduleLocked()
}

// Close отменяет отложенную загрузку и ждёт завершения текущей
func (b *Board) Close() {
	b.mu.Lock()
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
}

func (b *Board) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.clone()
}

func (b *Board) SetSearch(search string) {
	b.change(func(s *State) bool {
		if s.Search == search {
			return false
		}
		s.Search = search
		return true
	})
}

func (b *Board) SetStatusFilter(status string) {
	if status == "" {
		status = task.StatusAll
	}
	b.change(func(s *State) bool {
		if s.StatusFilter == status {
			return false
		}
		s.StatusFilter = status
		return true
	})
}

func (b *Board) SetSortBy(field string) {
	normalized := task.NormalizeSortField(field)
	b.change(func(s *State) bool {
		if s.SortBy == normalized {
			return false
		}
		s.SortBy = normalized
		return true
	})
}

func (b *Board) SetOrder(order string) {
	normalized := task.NormalizeOrder(order)
	b.change(func(s *State) bool {
		if s.Order == normalized {
			return false
		}
		s.Order = normalized
		return true
	})
}

// Refresh загружает список немедленно, минуя debounce
func (b *Board) Refresh(ctx context.Context) error {
	return b.fetch(ctx)
}

func (b *Board) Create(ctx context.Context, req dto.CreateTaskRequest) (dto.TaskResponse, error) {
	created, err := b.api.CreateTask(ctx, req)
	if err != nil {
		return dto.TaskResponse{}, err
	}
	_ = b.fetch(ctx)
	return created, nil
}

func (b *Board) ChangeStatus(ctx context.Context, id int64, status string) error {
	_, err := b.Update(ctx, id, dto.UpdateTaskRequest{Status: &status})
	return err
}

func (b *Board) Update(ctx context.Context, id int64, req dto.UpdateTaskRequest) (dto.TaskResponse, error) {
	updated, err := b.api.UpdateTask(ctx, id, req)
	if err != nil {
		return dto.TaskResponse{}, err
	}
	_ = b.fetch(ctx)
	return updated, nil
}

// RequestDelete запоминает задачу, удаление которой нужно подтвердить
func (b *Board) RequestDelete(id int64) {
	b.mu.Lock()
	b.state.PendingDelete = id
	snapshot := b.state.clone()
	b.mu.Unlock()
	b.notify(snapshot)
}

func (b *Board) CancelDelete() {
	b.RequestDelete(0)
}

func (b *Board) ConfirmDelete(ctx context.Context) error {
	b.mu.Lock()
	id := b.state.PendingDelete
	b.state.PendingDelete = 0
	snapshot := b.state.clone()
	b.mu.Unlock()

	if id == 0 {
		return ErrNoPendingDelete
	}
	b.notify(snapshot)

	if err := b.api.DeleteTask(ctx, id); err != nil {
		return err
	}
	_ = b.fetch(ctx)
	return nil
}

func (b *Board) change(apply func(*State) bool) {
	b.mu.Lock()
	if !apply(&b.state) {
		b.mu.Unlock()
		return
	}
	b.scheduleLocked()
	snapshot := b.state.clone()
	b.mu.Unlock()

	b.notify(snapshot)
}

// scheduleLocked переносит отложенную загрузку; вызывается под b.mu
func (b *Board) scheduleLocked() {
	if b.closed {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timerSeq++
	seq := b.timerSeq
	b.timer = time.AfterFunc(b.debounce, func() { b.onTimer(seq) })
}

// onTimer игнорирует таймер, который успел сработать после переноса
func (b *Board) onTimer(seq uint64) {
	b.mu.Lock()
	if b.closed || seq != b.timerSeq {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	b.wg.Add(1)
	b.mu.Unlock()

	defer b.wg.Done()
	_ = b.fetch(b.ctx)
}

// fetch применяет ответ, только если после него не стартовала более новая загрузка
func (b *Board) fetch(ctx context.Context) error {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	opts := b.state.ListOptions()
	b.mu.Unlock()

	tasks, err := b.api.ListTasks(ctx, opts)

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		logger.Debug("Board: устаревший ответ отброшен", zap.Uint64("generation", gen))
		return err
	}
	b.state.Revision++
	if err != nil {
		b.state.LastError = err
	} else {
		b.state.Tasks = tasks
		b.state.Loaded = true
		b.state.LastError = nil
	}
	snapshot := b.state.clone()
	b.mu.Unlock()

	if err != nil {
		logger.Warn("Board: не удалось загрузить задачи", zap.Error(err))
	}
	b.notify(snapshot)
	return err
}

func (b *Board) notify(s State) {
	if b.onChange != nil {
		b.onChange(s)
	}
}
