package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"
)

type TaskStorage struct {
	storage map[int64]*task.Task
	mtx     *sync.RWMutex
	seq     int64
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]*task.Task),
		mtx:     &sync.RWMutex{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Close() {}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.seq++
	taskToCreate.ID = s.seq
	taskToCreate.CreatedAt = time.Now().UTC()

	s.storage[taskToCreate.ID] = taskToCreate.Clone()
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

func (s *TaskStorage) Update(ctx context.Context, id int64, patch task.Patch) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	patch.Apply(existing)
	return existing.Clone(), nil
}

func (s *TaskStorage) Delete(ctx context.Context, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	return nil
}

func (s *TaskStorage) List(ctx context.Context, opts task.ListOptions) ([]*task.Task, error) {
	opts = opts.Normalized()
	search := strings.ToLower(opts.Search)

	s.mtx.RLock()
	res := make([]*task.Task, 0, len(s.storage))
	for _, t := range s.storage {
		if opts.HasStatus() && string(t.Status) != opts.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Name), search) {
			continue
		}
		res = append(res, t.Clone())
	}
	s.mtx.RUnlock()

	less := lessFunc(opts.SortBy)
	sort.Slice(res, func(i, j int) bool {
		a, b := res[i], res[j]
		if opts.Order == task.OrderAsc {
			return less(a, b)
		}
		return less(b, a)
	})

	return res, nil
}

// lessFunc сравнивает по полю сортировки, при равенстве по id
func lessFunc(field task.SortField) func(a, b *task.Task) bool {
	return func(a, b *task.Task) bool {
		switch field {
		case task.SortByName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		case task.SortByStatus:
			if a.Status != b.Status {
				return a.Status < b.Status
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	}
}
