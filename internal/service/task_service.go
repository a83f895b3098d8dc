package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	rep "taskManager/internal/repository"

	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

type TaskService struct {
	repo     TaskRepository
	statuses task.StatusSet
}

func NewTaskService(repo TaskRepository, statuses task.StatusSet) TaskService {
	if len(statuses) == 0 {
		statuses = task.BoardStatuses
	}
	return TaskService{
		repo:     repo,
		statuses: statuses,
	}
}

func (s *TaskService) Statuses() task.StatusSet {
	return s.statuses
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, name, description string, status task.Status) (*task.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "must not be empty")
	}

	if status == "" {
		status = s.statuses.Default()
	}
	if !s.statuses.Contains(status) {
		return nil, s.statusError(status)
	}

	newTask := &task.Task{
		Name:        name,
		Description: description,
		Status:      status,
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.Int64("task_id", newTask.ID),
		zap.String("status", string(newTask.Status)))
	return newTask, nil
}

func (s *TaskService) ListTasks(ctx context.Context, opts task.ListOptions) ([]*task.Task, error) {
	tasks, err := s.repo.List(ctx, opts.Normalized())
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*task.Task, error) {
	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapRepoError(err, id, "получение задачи")
	}
	return found, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id int64, options ...task.PatchOption) (*task.Task, error) {
	patch := task.NewPatch(options...)

	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return nil, NewValidationError("name", "must not be empty")
		}
		patch.Name = &trimmed
	}
	if patch.Status != nil && !s.statuses.Contains(*patch.Status) {
		return nil, s.statusError(*patch.Status)
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.wrapRepoError(err, id, "обновление задачи")
	}

	logger.Info("Service: Задача обновлена", zap.Int64("task_id", id))
	return updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.wrapRepoError(err, id, "удаление задачи")
	}

	logger.Info("Service: Задача удалена", zap.Int64("task_id", id))
	return nil
}

func (s *TaskService) wrapRepoError(err error, id int64, op string) error {
	if errors.Is(err, rep.ErrNotFound) {
		logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
		return NewNotFound(ResourceTask, strconv.FormatInt(id, 10), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *TaskService) statusError(status task.Status) *BusinessError {
	err := NewValidationError("status", "must be one of: "+strings.Join(s.statuses.Strings(), ", "))
	err.Details["value"] = string(status)
	return err
}
