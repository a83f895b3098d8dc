package service

import (
	"context"
	"taskManager/internal/models/task"
)

type TaskRepository interface {
	Create(context.Context, *task.Task) error
	List(context.Context, task.ListOptions) ([]*task.Task, error)
	GetByID(context.Context, int64) (*task.Task, error)
	Update(context.Context, int64, task.Patch) (*task.Task, error)
	Delete(context.Context, int64) error
	HealthCheck(context.Context) error
}
