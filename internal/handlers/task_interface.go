package handlers

import (
	"context"
	"taskManager/internal/models/task"
)

type Service interface {
	CreateTask(context.Context, string, string, task.Status) (*task.Task, error)
	ListTasks(context.Context, task.ListOptions) ([]*task.Task, error)
	GetTaskByID(context.Context, int64) (*task.Task, error)
	UpdateTask(context.Context, int64, ...task.PatchOption) (*task.Task, error)
	DeleteTask(context.Context, int64) error
	Statuses() task.StatusSet
	HealthCheck(context.Context) error
}
