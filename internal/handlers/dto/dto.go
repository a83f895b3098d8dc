package dto

import (
	"taskManager/internal/models/task"
	"time"
)

// поля-указатели отличают "не передано" от пустой строки
type CreateTaskRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type UpdateTaskRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (r UpdateTaskRequest) Options() []task.PatchOption {
	var opts []task.PatchOption
	if r.Name != nil {
		opts = append(opts, task.WithName(*r.Name))
	}
	if r.Description != nil {
		opts = append(opts, task.WithDescription(*r.Description))
	}
	if r.Status != nil {
		opts = append(opts, task.WithStatus(task.Status(*r.Status)))
	}
	return opts
}

type TaskResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type StatusesResponse struct {
	Statuses []string `json:"statuses"`
	Default  string   `json:"default"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

func FromStatusSet(set task.StatusSet) StatusesResponse {
	return StatusesResponse{
		Statuses: set.Strings(),
		Default:  string(set.Default()),
	}
}
