package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/service"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

// Register подключает маршруты задач к роутеру
func (s *TaskHandler) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/statuses", s.GetStatuses)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.GetTasks)
		r.Post("/", s.PostTask)
		r.Get("/{id}", s.GetTaskByID)
		r.Put("/{id}", s.UpdateTaskByID)
		r.Delete("/{id}", s.DeleteTaskByID)
	})
}

func (s *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	query := r.URL.Query()
	opts := task.NewListOptions(
		query.Get("status"),
		query.Get("search"),
		query.Get("sortBy"),
		query.Get("order"),
	)

	tasks, err := s.TaskService.ListTasks(r.Context(), opts)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks", msgFetchTasks)
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !s.requireJSON(w, r) {
		return
	}

	var request dto.CreateTaskRequest
	if !s.decode(w, r, &request) {
		return
	}

	if request.Name == nil {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "name"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		handleBusinessError(w, errRequired("name"))
		return
	}

	var description string
	if request.Description != nil {
		description = *request.Description
	}
	var status task.Status
	if request.Status != nil {
		status = task.Status(*request.Status)
	}

	created, err := s.TaskService.CreateTask(r.Context(), *request.Name, description, status)
	if err != nil {
		handleServiceError(w, r, err, "create_task", msgCreateTask)
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTask(created))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	found, err := s.TaskService.GetTaskByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task", msgFetchTask)
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.Int64("task_id", found.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTask(found))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	if !s.requireJSON(w, r) {
		return
	}

	var request dto.UpdateTaskRequest
	if !s.decode(w, r, &request) {
		return
	}

	updated, err := s.TaskService.UpdateTask(r.Context(), id, request.Options()...)
	if err != nil {
		handleServiceError(w, r, err, "update_task", msgUpdateTask)
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTask(updated))
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	if err := s.TaskService.DeleteTask(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_task", msgDeleteTask)
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: msgTaskDeleted})
}

func (s *TaskHandler) GetStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.FromStatusSet(s.TaskService.Statuses()))
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Warn("HTTP: Сервис недоступен", zap.Error(err))
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", healthServiceName))
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", healthServiceName))
}

func (s *TaskHandler) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("HTTP: Неверное значение id",
			zap.String("id", idParam),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, msgInvalidID)
		return 0, false
	}
	return id, true
}

func (s *TaskHandler) requireJSON(w http.ResponseWriter, r *http.Request) bool {
	if checkContentType(r, "application/json") {
		return true
	}

	logger.Warn("HTTP: Неверный тип контента",
		zap.String("expected", "application/json"),
		zap.String("received", r.Header.Get("Content-Type")),
		zap.String("client_ip", r.RemoteAddr))

	handleBusinessError(w, service.NewValidationError("Content-Type", msgContentType))
	return false
}

func (s *TaskHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeBody(w, r, dst)
	if err == nil {
		return true
	}

	logger.Warn("HTTP: ошибка чтения JSON",
		zap.Error(err),
		zap.String("client_ip", r.RemoteAddr))

	if errors.Is(err, errMalformedBody) || !handleBusinessError(w, err) {
		responseWithError(w, http.StatusBadRequest, msgInvalidBody)
	}
	return false
}
