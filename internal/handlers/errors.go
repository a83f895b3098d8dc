package handlers

import (
	"net/http"
	"taskManager/internal/logger"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

const (
	msgTaskNotFound   = "Task not found"
	msgInvalidID      = "Invalid task id"
	msgInvalidBody    = "Invalid request body"
	msgContentType    = "must be application/json"
	msgFetchTasks     = "Error fetching tasks"
	msgFetchTask      = "Error fetching task"
	msgCreateTask     = "Error creating task"
	msgUpdateTask     = "Error updating task"
	msgDeleteTask     = "Error deleting task"
	msgTaskDeleted    = "Task deleted successfully"
	healthServiceName = "task-manager"
)

// handleBusinessError отвечает клиенту, если err - бизнес-ошибка, иначе возвращает false
func handleBusinessError(w http.ResponseWriter, err error) bool {
	businessErr, ok := service.AsBusinessError(err)
	if !ok {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	if businessErr.Code == service.CodeNotFound {
		responseWithError(w, statusCode, msgTaskNotFound)
		return true
	}

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Message),
		toPayload("code", businessErr.Code),
		toPayload("details", businessErr.Details),
	)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// handleServiceError отвечает на любую ошибку сервиса, скрывая детали внутренних ошибок
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation, message string) {
	if handleBusinessError(w, err) {
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusInternalServerError, message)
}
