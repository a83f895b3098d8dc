package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"taskManager/internal/handlers"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
	"taskManager/internal/repository/task/inmemory"
	"taskManager/internal/service"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) Statuses() task.StatusSet {
	args := m.Called()
	return args.Get(0).(task.StatusSet)
}

func (m *MockTaskService) CreateTask(ctx context.Context, name, description string, status task.Status) (*task.Task, error) {
	args := m.Called(ctx, name, description, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context, opts task.ListOptions) ([]*task.Task, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) GetTaskByID(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, id int64, options ...task.PatchOption) (*task.Task, error) {
	args := m.Called(ctx, id, task.NewPatch(options...))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ handlers.Service = (*MockTaskService)(nil)

func newRouter(svc handlers.Service) http.Handler {
	handler := handlers.NewTaskHandler(svc)
	r := chi.NewRouter()
	handler.Register(r)
	return r
}

func doRequest(h http.Handler, method, path, body, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func sampleTask(id int64, name string, status task.Status) *task.Task {
	return &task.Task{
		ID:        id,
		Name:      name,
		Status:    status,
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

// TestTaskHandler_HealthCheck тестирует HealthCheck
func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - unhealthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("service unavailable"))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService), http.MethodGet, "/health", "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "task-manager")
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_GetTasks(t *testing.T) {
	t.Run("passes normalized query", func(t *testing.T) {
		mockService := new(MockTaskService)
		expected := task.ListOptions{Status: "Done", Search: "milk", SortBy: task.SortByName, Order: task.OrderAsc}
		mockService.On("ListTasks", mock.Anything, expected).
			Return([]*task.Task{sampleTask(1, "Buy milk", task.StatusDone)}, nil)

		w := doRequest(newRouter(mockService), http.MethodGet, "/tasks?status=Done&search=milk&sortBy=name&order=ASC", "", "")

		require.Equal(t, http.StatusOK, w.Code)
		var list []dto.TaskResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
		require.Len(t, list, 1)
		assert.Equal(t, int64(1), list[0].ID)
		assert.Equal(t, "Buy milk", list[0].Name)
		mockService.AssertExpectations(t)
	})

	t.Run("unknown sort values fall back", func(t *testing.T) {
		mockService := new(MockTaskService)
		expected := task.ListOptions{SortBy: task.SortByCreatedAt, Order: task.OrderDesc}
		mockService.On("ListTasks", mock.Anything, expected).Return([]*task.Task{}, nil)

		w := doRequest(newRouter(mockService), http.MethodGet, "/tasks?status=All&sortBy=priority&order=up", "", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("service error hides cause", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("ListTasks", mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection refused"))

		w := doRequest(newRouter(mockService), http.MethodGet, "/tasks", "", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Error fetching tasks"}`, w.Body.String())
	})
}

// TestTaskHandler_PostTask тестирует создание задачи
func TestTaskHandler_PostTask(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedError  string
		expectedField  string
	}{
		{
			name:        "success - create task",
			requestBody: `{"name": "Buy milk", "description": "2 liters", "status": "In Progress"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, "Buy milk", "2 liters", task.StatusInProgress).
					Return(sampleTask(1, "Buy milk", task.StatusInProgress), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "success - optional fields omitted",
			requestBody: `{"name": "Buy milk"}`,
			contentType: "application/json; charset=utf-8",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, "Buy milk", "", task.Status("")).
					Return(sampleTask(1, "Buy milk", task.StatusToDo), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedField:  "Content-Type",
		},
		{
			name:           "error - no content type and no body",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedField:  "Content-Type",
		},
		{
			name:           "error - data after JSON object",
			requestBody:    `{"name": "Buy milk"} trailing`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:           "error - two JSON objects",
			requestBody:    `{"name": "Buy milk"}{"name": "Read book"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:        "success - trailing whitespace",
			requestBody: "{\"name\": \"Buy milk\"}\n  ",
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, "Buy milk", "", task.Status("")).
					Return(sampleTask(1, "Buy milk", task.StatusToDo), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:           "error - missing name",
			requestBody:    `{"description": "no name"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedField:  "name",
		},
		{
			name:           "error - unknown field",
			requestBody:    `{"name": "Buy milk", "priority": 1}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedField:  "priority",
		},
		{
			name:           "error - description not a string",
			requestBody:    `{"name": "Buy milk", "description": 42}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedField:  "description",
		},
		{
			name:           "error - body is not an object",
			requestBody:    `["Buy milk"]`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedField:  "body",
		},
		{
			name:        "error - validation from service",
			requestBody: `{"name": "Buy milk", "status": "Archived"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, "Buy milk", "", task.Status("Archived")).
					Return(nil, service.NewValidationError("status", "must be one of: To Do, Done"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedField:  "status",
		},
		{
			name:        "error - service error",
			requestBody: `{"name": "Buy milk"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, "Buy milk", "", task.Status("")).
					Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Error creating task",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService), http.MethodPost, "/tasks", tt.requestBody, tt.contentType)

			assert.Equal(t, tt.expectedStatus, w.Code)

			switch {
			case tt.expectedStatus == http.StatusOK:
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, int64(1), response.ID)
				assert.Equal(t, "Buy milk", response.Name)
			case tt.expectedField != "":
				body := decodeMap(t, w)
				assert.Equal(t, "VALIDATION_ERROR", body["code"])
				assert.NotEmpty(t, body["error"])
				details, ok := body["details"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, tt.expectedField, details["field"])
			case tt.expectedError != "":
				assert.Equal(t, tt.expectedError, decodeMap(t, w)["error"])
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetTaskByID тестирует получение задачи по ID
func TestTaskHandler_GetTaskByID(t *testing.T) {
	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:   "success - get task",
			taskID: "3",
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, int64(3)).Return(sampleTask(3, "Buy milk", task.StatusToDo), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - non integer id",
			taskID:         "abc",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid task id",
		},
		{
			name:           "error - non positive id",
			taskID:         "0",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid task id",
		},
		{
			name:   "error - task not found",
			taskID: "3",
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, int64(3)).
					Return(nil, service.NewNotFound(service.ResourceTask, "3", repository.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "Task not found",
		},
		{
			name:   "error - service error",
			taskID: "3",
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, int64(3)).Return(nil, errors.New("internal error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Error fetching task",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService), http.MethodGet, "/tasks/"+tt.taskID, "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, int64(3), response.ID)
				assert.Equal(t, "To Do", response.Status)
				assert.Equal(t, "2024-03-01T10:00:00Z", response.CreatedAt.Format(time.RFC3339))
			} else {
				assert.JSONEq(t, `{"error":"`+tt.expectedError+`"}`, w.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_UpdateTaskByID тестирует обновление задачи
func TestTaskHandler_UpdateTaskByID(t *testing.T) {
	done := task.StatusDone
	name := "Buy oat milk"

	tests := []struct {
		name           string
		taskID         string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:        "success - status only",
			taskID:      "5",
			requestBody: `{"status": "Done"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(5), task.Patch{Status: &done}).
					Return(sampleTask(5, "Buy milk", task.StatusDone), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "success - name only",
			taskID:      "5",
			requestBody: `{"name": "Buy oat milk"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(5), task.Patch{Name: &name}).
					Return(sampleTask(5, name, task.StatusToDo), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid content type",
			taskID:         "5",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid value for field 'Content-Type': must be application/json",
		},
		{
			name:           "error - data after JSON object",
			taskID:         "5",
			requestBody:    `{"status": "Done"} {"status": "To Do"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:           "error - invalid id",
			taskID:         "-1",
			requestBody:    `{"status": "Done"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid task id",
		},
		{
			name:           "error - malformed JSON",
			taskID:         "5",
			requestBody:    `{"status": `,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:        "error - task not found",
			taskID:      "404",
			requestBody: `{"status": "Done"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(404), mock.Anything).
					Return(nil, service.NewNotFound(service.ResourceTask, "404", repository.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "Task not found",
		},
		{
			name:        "error - service error",
			taskID:      "5",
			requestBody: `{"status": "Done"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(5), mock.Anything).Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Error updating task",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService), http.MethodPut, "/tasks/"+tt.taskID, tt.requestBody, tt.contentType)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeMap(t, w)["error"])
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_DeleteTaskByID тестирует удаление задачи
func TestTaskHandler_DeleteTaskByID(t *testing.T) {
	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "success",
			taskID: "9",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, int64(9)).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"message":"Task deleted successfully"}`,
		},
		{
			name:   "not found",
			taskID: "9",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, int64(9)).
					Return(service.NewNotFound(service.ResourceTask, "9", repository.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"Task not found"}`,
		},
		{
			name:   "service error",
			taskID: "9",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, int64(9)).Return(errors.New("locked"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Error deleting task"}`,
		},
		{
			name:           "invalid id",
			taskID:         "1.5",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid task id"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService), http.MethodDelete, "/tasks/"+tt.taskID, "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_GetStatuses(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("Statuses").Return(task.ClassicStatuses)

	w := doRequest(newRouter(mockService), http.MethodGet, "/statuses", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"statuses":["Incomplete","Complete"],"default":"Incomplete"}`, w.Body.String())
}

// TestTaskHandler_EndToEnd проходит весь жизненный цикл задачи на реальном сервисе
func TestTaskHandler_EndToEnd(t *testing.T) {
	svc := service.NewTaskService(inmemory.NewTaskStorage(), task.BoardStatuses)
	router := newRouter(&svc)

	w := doRequest(router, http.MethodPost, "/tasks", `{"name":"Buy milk"}`, "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	var created dto.TaskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "To Do", created.Status)
	assert.Equal(t, "", created.Description)

	w = doRequest(router, http.MethodPut, "/tasks/1", `{"status":"Done"}`, "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/tasks?status=Done", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []dto.TaskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Buy milk", list[0].Name)
	assert.Equal(t, "Done", list[0].Status)

	w = doRequest(router, http.MethodPut, "/tasks/1", `{"status":"Complete"}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodDelete, "/tasks/1", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/tasks/1", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodPut, "/tasks/1", `{"status":"Done"}`, "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodDelete, "/tasks/1", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/tasks", "", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

// TestTaskHandler_ConcurrentRequests проверяет параллельные запросы
func TestTaskHandler_ConcurrentRequests(t *testing.T) {
	svc := service.NewTaskService(inmemory.NewTaskStorage(), task.BoardStatuses)
	router := newRouter(&svc)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := doRequest(router, http.MethodPost, "/tasks", `{"name":"parallel"}`, "application/json")
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()

	w := doRequest(router, http.MethodGet, "/tasks", "", "")
	var list []dto.TaskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list, 20)

	seen := make(map[int64]bool)
	for _, it := range list {
		assert.False(t, seen[it.ID])
		seen[it.ID] = true
	}
}
