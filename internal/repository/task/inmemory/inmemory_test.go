package inmemory_test

import (
	"context"
	"fmt"
	"sync"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
	"taskManager/internal/repository/task/inmemory"
	"taskManager/internal/repository/task/repotest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(tasks []*task.Task) []string {
	res := make([]string, len(tasks))
	for i, t := range tasks {
		res[i] = t.Name
	}
	return res
}

func seed(t *testing.T, storage *inmemory.TaskStorage, items ...task.Task) []*task.Task {
	t.Helper()
	created := make([]*task.Task, 0, len(items))
	for _, it := range items {
		tk := it
		require.NoError(t, storage.Create(context.Background(), &tk))
		created = append(created, &tk)
	}
	return created
}

func TestTaskStorage_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repotest.Repository {
		return inmemory.NewTaskStorage()
	})
}

// TestTaskStorage_Create тестирует создание задачи
func TestTaskStorage_Create(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	first := &task.Task{Name: "Buy milk", Status: task.StatusToDo}
	second := &task.Task{Name: "Walk dog", Status: task.StatusToDo}

	require.NoError(t, storage.Create(ctx, first))
	require.NoError(t, storage.Create(ctx, second))

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	retrieved, err := storage.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, retrieved)
}

// TestTaskStorage_GetByID_ReturnsCopy проверяет, что снаружи нельзя изменить хранилище
func TestTaskStorage_GetByID_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	created := seed(t, storage, task.Task{Name: "Original", Status: task.StatusToDo})

	got, err := storage.GetByID(ctx, created[0].ID)
	require.NoError(t, err)
	got.Name = "Mutated"

	again, err := storage.GetByID(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Name)
}

func TestTaskStorage_GetByID_NotFound(t *testing.T) {
	storage := inmemory.NewTaskStorage()
	_, err := storage.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTaskStorage_Update тестирует частичное обновление
func TestTaskStorage_Update(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	created := seed(t, storage, task.Task{Name: "Buy milk", Description: "2 liters", Status: task.StatusToDo})

	updated, err := storage.Update(ctx, created[0].ID, task.NewPatch(task.WithStatus(task.StatusDone)))
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, updated.Status)
	assert.Equal(t, "Buy milk", updated.Name)
	assert.Equal(t, "2 liters", updated.Description)
	assert.Equal(t, created[0].CreatedAt, updated.CreatedAt)

	_, err = storage.Update(ctx, 999, task.NewPatch(task.WithName("x")))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTaskStorage_Delete тестирует удаление
func TestTaskStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	created := seed(t, storage, task.Task{Name: "Task to delete", Status: task.StatusToDo})

	require.NoError(t, storage.Delete(ctx, created[0].ID))

	_, err := storage.GetByID(ctx, created[0].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = storage.Delete(ctx, created[0].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := storage.List(ctx, task.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

// TestTaskStorage_List тестирует фильтрацию, поиск и сортировку
func TestTaskStorage_List(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	seed(t, storage,
		task.Task{Name: "Buy milk", Status: task.StatusToDo},
		task.Task{Name: "Write report", Status: task.StatusInProgress},
		task.Task{Name: "buy bread", Status: task.StatusDone},
		task.Task{Name: "Call mom", Status: task.StatusToDo},
	)

	tests := []struct {
		name string
		opts task.ListOptions
		want []string
	}{
		{"default newest first", task.ListOptions{}, []string{"Call mom", "buy bread", "Write report", "Buy milk"}},
		{"status filter", task.ListOptions{Status: "To Do"}, []string{"Call mom", "Buy milk"}},
		{"all sentinel", task.ListOptions{Status: "All", Order: "asc"}, []string{"Buy milk", "Write report", "buy bread", "Call mom"}},
		{"case insensitive search", task.ListOptions{Search: "BUY"}, []string{"buy bread", "Buy milk"}},
		{"search plus status", task.ListOptions{Search: "buy", Status: "Done"}, []string{"buy bread"}},
		{"sort by name asc", task.ListOptions{SortBy: "name", Order: "asc"}, []string{"Buy milk", "Call mom", "Write report", "buy bread"}},
		{"sort by status desc", task.ListOptions{SortBy: "status", Order: "desc"}, []string{"Call mom", "Buy milk", "Write report", "buy bread"}},
		{"unknown sort falls back", task.ListOptions{SortBy: "priority", Order: "nope"}, []string{"Call mom", "buy bread", "Write report", "Buy milk"}},
		{"no match", task.ListOptions{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := storage.List(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(list))
		})
	}
}

// TestTaskStorage_ConcurrentAccess проверяет потокобезопасность
func TestTaskStorage_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tk := &task.Task{Name: fmt.Sprintf("task %d", n), Status: task.StatusToDo}
			assert.NoError(t, storage.Create(ctx, tk))
			_, err := storage.Update(ctx, tk.ID, task.NewPatch(task.WithStatus(task.StatusDone)))
			assert.NoError(t, err)
			_, err = storage.List(ctx, task.ListOptions{Status: "Done"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list, err := storage.List(ctx, task.ListOptions{Status: "Done"})
	require.NoError(t, err)
	assert.Len(t, list, 50)
}
