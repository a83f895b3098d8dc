// Package repotest содержит общий набор проверок для всех реализаций хранилища задач
package repotest

import (
	"context"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Repository interface {
	Create(context.Context, *task.Task) error
	GetByID(context.Context, int64) (*task.Task, error)
	List(context.Context, task.ListOptions) ([]*task.Task, error)
	Update(context.Context, int64, task.Patch) (*task.Task, error)
	Delete(context.Context, int64) error
}

// Factory возвращает пустое хранилище для каждого подтеста
type Factory func(t *testing.T) Repository

func Run(t *testing.T, newRepo Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newRepo(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newRepo(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newRepo(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newRepo(t)) })
	t.Run("List", func(t *testing.T) { testList(t, newRepo(t)) })
	t.Run("SearchIsLiteral", func(t *testing.T) { testSearchIsLiteral(t, newRepo(t)) })
	t.Run("SearchFoldsUnicode", func(t *testing.T) { testSearchFoldsUnicode(t, newRepo(t)) })
}

func Names(tasks []*task.Task) []string {
	res := make([]string, len(tasks))
	for i, t := range tasks {
		res[i] = t.Name
	}
	return res
}

func create(t *testing.T, r Repository, name string, status task.Status) *task.Task {
	t.Helper()
	tk := &task.Task{Name: name, Status: status}
	require.NoError(t, r.Create(context.Background(), tk))
	// различимые created_at даже на быстрых машинах
	time.Sleep(2 * time.Millisecond)
	return tk
}

func testCreateAndGet(t *testing.T, r Repository) {
	ctx := context.Background()

	tk := &task.Task{Name: "Buy milk", Description: "2 liters", Status: task.StatusToDo}
	require.NoError(t, r.Create(ctx, tk))
	assert.NotZero(t, tk.ID)
	assert.False(t, tk.CreatedAt.IsZero())

	other := create(t, r, "Walk dog", task.StatusToDo)
	assert.NotEqual(t, tk.ID, other.ID)

	got, err := r.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, tk.ID, got.ID)
	assert.Equal(t, "Buy milk", got.Name)
	assert.Equal(t, "2 liters", got.Description)
	assert.Equal(t, task.StatusToDo, got.Status)
	assert.WithinDuration(t, tk.CreatedAt, got.CreatedAt, time.Millisecond)
}

func testGetMissing(t *testing.T, r Repository) {
	_, err := r.GetByID(context.Background(), 987654)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testUpdate(t *testing.T, r Repository) {
	ctx := context.Background()
	tk := &task.Task{Name: "Buy milk", Description: "2 liters", Status: task.StatusToDo}
	require.NoError(t, r.Create(ctx, tk))

	updated, err := r.Update(ctx, tk.ID, task.NewPatch(task.WithStatus(task.StatusDone)))
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, updated.Status)
	assert.Equal(t, "Buy milk", updated.Name)
	assert.Equal(t, "2 liters", updated.Description)

	updated, err = r.Update(ctx, tk.ID, task.NewPatch(task.WithName("Buy oat milk"), task.WithDescription("")))
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", updated.Name)
	assert.Equal(t, "", updated.Description)
	assert.Equal(t, task.StatusDone, updated.Status)

	got, err := r.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Name, got.Name)
	assert.Equal(t, updated.Status, got.Status)
	assert.WithinDuration(t, tk.CreatedAt, got.CreatedAt, time.Millisecond)

	_, err = r.Update(ctx, 987654, task.NewPatch(task.WithName("ghost")))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testDelete(t *testing.T, r Repository) {
	ctx := context.Background()
	keep := create(t, r, "Keep me", task.StatusToDo)
	gone := create(t, r, "Delete me", task.StatusToDo)

	require.NoError(t, r.Delete(ctx, gone.ID))

	_, err := r.GetByID(ctx, gone.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, gone.ID), repository.ErrNotFound)

	list, err := r.List(ctx, task.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{keep.Name}, Names(list))
}

func testList(t *testing.T, r Repository) {
	ctx := context.Background()

	empty, err := r.List(ctx, task.ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	create(t, r, "Buy milk", task.StatusToDo)
	create(t, r, "Read book", task.StatusInProgress)
	create(t, r, "Buy bread", task.StatusDone)
	create(t, r, "Call mom", task.StatusToDo)

	tests := []struct {
		name string
		opts task.ListOptions
		want []string
	}{
		{"default newest first", task.ListOptions{}, []string{"Call mom", "Buy bread", "Read book", "Buy milk"}},
		{"status filter", task.ListOptions{Status: "To Do"}, []string{"Call mom", "Buy milk"}},
		{"all sentinel", task.ListOptions{Status: "All", Order: "asc"}, []string{"Buy milk", "Read book", "Buy bread", "Call mom"}},
		{"unknown status matches nothing", task.ListOptions{Status: "Archived"}, []string{}},
		{"case insensitive search", task.ListOptions{Search: "bUY"}, []string{"Buy bread", "Buy milk"}},
		{"search and status", task.ListOptions{Search: "buy", Status: "Done"}, []string{"Buy bread"}},
		{"sort by name asc", task.ListOptions{SortBy: "name", Order: "asc"}, []string{"Buy bread", "Buy milk", "Call mom", "Read book"}},
		{"sort by name desc", task.ListOptions{SortBy: "name", Order: "desc"}, []string{"Read book", "Call mom", "Buy milk", "Buy bread"}},
		{"sort by status asc", task.ListOptions{SortBy: "status", Order: "asc"}, []string{"Buy bread", "Read book", "Buy milk", "Call mom"}},
		{"unknown sort falls back to createdAt desc", task.ListOptions{SortBy: "priority", Order: "sideways"}, []string{"Call mom", "Buy bread", "Read book", "Buy milk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := r.List(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Names(list))
		})
	}
}

func testSearchIsLiteral(t *testing.T, r Repository) {
	ctx := context.Background()
	create(t, r, "50% off", task.StatusToDo)
	create(t, r, "500 offers", task.StatusToDo)
	create(t, r, "snake_case", task.StatusToDo)
	create(t, r, "snakeXcase", task.StatusToDo)

	list, err := r.List(ctx, task.ListOptions{Search: "0%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"50% off"}, Names(list))

	list, err = r.List(ctx, task.ListOptions{Search: "e_c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"snake_case"}, Names(list))
}

func testSearchFoldsUnicode(t *testing.T, r Repository) {
	ctx := context.Background()
	create(t, r, "Купить Молоко", task.StatusToDo)
	create(t, r, "Café Öl", task.StatusToDo)
	create(t, r, "Buy milk", task.StatusToDo)

	tests := []struct {
		search string
		want   []string
	}{
		{"молоко", []string{"Купить Молоко"}},
		{"КУПИТЬ", []string{"Купить Молоко"}},
		{"café öl", []string{"Café Öl"}},
		{"CAFÉ", []string{"Café Öl"}},
		{"öl", []string{"Café Öl"}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			list, err := r.List(ctx, task.ListOptions{Search: tt.search})
			require.NoError(t, err)
			assert.Equal(t, tt.want, Names(list))
		})
	}
}
