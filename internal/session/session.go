// Package session - хранилище "ключ-значение", живущее в пределах одной сессии клиента
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotInitialized возвращается при обращении к хранилищу до Init
var ErrNotInitialized = errors.New("сессия не инициализирована")

type Store interface {
	// Init открывает сессию; повторный вызов идемпотентен
	Init(ctx context.Context) error
	// Get возвращает значение и признак его наличия
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	ID() string
	Close() error
}

// NewID создаёт идентификатор новой сессии
func NewID() string {
	return uuid.NewString()
}

// MemoryStore живёт, пока жив процесс
type MemoryStore struct {
	mu     sync.RWMutex
	id     string
	values map[string]string
}

func NewMemoryStore(id string) *MemoryStore {
	if id == "" {
		id = NewID()
	}
	return &MemoryStore{id: id}
}

func (m *MemoryStore) Init(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.values == nil {
		return "", false, ErrNotInitialized
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		return ErrNotInitialized
	}
	m.values[key] = value
	return nil
}

func (m *MemoryStore) ID() string {
	return m.id
}

func (m *MemoryStore) Close() error {
	return nil
}
