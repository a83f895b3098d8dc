package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL    = 24 * time.Hour
	defaultPrefix = "taskcli:session:"
)

// RedisStore хранит значения сессии в хэше Redis с ключом prefix+id
type RedisStore struct {
	client *redis.Client
	id     string
	prefix string
	ttl    time.Duration

	mu          sync.Mutex
	initialized bool
}

type RedisOption func(*RedisStore)

func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore разбирает redis://... и настраивает пул соединений
func NewRedisStore(url, id string, opts ...RedisOption) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("неверный адрес Redis: %w", err)
	}
	opt.PoolSize = 4
	opt.MinIdleConns = 1
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	return NewRedisStoreWithClient(redis.NewClient(opt), id, opts...), nil
}

func NewRedisStoreWithClient(client *redis.Client, id string, opts ...RedisOption) *RedisStore {
	if id == "" {
		id = NewID()
	}
	s := &RedisStore{
		client: client,
		id:     id,
		prefix: defaultPrefix,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key() string {
	return s.prefix + s.id
}

func (s *RedisStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("подключение к Redis: %w", err)
	}
	if err := s.client.HSetNX(ctx, s.key(), "created_at", time.Now().UTC().Format(time.RFC3339)).Err(); err != nil {
		return fmt.Errorf("создание сессии: %w", err)
	}
	if err := s.client.Expire(ctx, s.key(), s.ttl).Err(); err != nil {
		return fmt.Errorf("установка TTL сессии: %w", err)
	}
	s.initialized = true
	return nil
}

func (s *RedisStore) ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if !s.ready() {
		return "", false, ErrNotInitialized
	}

	v, err := s.client.HGet(ctx, s.key(), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("чтение %q из сессии: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if !s.ready() {
		return ErrNotInitialized
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(), key, value)
	pipe.Expire(ctx, s.key(), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("запись %q в сессию: %w", key, err)
	}
	return nil
}

func (s *RedisStore) ID() string {
	return s.id
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
