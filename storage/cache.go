package storage

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"todos-api/domain"
)

type backend interface {
	List(ctx context.Context) ([]domain.Todo, error)
	Create(ctx context.Context, name string) (domain.Todo, error)
	Rename(ctx context.Context, id int64, name string) (domain.Todo, error)
	Delete(ctx context.Context, id int64) (domain.Todo, error)
	Toggle(ctx context.Context, id int64) (domain.Todo, error)
}

// Cache wraps a store with a Redis-backed snapshot of the todo list. Keys are
// namespaced per Cache so processes sharing one Redis never serve each
// other's lists, and carry a generation that every successful mutation
// advances, so a snapshot taken before a mutation is never read after it
// even when its eviction fails.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
	ns    string
	gen   atomic.Uint64

	// mu orders snapshot writes against generation bumps.
	mu sync.Mutex
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
// A nil client or a zero TTL disables caching.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
		ns:    uuid.NewString(),
	}
}

func (c *Cache) List(ctx context.Context) ([]domain.Todo, error) {
	if todos, ok := c.loadList(ctx); ok {
		return todos, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	todos, err := c.base.List(ctx)
	if err != nil {
		return nil, err
	}
	c.storeList(ctx, todos)
	return todos, nil
}

func (c *Cache) Create(ctx context.Context, name string) (domain.Todo, error) {
	return c.mutate(ctx, func() (domain.Todo, error) { return c.base.Create(ctx, name) })
}

func (c *Cache) Rename(ctx context.Context, id int64, name string) (domain.Todo, error) {
	return c.mutate(ctx, func() (domain.Todo, error) { return c.base.Rename(ctx, id, name) })
}

func (c *Cache) Delete(ctx context.Context, id int64) (domain.Todo, error) {
	return c.mutate(ctx, func() (domain.Todo, error) { return c.base.Delete(ctx, id) })
}

func (c *Cache) Toggle(ctx context.Context, id int64) (domain.Todo, error) {
	return c.mutate(ctx, func() (domain.Todo, error) { return c.base.Toggle(ctx, id) })
}

func (c *Cache) mutate(ctx context.Context, op func() (domain.Todo, error)) (domain.Todo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	todo, err := op()
	if err != nil {
		return domain.Todo{}, err
	}
	stale := c.listKey()
	c.gen.Add(1)
	c.evict(ctx, stale)
	return todo, nil
}

func (c *Cache) loadList(ctx context.Context) ([]domain.Todo, bool) {
	if c.redis == nil {
		return nil, false
	}
	key := c.listKey()
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var todos []domain.Todo
	if err := sonic.Unmarshal(data, &todos); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return todos, true
}

func (c *Cache) storeList(ctx context.Context, todos []domain.Todo) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(todos)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, c.listKey(), data, c.ttl).Err()
}

// evict drops a superseded snapshot. Failures only leave garbage behind until
// the TTL expires; the key is no longer reachable.
func (c *Cache) evict(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, key).Err()
}

func (c *Cache) listKey() string {
	return "todos:" + c.ns + ":list:" + strconv.FormatUint(c.gen.Load(), 10)
}
