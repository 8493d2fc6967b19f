package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"board-api/domain"
)

// Cache wraps a Store with Redis-backed caching for the two board listings.
// Any write for an owner evicts that owner's cached listings; Redis failures
// fall back to the backing store without surfacing an error.
type Cache struct {
	base  Store
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Store wrapper using the provided Redis client and TTL.
func NewCache(base Store, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListColumns(ctx context.Context, ownerID string) ([]domain.Column, error) {
	key := columnsCacheKey(ownerID)
	var cached []domain.Column
	if c.load(ctx, key, &cached) {
		return cached, nil
	}
	cols, err := c.base.ListColumns(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, cols)
	return cols, nil
}

func (c *Cache) GetColumn(ctx context.Context, id, ownerID string) (domain.Column, error) {
	return c.base.GetColumn(ctx, id, ownerID)
}

func (c *Cache) InsertColumn(ctx context.Context, col domain.Column) error {
	if err := c.base.InsertColumn(ctx, col); err != nil {
		return err
	}
	c.evict(ctx, col.OwnerID)
	return nil
}

func (c *Cache) InsertColumns(ctx context.Context, cols []domain.Column) error {
	if err := c.base.InsertColumns(ctx, cols); err != nil {
		return err
	}
	if len(cols) > 0 {
		c.evict(ctx, cols[0].OwnerID)
	}
	return nil
}

func (c *Cache) UpdateColumn(ctx context.Context, col domain.Column) error {
	if err := c.base.UpdateColumn(ctx, col); err != nil {
		return err
	}
	c.evict(ctx, col.OwnerID)
	return nil
}

func (c *Cache) DeleteColumn(ctx context.Context, id, ownerID string) error {
	if err := c.base.DeleteColumn(ctx, id, ownerID); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

func (c *Cache) ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	key := tasksCacheKey(ownerID)
	var cached []domain.Task
	if c.load(ctx, key, &cached) {
		return cached, nil
	}
	tasks, err := c.base.ListTasks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, tasks)
	return tasks, nil
}

func (c *Cache) GetTask(ctx context.Context, id, ownerID string) (domain.Task, error) {
	return c.base.GetTask(ctx, id, ownerID)
}

func (c *Cache) InsertTask(ctx context.Context, task domain.Task) error {
	if err := c.base.InsertTask(ctx, task); err != nil {
		return err
	}
	c.evict(ctx, task.OwnerID)
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, task domain.Task) error {
	if err := c.base.UpdateTask(ctx, task); err != nil {
		return err
	}
	c.evict(ctx, task.OwnerID)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, id, ownerID string) error {
	if err := c.base.DeleteTask(ctx, id, ownerID); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

func (c *Cache) load(ctx context.Context, key string, out any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, ownerID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, columnsCacheKey(ownerID), tasksCacheKey(ownerID)).Result()
}

func columnsCacheKey(ownerID string) string {
	return "columns:" + ownerID
}

func tasksCacheKey(ownerID string) string {
	return "tasks:" + ownerID
}
