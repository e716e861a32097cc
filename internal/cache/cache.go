package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Probe Cache Operations

// ProbeKey identifies a probe result. The key changes whenever the file is
// replaced or modified, so stale entries are never returned.
func ProbeKey(path string, stat os.FileInfo) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha1.Sum([]byte(abs))
	return fmt.Sprintf("probe:%s:%d:%d", hex.EncodeToString(sum[:]), stat.Size(), stat.ModTime().UnixNano())
}

// SetVideoInfo caches probe metadata for the file at path
func (c *Cache) SetVideoInfo(ctx context.Context, path string, stat os.FileInfo, info *models.VideoInfo, ttl time.Duration) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal video info: %w", err)
	}

	return c.client.Set(ctx, ProbeKey(path, stat), data, ttl).Err()
}

// GetVideoInfo retrieves probe metadata from cache. A miss returns nil, nil.
func (c *Cache) GetVideoInfo(ctx context.Context, path string, stat os.FileInfo) (*models.VideoInfo, error) {
	data, err := c.client.Get(ctx, ProbeKey(path, stat)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get video info from cache: %w", err)
	}

	var info models.VideoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video info: %w", err)
	}

	return &info, nil
}

// DeleteVideoInfo removes cached probe metadata
func (c *Cache) DeleteVideoInfo(ctx context.Context, path string, stat os.FileInfo) error {
	return c.client.Del(ctx, ProbeKey(path, stat)).Err()
}

// Health check
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
