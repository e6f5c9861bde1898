package rotation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jo-hoe/gowall/internal/database"
	"github.com/jo-hoe/gowall/internal/postprocess"
)

const cacheKeyPrefix = "gowall:image:"

// Loader reads wallpaper files from disk and decodes them. When a redis
// client is configured the raw file bytes are cached so repeated rotation
// over a small working set stays off the filesystem.
type Loader struct {
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewLoader creates a Loader. cache may be nil to disable caching.
func NewLoader(cache *redis.Client, cacheTTL time.Duration) *Loader {
	return &Loader{cache: cache, cacheTTL: cacheTTL}
}

// Load returns the decoded image for the given record.
func (l *Loader) Load(ctx context.Context, img *database.Image) (image.Image, error) {
	data, err := l.readBytes(ctx, img)
	if err != nil {
		return nil, err
	}

	decoded, err := postprocess.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %d (%s): %w", img.ID, img.FilePath, err)
	}
	return decoded, nil
}

func (l *Loader) readBytes(ctx context.Context, img *database.Image) ([]byte, error) {
	key := fmt.Sprintf("%s%d", cacheKeyPrefix, img.ID)

	if l.cache != nil {
		data, err := l.cache.Get(ctx, key).Bytes()
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, redis.Nil) {
			// Cache trouble is not fatal; fall through to the filesystem.
			slog.Warn("image cache read failed", "key", key, "error", err)
		}
	}

	data, err := os.ReadFile(img.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file %s: %w", img.FilePath, err)
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, key, data, l.cacheTTL).Err(); err != nil {
			slog.Warn("image cache write failed", "key", key, "error", err)
		}
	}

	return data, nil
}

// Invalidate drops the cached bytes for the given record ids.
func (l *Loader) Invalidate(ctx context.Context, ids ...int64) {
	if l.cache == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("%s%d", cacheKeyPrefix, id)
	}
	if err := l.cache.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("image cache invalidation failed", "keys", keys, "error", err)
	}
}
