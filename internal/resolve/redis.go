package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisGetter is the subset of the Redis client used by RedisResolver
type RedisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisResolver loads template sources stored as Redis string keys
type RedisResolver struct {
	client  RedisGetter
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisResolver creates a new Redis resolver. Template paths are
// prefixed with prefix to form the key, e.g. "tmpl:" + "mail/welcome.html".
func NewRedisResolver(client RedisGetter, prefix string, timeout time.Duration, logger *zap.Logger) *RedisResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RedisResolver{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
		logger:  logger,
	}
}

// Key returns the Redis key for a template path
func (r *RedisResolver) Key(path string) string {
	return r.prefix + trimLeadingSlash(path)
}

// Resolve loads the source from Redis
func (r *RedisResolver) Resolve(path string) (io.ReadCloser, error) {
	key := r.Key(path)

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to load template source %s: %w", key, err)
	}

	r.logger.Debug("loaded template source from redis",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return io.NopCloser(strings.NewReader(data)), nil
}

// IsValidPath cannot be answered without a round trip, so validity is
// reported as unknown and a missing key fails when the source is loaded.
func (r *RedisResolver) IsValidPath(string) (bool, bool) {
	return false, false
}

// ID makes resolvers with different key prefixes distinct
func (r *RedisResolver) ID() string {
	return r.prefix
}
