package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
// Values are stored as JSON, strings are stored as is.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
}

// Key joins a prefix and parts with ':'.
func Key(prefix string, parts ...interface{}) string {
	key := prefix
	for _, p := range parts {
		key = fmt.Sprintf("%s:%v", key, p)
	}
	return key
}

// GetOrLoad reads key into a T, calling load and storing the result on a miss.
// Cache read and write failures fall through to load.
func GetOrLoad[T any](ctx context.Context, c Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c != nil {
		if err := c.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if c != nil {
		_ = c.Set(ctx, key, v, ttl)
	}
	return v, nil
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case *string:
		return []byte(*v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(value)
	}
}

func decode(data []byte, dest interface{}) error {
	if strPtr, ok := dest.(*string); ok {
		*strPtr = string(data)
		return nil
	}
	return json.Unmarshal(data, dest)
}
