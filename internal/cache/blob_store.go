package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// BlobStore is a key-value store of opaque JSON blobs.
// Each Set replaces the whole value in one command.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

type blobStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBlobStore creates a blob store; a zero ttl keeps values forever
func NewBlobStore(client *redis.Client, ttl time.Duration) BlobStore {
	return &blobStore{
		client: client,
		ttl:    ttl,
	}
}

// Get returns (nil, nil) for a missing key
func (s *blobStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *blobStore) Set(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *blobStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Keys lists keys matching a glob pattern using SCAN
func (s *blobStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
