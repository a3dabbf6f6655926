// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache provides caches of encoded inclusion proofs. Proofs of
// leaves in sealed blocks never change, so they can be kept indefinitely.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/hashserv/merkle"
)

// ProofCache stores encoded proofs keyed by leaf digest.
type ProofCache interface {
	// Get returns the cached data for d, if any.
	Get(ctx context.Context, d merkle.Digest) ([]byte, bool, error)
	// Put caches data for d.
	Put(ctx context.Context, d merkle.Digest, data []byte) error
}

// NoopCache caches nothing.
type NoopCache struct{}

// Get always misses.
func (NoopCache) Get(context.Context, merkle.Digest) ([]byte, bool, error) {
	return nil, false, nil
}

// Put discards data.
func (NoopCache) Put(context.Context, merkle.Digest, []byte) error {
	return nil
}

// RedisClient is the subset of the go-redis client API used by RedisCache,
// which allows selecting among regular, cluster and sharded clients.
type RedisClient interface {
	Get(key string) *redis.StringCmd
	Set(key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache is a ProofCache stored in Redis.
type RedisCache struct {
	c      RedisClient
	prefix string
	ttl    time.Duration
}

// NewRedis returns a RedisCache storing entries under keys starting with
// prefix. Entries expire after ttl, or never if ttl is zero.
func NewRedis(c RedisClient, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{c: c, prefix: prefix, ttl: ttl}
}

func (r *RedisCache) key(d merkle.Digest) string {
	return r.prefix + string(d)
}

// Get implements ProofCache.
func (r *RedisCache) Get(ctx context.Context, d merkle.Digest) ([]byte, bool, error) {
	data, err := withClientContext(ctx, r.c).Get(r.key(d)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put implements ProofCache.
func (r *RedisCache) Put(ctx context.Context, d merkle.Digest, data []byte) error {
	return withClientContext(ctx, r.c).Set(r.key(d), data, r.ttl).Err()
}

// Each Redis client type has a WithContext method returning its own concrete
// type, so it cannot be part of RedisClient.
func withClientContext(ctx context.Context, client RedisClient) RedisClient {
	type withContextable interface {
		WithContext(context.Context) RedisClient
	}

	switch c := client.(type) {
	case *redis.Client:
		return c.WithContext(ctx)
	case *redis.ClusterClient:
		return c.WithContext(ctx)
	case *redis.Ring:
		return c.WithContext(ctx)
	case withContextable:
		return c.WithContext(ctx)
	}
	return client
}
