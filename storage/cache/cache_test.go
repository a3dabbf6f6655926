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

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/go-cmp/cmp"
	"github.com/google/hashserv/merkle"
)

// fakeRedis is an in-memory RedisClient.
type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	var c ProofCache = NoopCache{}
	if err := c.Put(ctx, "d", []byte("x")); err != nil {
		t.Fatalf("Put(): %v", err)
	}
	if _, ok, err := c.Get(ctx, "d"); ok || err != nil {
		t.Errorf("Get() = %v, %v, want miss", ok, err)
	}
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	f := newFakeRedis()
	c := NewRedis(f, "proof:", time.Hour)

	if _, ok, err := c.Get(ctx, "abcd"); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v, want miss", ok, err)
	}
	want := []byte{0xa1, 0x01, 0x02}
	if err := c.Put(ctx, "abcd", want); err != nil {
		t.Fatalf("Put(): %v", err)
	}
	got, ok, err := c.Get(ctx, "abcd")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, want hit", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get() diff (-want +got):\n%s", diff)
	}
	if ttl := f.ttls["proof:abcd"]; ttl != time.Hour {
		t.Errorf("stored TTL = %v, want %v", ttl, time.Hour)
	}
}

func TestRedisCacheIntegration(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer rdb.Close()
	if err := rdb.Ping().Err(); err != nil {
		t.Skipf("Skipping test as Redis is not available: %v", err)
	}
	ctx := context.Background()
	c := NewRedis(rdb, "hashserv-test:", time.Minute)
	d := merkle.Digest(time.Now().Format(time.RFC3339Nano))
	if err := c.Put(ctx, d, []byte("proof")); err != nil {
		t.Fatalf("Put(): %v", err)
	}
	got, ok, err := c.Get(ctx, d)
	if err != nil || !ok || string(got) != "proof" {
		t.Errorf("Get() = %q, %v, %v, want proof", got, ok, err)
	}
}
