// Copyright 2017 Google LLC. All Rights Reserved.
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

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/google/hashserv/merkle"
	"github.com/google/hashserv/storage"
)

const degree = 8

func byPosition(a, b storage.Leaf) bool {
	if a.Block != b.Block {
		return a.Block < b.Block
	}
	return a.Index < b.Index
}

func byDigest(a, b storage.Leaf) bool {
	return a.Digest < b.Digest
}

// LedgerStorage is an in-memory storage.LedgerStorage.
type LedgerStorage struct {
	mu       sync.RWMutex
	byPos    *btree.BTreeG[storage.Leaf]
	byDigest *btree.BTreeG[storage.Leaf]
	// sealed holds the blocks sealed so far; its length is the open block.
	sealed   []storage.Block
	openSize int64
}

// NewLedgerStorage returns an empty in-memory ledger.
func NewLedgerStorage() *LedgerStorage {
	return &LedgerStorage{
		byPos:    btree.NewG(degree, byPosition),
		byDigest: btree.NewG(degree, byDigest),
	}
}

func (m *LedgerStorage) openBlock() int64 {
	return int64(len(m.sealed))
}

// Submit implements storage.LedgerStorage.
func (m *LedgerStorage) Submit(_ context.Context, d merkle.Digest, now time.Time) (storage.Leaf, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.byDigest.Get(storage.Leaf{Digest: d}); ok {
		return l, false, nil
	}
	l := storage.Leaf{Digest: d, Block: m.openBlock(), Index: m.openSize, SubmittedAt: now}
	m.byPos.ReplaceOrInsert(l)
	m.byDigest.ReplaceOrInsert(l)
	m.openSize++
	return l, true, nil
}

// OpenBlock implements storage.LedgerStorage.
func (m *LedgerStorage) OpenBlock(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.openBlock(), nil
}

// Leaves implements storage.LedgerStorage.
func (m *LedgerStorage) Leaves(_ context.Context, n int64) ([]merkle.Digest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n < 0 || n > m.openBlock() {
		return nil, storage.ErrNotFound
	}
	ds := []merkle.Digest{}
	m.byPos.AscendRange(storage.Leaf{Block: n}, storage.Leaf{Block: n + 1}, func(l storage.Leaf) bool {
		ds = append(ds, l.Digest)
		return true
	})
	return ds, nil
}

// Lookup implements storage.LedgerStorage.
func (m *LedgerStorage) Lookup(_ context.Context, d merkle.Digest) (storage.Leaf, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.byDigest.Get(storage.Leaf{Digest: d})
	if !ok {
		return storage.Leaf{}, storage.ErrNotFound
	}
	return l, nil
}

// Block implements storage.LedgerStorage.
func (m *LedgerStorage) Block(_ context.Context, n int64) (*storage.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch open := m.openBlock(); {
	case n < 0 || n > open:
		return nil, storage.ErrNotFound
	case n == open:
		return &storage.Block{Number: n, Size: m.openSize}, nil
	}
	b := m.sealed[n]
	return &b, nil
}

// Seal implements storage.LedgerStorage.
func (m *LedgerStorage) Seal(_ context.Context, n, size int64, root merkle.Digest, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n != m.openBlock() || size != m.openSize {
		return storage.ErrConflict
	}
	m.sealed = append(m.sealed, storage.Block{Number: n, Root: root, Size: size, SealedAt: now, Sealed: true})
	m.openSize = 0
	return nil
}

// CheckDatabaseAccessible implements storage.LedgerStorage.
func (m *LedgerStorage) CheckDatabaseAccessible(context.Context) error {
	return nil
}
