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

// Package storage defines the persistence layer of a hashserv ledger.
//
// Digests are appended to the open block. The open block number equals the
// number of sealed blocks, so blocks are numbered from 0 with no gaps.
// Sealing records the Merkle root of a block and opens the next one; a
// sealed block never changes.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/hashserv/merkle"
)

var (
	// ErrNotFound is returned when a digest or block does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrConflict is returned when a write lost a race with another writer,
	// for example sealing a block that has changed or is no longer open.
	ErrConflict = errors.New("storage: conflict")
)

// Block describes a block of the ledger.
type Block struct {
	Number int64
	// Root is empty while the block is open.
	Root merkle.Digest
	// Size is the number of leaves in the block.
	Size     int64
	SealedAt time.Time
	Sealed   bool
}

// Leaf is a digest stored in the ledger along with its position.
type Leaf struct {
	Digest      merkle.Digest
	Block       int64
	Index       int64
	SubmittedAt time.Time
}

// LedgerStorage is the persistence interface used by the ledger.
// Implementations must be safe for concurrent use.
type LedgerStorage interface {
	// Submit appends d to the open block. If d was already submitted it
	// returns the stored leaf and false.
	Submit(ctx context.Context, d merkle.Digest, now time.Time) (Leaf, bool, error)
	// OpenBlock returns the number of the block currently accepting leaves.
	OpenBlock(ctx context.Context) (int64, error)
	// Leaves returns the digests of block n ordered by index. It returns
	// ErrNotFound for blocks beyond the open block.
	Leaves(ctx context.Context, n int64) ([]merkle.Digest, error)
	// Lookup returns the leaf stored for d, or ErrNotFound.
	Lookup(ctx context.Context, d merkle.Digest) (Leaf, error)
	// Block returns the metadata of block n. The open block is reported
	// with Sealed false and its current size.
	Block(ctx context.Context, n int64) (*Block, error)
	// Seal records root as the root of block n and opens block n+1.
	// It returns ErrConflict unless n is the open block and holds exactly
	// size leaves.
	Seal(ctx context.Context, n, size int64, root merkle.Digest, now time.Time) error
	// CheckDatabaseAccessible returns nil if the backing store can be reached.
	CheckDatabaseAccessible(ctx context.Context) error
}
