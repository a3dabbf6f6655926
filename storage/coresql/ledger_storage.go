// Copyright 2018 Google LLC. All Rights Reserved.
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

package coresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/hashserv/merkle"
	"github.com/google/hashserv/monitoring"
	"github.com/google/hashserv/storage"
	"k8s.io/klog/v2"
)

const (
	selectLeafSQL      = "SELECT BlockNumber, LeafIndex, SubmittedAtNanos FROM Leaves WHERE Digest = ?"
	selectOpenBlockSQL = "SELECT COUNT(*) FROM Blocks"
	selectBlockSizeSQL = "SELECT COUNT(*) FROM Leaves WHERE BlockNumber = ?"
	selectDigestsSQL   = "SELECT Digest FROM Leaves WHERE BlockNumber = ? ORDER BY LeafIndex"
	selectBlockSQL     = "SELECT RootDigest, LeafCount, SealedAtNanos FROM Blocks WHERE BlockNumber = ?"
	insertLeafSQL      = "INSERT INTO Leaves(Digest, BlockNumber, LeafIndex, SubmittedAtNanos) VALUES(?, ?, ?, ?)"
	insertBlockSQL     = "INSERT INTO Blocks(BlockNumber, RootDigest, LeafCount, SealedAtNanos) VALUES(?, ?, ?, ?)"

	// maxAttempts bounds how often a transaction which lost a race is run.
	maxAttempts = 8
)

var (
	once      sync.Once
	txRetries monitoring.Counter
)

func createMetrics(mf monitoring.MetricFactory) {
	if mf == nil {
		mf = monitoring.InertMetricFactory{}
	}
	txRetries = mf.NewCounter("sql_tx_retries", "Number of ledger storage transactions retried after a conflict", "dialect")
}

// queryer is implemented by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// LedgerStorage is a storage.LedgerStorage backed by a SQL database.
type LedgerStorage struct {
	db *sql.DB
	d  Dialect
}

// NewLedgerStorage returns a LedgerStorage using db. The schema must
// already exist, see CreateSchema.
func NewLedgerStorage(db *sql.DB, d Dialect, mf monitoring.MetricFactory) *LedgerStorage {
	once.Do(func() { createMetrics(mf) })
	return &LedgerStorage{db: db, d: d}
}

func (s *LedgerStorage) q(query string) string {
	return s.d.Rebind(query)
}

// inTx runs fn in a transaction, running it again while it fails with an
// error the dialect considers retryable. Unique constraint violations are
// retried only if retryDuplicates is set.
func (s *LedgerStorage) inTx(ctx context.Context, retryDuplicates bool, fn func(*sql.Tx) error) error {
	for attempt := 1; ; attempt++ {
		err := s.d.RunTx(ctx, s.db, fn)
		if err == nil {
			return nil
		}
		retry := s.d.IsRetryableErr(err) || (retryDuplicates && s.d.IsDuplicateErr(err))
		if !retry || attempt >= maxAttempts || ctx.Err() != nil {
			return err
		}
		txRetries.Inc(s.d.Name())
		klog.V(1).Infof("%s: retrying transaction after attempt %d: %v", s.d.Name(), attempt, err)
	}
}

func (s *LedgerStorage) lookup(ctx context.Context, q queryer, d merkle.Digest) (storage.Leaf, error) {
	l := storage.Leaf{Digest: d}
	var nanos int64
	err := q.QueryRowContext(ctx, s.q(selectLeafSQL), string(d)).Scan(&l.Block, &l.Index, &nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Leaf{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Leaf{}, fmt.Errorf("lookup %s: %w", d, err)
	}
	l.SubmittedAt = fromNanos(nanos)
	return l, nil
}

func (s *LedgerStorage) count(ctx context.Context, q queryer, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, s.q(query), args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Submit implements storage.LedgerStorage.
func (s *LedgerStorage) Submit(ctx context.Context, d merkle.Digest, now time.Time) (storage.Leaf, bool, error) {
	var (
		leaf  storage.Leaf
		added bool
	)
	err := s.inTx(ctx, true, func(tx *sql.Tx) error {
		l, err := s.lookup(ctx, tx, d)
		if err == nil {
			leaf, added = l, false
			return nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		open, err := s.count(ctx, tx, selectOpenBlockSQL)
		if err != nil {
			return err
		}
		size, err := s.count(ctx, tx, selectBlockSizeSQL, open)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.q(insertLeafSQL), string(d), open, size, now.UnixNano()); err != nil {
			return err
		}
		leaf = storage.Leaf{Digest: d, Block: open, Index: size, SubmittedAt: fromNanos(now.UnixNano())}
		added = true
		return nil
	})
	if err != nil {
		return storage.Leaf{}, false, fmt.Errorf("%s: submit %s: %w", s.d.Name(), d, err)
	}
	return leaf, added, nil
}

// OpenBlock implements storage.LedgerStorage.
func (s *LedgerStorage) OpenBlock(ctx context.Context) (int64, error) {
	return s.count(ctx, s.db, selectOpenBlockSQL)
}

// Leaves implements storage.LedgerStorage.
func (s *LedgerStorage) Leaves(ctx context.Context, n int64) ([]merkle.Digest, error) {
	open, err := s.OpenBlock(ctx)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > open {
		return nil, storage.ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx, s.q(selectDigestsSQL), n)
	if err != nil {
		return nil, fmt.Errorf("%s: leaves of block %d: %w", s.d.Name(), n, err)
	}
	defer rows.Close()

	ds := []merkle.Digest{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		ds = append(ds, merkle.Digest(d))
	}
	return ds, rows.Err()
}

// Lookup implements storage.LedgerStorage.
func (s *LedgerStorage) Lookup(ctx context.Context, d merkle.Digest) (storage.Leaf, error) {
	return s.lookup(ctx, s.db, d)
}

// Block implements storage.LedgerStorage.
func (s *LedgerStorage) Block(ctx context.Context, n int64) (*storage.Block, error) {
	if n < 0 {
		return nil, storage.ErrNotFound
	}
	b := &storage.Block{Number: n}
	var root string
	var nanos int64
	err := s.db.QueryRowContext(ctx, s.q(selectBlockSQL), n).Scan(&root, &b.Size, &nanos)
	switch {
	case err == nil:
		b.Root, b.SealedAt, b.Sealed = merkle.Digest(root), fromNanos(nanos), true
		return b, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%s: block %d: %w", s.d.Name(), n, err)
	}

	open, err := s.OpenBlock(ctx)
	if err != nil {
		return nil, err
	}
	if n != open {
		return nil, storage.ErrNotFound
	}
	if b.Size, err = s.count(ctx, s.db, selectBlockSizeSQL, n); err != nil {
		return nil, err
	}
	return b, nil
}

// Seal implements storage.LedgerStorage.
func (s *LedgerStorage) Seal(ctx context.Context, n, size int64, root merkle.Digest, now time.Time) error {
	err := s.inTx(ctx, false, func(tx *sql.Tx) error {
		open, err := s.count(ctx, tx, selectOpenBlockSQL)
		if err != nil {
			return err
		}
		if n != open {
			return fmt.Errorf("block %d is not open (open block is %d): %w", n, open, storage.ErrConflict)
		}
		got, err := s.count(ctx, tx, selectBlockSizeSQL, n)
		if err != nil {
			return err
		}
		if got != size {
			return fmt.Errorf("block %d has %d leaves, want %d: %w", n, got, size, storage.ErrConflict)
		}
		_, err = tx.ExecContext(ctx, s.q(insertBlockSQL), n, string(root), size, now.UnixNano())
		return err
	})
	if s.d.IsDuplicateErr(err) {
		return fmt.Errorf("block %d already sealed: %w", n, storage.ErrConflict)
	}
	return err
}

// CheckDatabaseAccessible implements storage.LedgerStorage.
func (s *LedgerStorage) CheckDatabaseAccessible(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func fromNanos(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}
