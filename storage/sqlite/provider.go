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

// Package sqlite provides a SQLite-based storage.LedgerStorage, the
// single-file store suited to running one hashserv process.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"sync"

	"github.com/google/hashserv/monitoring"
	"github.com/google/hashserv/storage"
	"github.com/google/hashserv/storage/coresql"
	"github.com/mattn/go-sqlite3"
	"k8s.io/klog/v2"
)

// StorageProviderName is the name under which this backend is registered.
const StorageProviderName = "sqlite"

var (
	sqlitePath = flag.String("sqlite_path", "hashserv.db", "Path of the SQLite database file")

	sqliteMu              sync.Mutex
	sqliteStorageInstance *sqliteProvider
)

func init() {
	if err := storage.RegisterProvider(StorageProviderName, newSQLiteStorageProvider); err != nil {
		klog.Fatalf("Failed to register storage provider sqlite: %v", err)
	}
}

// Dialect is the coresql.Dialect for SQLite.
type Dialect struct {
	coresql.BaseDialect
}

// NewDialect returns the SQLite dialect.
func NewDialect() Dialect {
	return Dialect{coresql.BaseDialect{DBName: "sqlite"}}
}

// IsDuplicateErr reports unique and primary key violations.
func (Dialect) IsDuplicateErr(err error) bool {
	var sErr sqlite3.Error
	if !errors.As(err, &sErr) {
		return false
	}
	return sErr.ExtendedCode == sqlite3.ErrConstraintUnique || sErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// IsRetryableErr reports lock contention on the database file.
func (Dialect) IsRetryableErr(err error) bool {
	var sErr sqlite3.Error
	if !errors.As(err, &sErr) {
		return false
	}
	return sErr.Code == sqlite3.ErrBusy || sErr.Code == sqlite3.ErrLocked
}

// OpenDB opens the SQLite database at path and creates the ledger schema.
// SQLite allows a single writer, so the pool holds one connection.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		klog.Warningf("Could not open SQLite database %q: %v", path, err)
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := coresql.CreateSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// NewLedgerStorage opens path and returns a LedgerStorage using it.
func NewLedgerStorage(ctx context.Context, path string, mf monitoring.MetricFactory) (*coresql.LedgerStorage, *sql.DB, error) {
	db, err := OpenDB(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return coresql.NewLedgerStorage(db, NewDialect(), mf), db, nil
}

type sqliteProvider struct {
	db *sql.DB
	ls *coresql.LedgerStorage
}

func newSQLiteStorageProvider(mf monitoring.MetricFactory) (storage.Provider, error) {
	sqliteMu.Lock()
	defer sqliteMu.Unlock()
	if sqliteStorageInstance == nil {
		ls, db, err := NewLedgerStorage(context.Background(), *sqlitePath, mf)
		if err != nil {
			return nil, err
		}
		sqliteStorageInstance = &sqliteProvider{db: db, ls: ls}
	}
	return sqliteStorageInstance, nil
}

func (s *sqliteProvider) LedgerStorage() storage.LedgerStorage {
	return s.ls
}

func (s *sqliteProvider) Close() error {
	return s.db.Close()
}
