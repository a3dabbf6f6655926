// Copyright 2022 Google LLC. All Rights Reserved.
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

// Package crdb provides a CockroachDB-based storage.LedgerStorage.
package crdb

import (
	"context"
	"database/sql"
	"flag"
	"sync"

	"github.com/google/hashserv/monitoring"
	"github.com/google/hashserv/storage"
	"github.com/google/hashserv/storage/coresql"
	"k8s.io/klog/v2"

	_ "github.com/lib/pq" // Register the Postgres driver.
)

// StorageProviderName is the name of the storage provider.
const StorageProviderName = "crdb"

var (
	crdbURI  = flag.String("crdb_uri", "postgresql://root@localhost:26257/defaultdb?sslmode=disable", "Connection URI for CockroachDB database")
	maxConns = flag.Int("crdb_max_conns", 0, "Maximum connections to the database")
	maxIdle  = flag.Int("crdb_max_idle_conns", -1, "Maximum idle database connections in the connection pool")

	crdbErr             error
	crdbHandle          *sql.DB
	crdbStorageInstance *crdbProvider
	dbConnMu            sync.Mutex
)

func init() {
	if err := storage.RegisterProvider(StorageProviderName, newCRDBStorageProvider); err != nil {
		klog.Fatalf("Failed to register storage provider crdb: %v", err)
	}
}

// OpenDB opens a CockroachDB database and checks it can be reached.
func OpenDB(dbURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		klog.Warningf("Failed to open CRDB database: %v", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		klog.Warningf("failed verifying database connection: %v", err)
		return nil, err
	}
	return db, nil
}

// NewLedgerStorage returns a LedgerStorage using db.
func NewLedgerStorage(db *sql.DB, mf monitoring.MetricFactory) *coresql.LedgerStorage {
	return coresql.NewLedgerStorage(db, NewDialect(), mf)
}

type crdbProvider struct {
	db *sql.DB
	ls *coresql.LedgerStorage
}

func newCRDBStorageProvider(mf monitoring.MetricFactory) (storage.Provider, error) {
	dbConnMu.Lock()
	defer dbConnMu.Unlock()
	if crdbStorageInstance == nil {
		db, err := getCRDBDatabaseLocked()
		if err != nil {
			return nil, err
		}
		crdbStorageInstance = &crdbProvider{db: db, ls: NewLedgerStorage(db, mf)}
	}
	return crdbStorageInstance, nil
}

// getCRDBDatabaseLocked lazily opens the database and creates the ledger
// schema. Requires dbConnMu to be held.
func getCRDBDatabaseLocked() (*sql.DB, error) {
	if crdbHandle != nil || crdbErr != nil {
		return crdbHandle, crdbErr
	}
	db, err := OpenDB(*crdbURI)
	if err != nil {
		crdbErr = err
		return nil, err
	}
	if *maxConns > 0 {
		db.SetMaxOpenConns(*maxConns)
	}
	if *maxIdle >= 0 {
		db.SetMaxIdleConns(*maxIdle)
	}
	if err := coresql.CreateSchema(context.Background(), db); err != nil {
		db.Close()
		crdbErr = err
		return nil, err
	}
	crdbHandle, crdbErr = db, nil
	return db, nil
}

func (s *crdbProvider) LedgerStorage() storage.LedgerStorage {
	return s.ls
}

func (s *crdbProvider) Close() error {
	return s.db.Close()
}
