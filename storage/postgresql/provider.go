// Copyright 2024 Google LLC. All Rights Reserved.
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

// Package postgresql provides a PostgreSQL-based storage.LedgerStorage.
package postgresql

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/url"
	"os"
	"sync"

	"github.com/google/hashserv/monitoring"
	"github.com/google/hashserv/storage"
	"github.com/google/hashserv/storage/coresql"
	"k8s.io/klog/v2"

	_ "github.com/jackc/pgx/v5/stdlib" // Register the pgx database/sql driver.
)

// StorageProviderName is the name under which this backend is registered.
const StorageProviderName = "postgresql"

var (
	postgreSQLURI        = flag.String("postgresql_uri", "postgresql:///defaultdb?host=localhost&user=test", "Connection URI for PostgreSQL database")
	postgresqlTLSCA      = flag.String("postgresql_tls_ca", "", "Path to the CA certificate file for PostgreSQL TLS connection")
	postgresqlVerifyFull = flag.Bool("postgresql_verify_full", false, "Enable full TLS verification for PostgreSQL (sslmode=verify-full). If false, only sslmode=verify-ca is used.")

	postgresqlMu              sync.Mutex
	postgresqlErr             error
	postgresqlDB              *sql.DB
	postgresqlStorageInstance *postgresqlProvider
)

func init() {
	if err := storage.RegisterProvider(StorageProviderName, newPostgreSQLStorageProvider); err != nil {
		klog.Fatalf("Failed to register storage provider postgresql: %v", err)
	}
}

// OpenDB opens a PostgreSQL database through pgx and checks it can be
// reached.
func OpenDB(uri string) (*sql.DB, error) {
	db, err := sql.Open("pgx", uri)
	if err != nil {
		klog.Warningf("Could not open PostgreSQL database, check config: %s", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		klog.Warningf("Could not reach PostgreSQL database: %s", err)
		return nil, err
	}
	return db, nil
}

// NewLedgerStorage returns a LedgerStorage using db.
func NewLedgerStorage(db *sql.DB, mf monitoring.MetricFactory) *coresql.LedgerStorage {
	return coresql.NewLedgerStorage(db, NewDialect(), mf)
}

type postgresqlProvider struct {
	db *sql.DB
	ls *coresql.LedgerStorage
}

func newPostgreSQLStorageProvider(mf monitoring.MetricFactory) (storage.Provider, error) {
	postgresqlMu.Lock()
	defer postgresqlMu.Unlock()
	if postgresqlStorageInstance == nil {
		db, err := getPostgreSQLDatabaseLocked()
		if err != nil {
			return nil, err
		}
		postgresqlStorageInstance = &postgresqlProvider{db: db, ls: NewLedgerStorage(db, mf)}
	}
	return postgresqlStorageInstance, nil
}

// withTLS adds the sslrootcert and sslmode parameters to uri.
func withTLS(uri, caFile string, verifyFull bool) (string, error) {
	if _, err := os.Stat(caFile); err != nil {
		return "", fmt.Errorf("postgresql CA file error: %w", err)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid postgresql URI %q: %w", uri, err)
	}
	q := u.Query()
	q.Set("sslrootcert", caFile)
	if verifyFull {
		q.Set("sslmode", "verify-full")
	} else if q.Get("sslmode") == "" {
		q.Set("sslmode", "verify-ca")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// getPostgreSQLDatabaseLocked returns an instance of PostgreSQL database
// holding the ledger schema, or creates one. Requires postgresqlMu to be
// locked.
func getPostgreSQLDatabaseLocked() (*sql.DB, error) {
	if postgresqlDB != nil || postgresqlErr != nil {
		return postgresqlDB, postgresqlErr
	}
	uri := *postgreSQLURI
	if *postgresqlTLSCA != "" {
		var err error
		if uri, err = withTLS(uri, *postgresqlTLSCA, *postgresqlVerifyFull); err != nil {
			postgresqlErr = err
			return nil, err
		}
	}
	db, err := OpenDB(uri)
	if err != nil {
		postgresqlErr = err
		return nil, err
	}
	if err := coresql.CreateSchema(context.Background(), db); err != nil {
		db.Close()
		postgresqlErr = err
		return nil, err
	}
	postgresqlDB, postgresqlErr = db, nil
	return db, nil
}

func (s *postgresqlProvider) LedgerStorage() storage.LedgerStorage {
	return s.ls
}

func (s *postgresqlProvider) Close() error {
	return s.db.Close()
}
