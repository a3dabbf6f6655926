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

package postgresql

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/hashserv/storage"
	"github.com/google/hashserv/storage/testdb"
	"github.com/google/hashserv/storage/testharness"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestLedgerStorage(t *testing.T) {
	testdb.SkipIfUnavailable(t, testdb.PostgreSQL)
	testharness.TestLedgerStorage(t, func(t *testing.T) storage.LedgerStorage {
		return NewLedgerStorage(testdb.New(context.Background(), t, testdb.PostgreSQL), nil)
	})
}

func TestDialectErrors(t *testing.T) {
	d := NewDialect()
	for _, tc := range []struct {
		err           error
		dup, retrying bool
	}{
		{err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, dup: true},
		{err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation}), dup: true},
		{err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, retrying: true},
		{err: &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, retrying: true},
		{err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}},
		{err: fmt.Errorf("plain")},
	} {
		if got := d.IsDuplicateErr(tc.err); got != tc.dup {
			t.Errorf("IsDuplicateErr(%v) = %v, want %v", tc.err, got, tc.dup)
		}
		if got := d.IsRetryableErr(tc.err); got != tc.retrying {
			t.Errorf("IsRetryableErr(%v) = %v, want %v", tc.err, got, tc.retrying)
		}
	}
}

func TestWithTLS(t *testing.T) {
	ca := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(ca, []byte("not checked"), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		uri        string
		verifyFull bool
		wantMode   string
	}{
		{uri: "postgresql://localhost/db", wantMode: "verify-ca"},
		{uri: "postgresql://localhost/db?sslmode=require", wantMode: "require"},
		{uri: "postgresql://localhost/db?sslmode=require", verifyFull: true, wantMode: "verify-full"},
	} {
		got, err := withTLS(tc.uri, ca, tc.verifyFull)
		if err != nil {
			t.Fatalf("withTLS(%q): %v", tc.uri, err)
		}
		u, err := url.Parse(got)
		if err != nil {
			t.Fatalf("url.Parse(%q): %v", got, err)
		}
		if mode := u.Query().Get("sslmode"); mode != tc.wantMode {
			t.Errorf("withTLS(%q, %v) sslmode = %q, want %q", tc.uri, tc.verifyFull, mode, tc.wantMode)
		}
		if root := u.Query().Get("sslrootcert"); root != ca {
			t.Errorf("withTLS(%q) sslrootcert = %q, want %q", tc.uri, root, ca)
		}
	}
	if _, err := withTLS("postgresql://localhost/db", filepath.Join(t.TempDir(), "missing.pem"), false); err == nil {
		t.Error("withTLS(missing CA) succeeded, want error")
	}
}
