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

package mysql

import (
	"context"
	"flag"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/google/hashserv/storage"
	"github.com/google/hashserv/storage/testdb"
	"github.com/google/hashserv/storage/testharness"
	"github.com/google/hashserv/util/flagsaver"
)

func TestLedgerStorage(t *testing.T) {
	testdb.SkipIfUnavailable(t, testdb.MySQL)
	testharness.TestLedgerStorage(t, func(t *testing.T) storage.LedgerStorage {
		return NewLedgerStorage(testdb.New(context.Background(), t, testdb.MySQL), nil)
	})
}

func TestMySQLStorageProviderErrorPersistence(t *testing.T) {
	defer flagsaver.Save().MustRestore()
	if err := flag.Set("mysql_uri", "&bogus*:::?"); err != nil {
		t.Errorf("Failed to set flag: %v", err)
	}

	// First call: This should fail due to the Database URL being garbage.
	_, err1 := storage.NewProvider(StorageProviderName, nil)
	if err1 == nil {
		t.Fatalf("Expected 'storage.NewProvider' to fail")
	}

	// Second call: This should fail with the same error.
	_, err2 := storage.NewProvider(StorageProviderName, nil)
	if err2 != err1 {
		t.Fatalf("Expected second call to 'storage.NewProvider' to fail with %q, instead got: %q", err1, err2)
	}
}

func TestDialectErrors(t *testing.T) {
	d := NewDialect()
	for _, tc := range []struct {
		err           error
		dup, retrying bool
	}{
		{err: &mysql.MySQLError{Number: errNumDuplicate}, dup: true},
		{err: fmt.Errorf("insert: %w", &mysql.MySQLError{Number: errNumDuplicate}), dup: true},
		{err: &mysql.MySQLError{Number: errNumDeadlock}, retrying: true},
		{err: &mysql.MySQLError{Number: errNumLockWaitTimeout}, retrying: true},
		{err: &mysql.MySQLError{Number: 1146}},
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
