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
	"testing"

	"github.com/google/hashserv/storage"
	"github.com/google/hashserv/storage/testharness"
)

func TestLedgerStorage(t *testing.T) {
	testharness.TestLedgerStorage(t, func(*testing.T) storage.LedgerStorage {
		return NewLedgerStorage()
	})
}

func TestMemoryStorageProvider(t *testing.T) {
	sp, err := storage.NewProvider(StorageProviderName, nil)
	if err != nil {
		t.Fatalf("NewProvider(): %v", err)
	}
	defer sp.Close()

	ls := sp.LedgerStorage()
	if ls == nil {
		t.Fatal("Got a nil ledger storage interface.")
	}
	if err := ls.CheckDatabaseAccessible(context.Background()); err != nil {
		t.Errorf("CheckDatabaseAccessible(): %v", err)
	}
	if sp.LedgerStorage() != ls {
		t.Error("LedgerStorage() returned a different instance on the second call")
	}
}
