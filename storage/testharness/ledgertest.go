// Copyright 2019 Google LLC. All Rights Reserved.
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

// Package testharness verifies that LedgerStorage implementations behave
// correctly.
package testharness

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/hashserv/merkle"
	"github.com/google/hashserv/merkle/testonly"
	"github.com/google/hashserv/storage"
)

// NewStorageFunc returns an empty LedgerStorage for a single check.
type NewStorageFunc func(t *testing.T) storage.LedgerStorage

var (
	submitTime = time.Unix(1600000000, 123456789).UTC()
	sealTime   = submitTime.Add(time.Minute)
	fakeRoot   = merkle.Digest("00112233445566778899aabbccddeeff")
)

// TestLedgerStorage runs every check against fresh storage from newStorage.
func TestLedgerStorage(t *testing.T, newStorage NewStorageFunc) {
	ctx := context.Background()
	for _, f := range []func(context.Context, *testing.T, storage.LedgerStorage){
		CheckDatabaseAccessible,
		EmptyLedger,
		SubmitAssignsIndices,
		SubmitDuplicate,
		SealOpensNextBlock,
		SealConflicts,
		ConcurrentSubmit,
	} {
		t.Run(functionName(f), func(t *testing.T) { f(ctx, t, newStorage(t)) })
	}
}

func functionName(i interface{}) string {
	pc := reflect.ValueOf(i).Pointer()
	nameFull := runtime.FuncForPC(pc).Name() // main.foo
	nameEnd := filepath.Ext(nameFull)        // .foo
	return strings.TrimPrefix(nameEnd, ".")  // foo
}

func submitAll(ctx context.Context, t *testing.T, s storage.LedgerStorage, ds []merkle.Digest) []storage.Leaf {
	t.Helper()
	leaves := make([]storage.Leaf, 0, len(ds))
	for _, d := range ds {
		l, added, err := s.Submit(ctx, d, submitTime)
		if err != nil {
			t.Fatalf("Submit(%s): %v", d, err)
		}
		if !added {
			t.Fatalf("Submit(%s) reported a duplicate", d)
		}
		leaves = append(leaves, l)
	}
	return leaves
}

func checkOpenBlock(ctx context.Context, t *testing.T, s storage.LedgerStorage, want int64) {
	t.Helper()
	got, err := s.OpenBlock(ctx)
	if err != nil {
		t.Fatalf("OpenBlock(): %v", err)
	}
	if got != want {
		t.Errorf("OpenBlock() = %d, want %d", got, want)
	}
}

// CheckDatabaseAccessible checks the backing store can be reached.
func CheckDatabaseAccessible(ctx context.Context, t *testing.T, s storage.LedgerStorage) {
	if err := s.CheckDatabaseAccessible(ctx); err != nil {
		t.Errorf("CheckDatabaseAccessible() = %v, want = nil", err)
	}
}

// EmptyLedger checks a new ledger has an empty open block 0 and nothing else.
func EmptyLedger(ctx context.Context, t *testing.T, s storage.LedgerStorage) {
	checkOpenBlock(ctx, t, s, 0)

	b, err := s.Block(ctx, 0)
	if err != nil {
		t.Fatalf("Block(0): %v", err)
	}
	if diff := cmp.Diff(&storage.Block{Number: 0}, b); diff != "" {
		t.Errorf("Block(0) diff (-want +got):\n%s", diff)
	}
	leaves, err := s.Leaves(ctx, 0)
	if err != nil {
		t.Fatalf("Leaves(0): %v", err)
	}
	if len(leaves) != 0 {
		t.Errorf("Leaves(0) = %v, want none", leaves)
	}
	for _, n := range []int64{-1, 1, 5} {
		if _, err := s.Block(ctx, n); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Block(%d) = %v, want ErrNotFound", n, err)
		}
		if _, err := s.Leaves(ctx, n); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Leaves(%d) = %v, want ErrNotFound", n, err)
		}
	}
	if _, err := s.Lookup(ctx, fakeRoot); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Lookup() = %v, want ErrNotFound", err)
	}
}

// SubmitAssignsIndices checks leaves land in the open block in order.
func SubmitAssignsIndices(ctx context.Context, t *testing.T, s storage.LedgerStorage) {
	ds := testonly.Digests(testonly.ToyHasher{}, 3)
	leaves := submitAll(ctx, t, s, ds)
	for i, l := range leaves {
		want := storage.Leaf{Digest: ds[i], Block: 0, Index: int64(i), SubmittedAt: submitTime}
		if diff := cmp.Diff(want, l); diff != "" {
			t.Errorf("Submit(%d) diff (-want +got):\n%s", i, diff)
		}
		got, err := s.Lookup(ctx, ds[i])
		if err != nil {
			t.Fatalf("Lookup(%s): %v", ds[i], err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Lookup(%d) diff (-want +got):\n%s", i, diff)
		}
	}
	got, err := s.Leaves(ctx, 0)
	if err != nil {
		t.Fatalf("Leaves(0): %v", err)
	}
	if diff := cmp.Diff(ds, got); diff != "" {
		t.Errorf("Leaves(0) diff (-want +got):\n%s", diff)
	}
	b, err := s.Block(ctx, 0)
	if err != nil {
		t.Fatalf("Block(0): %v", err)
	}
	if b.Size != 3 || b.Sealed {
		t.Errorf("Block(0) = %+v, want open with 3 leaves", b)
	}
}

// SubmitDuplicate checks a resubmitted digest returns its original leaf.
func SubmitDuplicate(ctx context.Context, t *testing.T, s storage.LedgerStorage) {
	ds := testonly.Digests(testonly.ToyHasher{}, 2)
	leaves := submitAll(ctx, t, s, ds)

	got, added, err := s.Submit(ctx, ds[1], sealTime)
	if err != nil {
		t.Fatalf("Submit(dup): %v", err)
	}
	if added {
		t.Error("Submit(dup) added = true, want false")
	}
	if diff := cmp.Diff(leaves[1], got); diff != "" {
		t.Errorf("Submit(dup) diff (-want +got):\n%s", diff)
	}
	if all, err := s.Leaves(ctx, 0); err != nil || len(all) != 2 {
		t.Errorf("Leaves(0) = %v, %v, want 2 leaves", all, err)
	}
}

// SealOpensNextBlock checks sealing records the root and moves submissions on.
func SealOpensNextBlock(ctx context.Context, t *testing.T, s storage.LedgerStorage) {
	ds := testonly.Digests(testonly.ToyHasher{}, 4)
	submitAll(ctx, t, s, ds[:3])
	if err := s.Seal(ctx, 0, 3, fakeRoot, sealTime); err != nil {
		t.Fatalf("Seal(0): %v", err)
	}
	checkOpenBlock(ctx, t, s, 1)

	b, err := s.Block(ctx, 0)
	if err != nil {
		t.Fatalf("Block(0): %v", err)
	}
	want := &storage.Block{Number: 0, Root: fakeRoot, Size: 3, SealedAt: sealTime, Sealed: true}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("Block(0) diff (-want +got):\n%s", diff)
	}

	l := submitAll(ctx, t, s, ds[3:])[0]
	if l.Block != 1 || l.Index != 0 {
		t.Errorf("Submit() after seal = block %d index %d, want block 1 index 0", l.Block, l.Index)
	}
	old, added, err := s.Submit(ctx, ds[0], sealTime)
	if err != nil || added || old.Block != 0 {
		t.Errorf("Submit(sealed dup) = %+v, %v, %v, want block 0 duplicate", old, added, err)
	}
	if got, err := s.Leaves(ctx, 0); err != nil || len(got) != 3 {
		t.Errorf("Leaves(0) = %v, %v, want 3 leaves", got, err)
	}
	if got, err := s.Leaves(ctx, 1); err != nil || len(got) != 1 {
		t.Errorf("Leaves(1) = %v, %v, want 1 leaf", got, err)
	}
}

// SealConflicts checks seals of stale or changed blocks are rejected.
func SealConflicts(ctx context.Context, t *testing.T, s storage.LedgerStorage) {
	submitAll(ctx, t, s, testonly.Digests(testonly.ToyHasher{}, 2))
	for _, tc := range []struct {
		desc  string
		block int64
		size  int64
	}{
		{desc: "future block", block: 1, size: 0},
		{desc: "wrong size", block: 0, size: 1},
		{desc: "negative block", block: -1, size: 0},
	} {
		if err := s.Seal(ctx, tc.block, tc.size, fakeRoot, sealTime); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("%s: Seal() = %v, want ErrConflict", tc.desc, err)
		}
	}
	if err := s.Seal(ctx, 0, 2, fakeRoot, sealTime); err != nil {
		t.Fatalf("Seal(0): %v", err)
	}
	if err := s.Seal(ctx, 0, 2, fakeRoot, sealTime); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("second Seal(0) = %v, want ErrConflict", err)
	}
	checkOpenBlock(ctx, t, s, 1)
}

// ConcurrentSubmit checks concurrent submissions receive distinct indices.
func ConcurrentSubmit(ctx context.Context, t *testing.T, s storage.LedgerStorage) {
	const n = 16
	ds := testonly.Digests(testonly.ToyHasher{}, n)
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, d := range ds {
		wg.Add(1)
		go func(d merkle.Digest) {
			defer wg.Done()
			if _, _, err := s.Submit(ctx, d, submitTime); err != nil {
				errs <- fmt.Errorf("Submit(%s): %v", d, err)
			}
		}(d)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	seen := make(map[int64]bool)
	for _, d := range ds {
		l, err := s.Lookup(ctx, d)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", d, err)
		}
		if seen[l.Index] || l.Index < 0 || l.Index >= n {
			t.Errorf("Lookup(%s).Index = %d, duplicate or out of range", d, l.Index)
		}
		seen[l.Index] = true
	}
}
