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

package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	mtestonly "github.com/google/hashserv/merkle/testonly"
	"github.com/google/hashserv/storage"
	"github.com/google/hashserv/storage/memory"
	"github.com/google/hashserv/util/clock"
	"github.com/google/hashserv/util/election/stub"
)

func TestSealerInterval(t *testing.T) {
	ctx := context.Background()
	l, ts := newTestLedger(t, memory.NewLedgerStorage(), nil)
	s := NewSealer(l, SealerOptions{Interval: time.Minute, TimeSource: ts})
	submitAll(ctx, t, l, mtestonly.Digests(toy, 3))

	if b, err := s.RunOnce(ctx); err != nil || b != nil {
		t.Fatalf("RunOnce() before interval = %v, %v; want nil, nil", b, err)
	}
	ts.Advance(time.Minute)
	b, err := s.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce(): %v", err)
	}
	if b == nil || b.Number != 0 || b.Size != 3 {
		t.Fatalf("RunOnce() = %+v, want block 0 with 3 leaves", b)
	}

	// The interval restarts at the seal.
	submitAll(ctx, t, l, mtestonly.Digests(toy, 4)[3:])
	ts.Advance(30 * time.Second)
	if b, err := s.RunOnce(ctx); err != nil || b != nil {
		t.Errorf("RunOnce() mid interval = %v, %v; want nil, nil", b, err)
	}
}

func TestSealerIntervalEmptyBlock(t *testing.T) {
	ctx := context.Background()
	l, ts := newTestLedger(t, memory.NewLedgerStorage(), nil)
	s := NewSealer(l, SealerOptions{Interval: time.Minute, TimeSource: ts})

	ts.Advance(time.Hour)
	if b, err := s.RunOnce(ctx); err != nil || b != nil {
		t.Errorf("RunOnce() on empty block = %v, %v; want nil, nil", b, err)
	}
	if n, err := l.OpenBlock(ctx); err != nil || n != 0 {
		t.Errorf("OpenBlock() = %d, %v; want 0", n, err)
	}
}

func TestSealerMaxBlockSize(t *testing.T) {
	ctx := context.Background()
	l, ts := newTestLedger(t, memory.NewLedgerStorage(), nil)
	s := NewSealer(l, SealerOptions{MaxBlockSize: 2, TimeSource: ts})
	ds := mtestonly.Digests(toy, 2)

	submitAll(ctx, t, l, ds[:1])
	if b, err := s.RunOnce(ctx); err != nil || b != nil {
		t.Fatalf("RunOnce() below size = %v, %v; want nil, nil", b, err)
	}
	submitAll(ctx, t, l, ds[1:])
	b, err := s.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce(): %v", err)
	}
	if b == nil || b.Size != 2 {
		t.Errorf("RunOnce() = %+v, want a block of 2 leaves", b)
	}
}

func TestSealerConflictIsNotAnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()
	ds := mtestonly.Digests(toy, 2)

	ms := storage.NewMockLedgerStorage(ctrl)
	ms.EXPECT().OpenBlock(gomock.Any()).Return(int64(0), nil)
	ms.EXPECT().Leaves(gomock.Any(), int64(0)).Return(ds, nil)
	ms.EXPECT().Seal(gomock.Any(), int64(0), int64(2), gomock.Any(), gomock.Any()).Return(storage.ErrConflict)

	l, ts := newTestLedger(t, ms, nil)
	s := NewSealer(l, SealerOptions{Interval: time.Second, TimeSource: ts})
	ts.Advance(time.Second)
	if b, err := s.RunOnce(ctx); err != nil || b != nil {
		t.Errorf("RunOnce() = %v, %v; want nil, nil", b, err)
	}
}

func TestSealerRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l, ts := newTestLedger(t, memory.NewLedgerStorage(), nil)
	s := NewSealer(l, SealerOptions{Interval: 5 * time.Second, PollInterval: time.Second, TimeSource: ts})
	submitAll(ctx, t, l, mtestonly.Digests(toy, 3))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(10 * time.Second)
	for {
		n, err := l.OpenBlock(ctx)
		if err != nil {
			t.Fatalf("OpenBlock(): %v", err)
		}
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("block was not sealed by Run")
		}
		ts.Advance(time.Second)
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// advanceUntil advances ts by a second at a time until cond holds.
func advanceUntil(t *testing.T, ts *clock.FakeTimeSource, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		ts.Advance(time.Second)
		time.Sleep(time.Millisecond)
	}
}

func TestSealerRunAsMaster(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l, ts := newTestLedger(t, memory.NewLedgerStorage(), nil)
	s := NewSealer(l, SealerOptions{Interval: 5 * time.Second, PollInterval: time.Second, TimeSource: ts})
	submitAll(ctx, t, l, mtestonly.Digests(toy, 3))
	openBlock := func() int64 {
		n, err := l.OpenBlock(ctx)
		if err != nil {
			t.Fatalf("OpenBlock(): %v", err)
		}
		return n
	}

	e := stub.NewElection(false)
	done := make(chan struct{})
	go func() {
		s.RunAsMaster(ctx, e)
		close(done)
	}()

	advanceUntil(t, ts, "first Await", func() bool { return e.Awaits() == 1 })
	ts.Advance(10 * time.Second)
	time.Sleep(10 * time.Millisecond)
	if got := openBlock(); got != 0 {
		t.Fatalf("OpenBlock() before mastership = %d, want 0", got)
	}
	if got := sealerIsMaster.Value(); got != 0 {
		t.Errorf("sealerIsMaster before mastership = %v, want 0", got)
	}

	e.Update(true)
	advanceUntil(t, ts, "seal as master", func() bool { return openBlock() == 1 })
	if got := sealerIsMaster.Value(); got != 1 {
		t.Errorf("sealerIsMaster as master = %v, want 1", got)
	}

	e.Update(false)
	advanceUntil(t, ts, "Await after losing mastership", func() bool { return e.Awaits() == 2 })
	if got := sealerIsMaster.Value(); got != 0 {
		t.Errorf("sealerIsMaster after losing mastership = %v, want 0", got)
	}
	submitAll(ctx, t, l, mtestonly.Digests(toy, 4)[3:])
	ts.Advance(10 * time.Second)
	time.Sleep(10 * time.Millisecond)
	if got := openBlock(); got != 1 {
		t.Fatalf("OpenBlock() after losing mastership = %d, want 1", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("RunAsMaster did not return after cancel")
	}
	if !e.Closed() {
		t.Error("election not closed after RunAsMaster returned")
	}
}
