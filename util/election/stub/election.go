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

// Package stub contains an Election whose mastership is set by tests.
package stub

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Await after Close.
var ErrClosed = errors.New("stub: election closed")

// Election is an election.Election whose outcome is decided by Update.
type Election struct {
	mu       sync.Mutex
	cond     *sync.Cond
	isMaster bool
	revision int
	awaits   int
	closed   bool
}

// NewElection returns an Election which starts out as master if isMaster.
func NewElection(isMaster bool) *Election {
	e := &Election{isMaster: isMaster}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Update grants or revokes mastership. Revoking cancels the contexts
// returned by WithMastership.
func (e *Election) Update(isMaster bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.update(isMaster)
}

// update must be called with mu held.
func (e *Election) update(isMaster bool) {
	e.isMaster = isMaster
	e.revision++
	e.cond.Broadcast()
}

// broadcastOnDone wakes up waiters on e.cond once ctx is done.
func (e *Election) broadcastOnDone(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.cond.Broadcast()
	})
}

// Await blocks until Update(true) has been called.
func (e *Election) Await(ctx context.Context) error {
	stop := e.broadcastOnDone(ctx)
	defer stop()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.awaits++
	for !e.isMaster {
		if e.closed {
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e.cond.Wait()
	}
	return nil
}

// WithMastership returns a context canceled by the next Update, Resign or
// Close, or when ctx is done.
func (e *Election) WithMastership(ctx context.Context) (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cctx, cancel := context.WithCancel(ctx)
	if !e.isMaster {
		cancel()
		return cctx, nil
	}
	rev := e.revision
	stop := e.broadcastOnDone(cctx)
	go func() {
		defer cancel()
		defer stop()
		e.mu.Lock()
		defer e.mu.Unlock()
		for e.isMaster && e.revision == rev && cctx.Err() == nil {
			e.cond.Wait()
		}
	}()
	return cctx, nil
}

// Resign revokes mastership.
func (e *Election) Resign(context.Context) error {
	e.Update(false)
	return nil
}

// Close revokes mastership for good.
func (e *Election) Close(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.update(false)
	return nil
}

// Awaits returns how many times Await has been called.
func (e *Election) Awaits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.awaits
}

// Closed reports whether Close has been called.
func (e *Election) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
