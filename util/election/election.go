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

// Package election provides master election, so that of several hashserv
// replicas sharing a ledger only one seals blocks.
//
// An instance is one participant, represented by an Election. A resource is
// the thing guarded by the election, such as the sealing of a ledger. Two
// instances may briefly both believe they own a resource while mastership
// changes hands, so work done as master must still tolerate losing a race
// (see storage.ErrConflict).
package election

import "context"

// Election controls an instance's participation in master election.
// Implementations are not safe for concurrent use.
type Election interface {
	// Await blocks until the instance is the master. It returns immediately
	// if it already is, and an error if campaigning fails or ctx is done.
	Await(ctx context.Context) error
	// WithMastership returns a context which is canceled when the instance
	// stops being the master or ctx is done. If the instance is not the
	// master the returned context is already canceled.
	WithMastership(ctx context.Context) (context.Context, error)
	// Resign releases mastership. The instance may campaign again with Await.
	Resign(ctx context.Context) error
	// Close resigns and stops participating for good.
	Close(ctx context.Context) error
}

// Factory creates an Election for the resource with the given ID.
type Factory interface {
	NewElection(ctx context.Context, resourceID string) (Election, error)
}

// NoopElection is always the master. It suits a single replica.
type NoopElection struct{}

// Await returns ctx.Err().
func (NoopElection) Await(ctx context.Context) error { return ctx.Err() }

// WithMastership returns a context canceled only with ctx.
func (NoopElection) WithMastership(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

// Resign does nothing.
func (NoopElection) Resign(context.Context) error { return nil }

// Close does nothing.
func (NoopElection) Close(context.Context) error { return nil }

// NoopFactory creates NoopElections.
type NoopFactory struct{}

// NewElection returns a NoopElection.
func (NoopFactory) NewElection(context.Context, string) (Election, error) {
	return NoopElection{}, nil
}
