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

package election

import (
	"context"
	"errors"
	"testing"
)

func TestNoopElection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e, err := NoopFactory{}.NewElection(ctx, "sealer")
	if err != nil {
		t.Fatalf("NewElection(): %v", err)
	}
	if err := e.Await(ctx); err != nil {
		t.Fatalf("Await(): %v", err)
	}
	mctx, err := e.WithMastership(ctx)
	if err != nil {
		t.Fatalf("WithMastership(): %v", err)
	}
	if err := mctx.Err(); err != nil {
		t.Fatalf("mastership context: %v", err)
	}
	cancel()
	if err := mctx.Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("mastership context after cancel: %v, want %v", err, context.Canceled)
	}
	if err := e.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Await() after cancel: %v, want %v", err, context.Canceled)
	}
	if err := e.Close(context.Background()); err != nil {
		t.Errorf("Close(): %v", err)
	}
}
