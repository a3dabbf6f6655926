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

package merkle

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ParallelThreshold is the narrowest level which is hashed concurrently when a
// tree is built WithParallelism.
const ParallelThreshold = 1024

// pairAt returns the pair starting at index i of level. The last digest of an
// odd-length level is paired with itself.
func pairAt(level []Digest, i int) (Digest, Digest) {
	if i+1 < len(level) {
		return level[i], level[i+1]
	}
	return level[i], level[i]
}

// reduceLevel returns the level above level. The input is not modified.
func reduceLevel(h Hasher, level []Digest, workers int) []Digest {
	next := make([]Digest, (len(level)+1)/2)
	hashRange := func(begin, end int) {
		for j := begin; j < end; j++ {
			l, r := pairAt(level, 2*j)
			next[j] = HashChildren(h, l, r)
		}
	}
	if workers <= 1 || len(level) < ParallelThreshold {
		hashRange(0, len(next))
		return next
	}

	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (len(next) + workers - 1) / workers
	for begin := 0; begin < len(next); begin += chunk {
		end := min(begin+chunk, len(next))
		g.Go(func() error {
			hashRange(begin, end)
			return nil
		})
	}
	// Each goroutine writes a disjoint range of next and never fails.
	_ = g.Wait()
	return next
}

// findBranch returns the first pair of level which contains target.
func findBranch(h Hasher, level []Digest, target Digest) (Branch, error) {
	for i := 0; i < len(level); i += 2 {
		l, r := pairAt(level, i)
		if l == target || r == target {
			return NewBranch(h, l, r), nil
		}
	}
	return Branch{}, fmt.Errorf("%w: %s not in level of width %d", ErrTargetNotFound, target, len(level))
}
