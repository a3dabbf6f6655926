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

import "fmt"

// TreeOption configures a Tree.
type TreeOption func(*treeOptions)

type treeOptions struct {
	workers int
}

// WithParallelism hashes the pairs of wide levels on up to workers goroutines.
// The result does not depend on the number of workers.
func WithParallelism(workers int) TreeOption {
	return func(o *treeOptions) {
		o.workers = workers
	}
}

// Builder accumulates the leaves of a tree in order.
type Builder struct {
	hasher Hasher
	opts   []TreeOption
	leaves []Digest
}

// NewBuilder returns an empty Builder whose leaves and nodes are hashed with h.
func NewBuilder(h Hasher, opts ...TreeOption) *Builder {
	return &Builder{hasher: h, opts: opts}
}

// AddContent appends the digest of content as the next leaf.
func (b *Builder) AddContent(content []byte) {
	b.leaves = append(b.leaves, b.hasher.Digest(content))
}

// AddDigest appends a precomputed digest as the next leaf.
func (b *Builder) AddDigest(d Digest) {
	b.leaves = append(b.leaves, d)
}

// Len returns the number of leaves added so far.
func (b *Builder) Len() int {
	return len(b.leaves)
}

// Seal returns a read-only Tree over the leaves added so far. Leaves added to
// b afterwards are not seen by the returned Tree.
func (b *Builder) Seal() *Tree {
	return NewTree(b.hasher, b.leaves, b.opts...)
}

// Tree is an immutable Merkle tree. It is safe for concurrent use.
type Tree struct {
	hasher  Hasher
	leaves  []Digest
	workers int
}

// NewTree returns a Tree with a copy of leaves, in order.
func NewTree(h Hasher, leaves []Digest, opts ...TreeOption) *Tree {
	var o treeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Tree{
		hasher:  h,
		leaves:  append([]Digest(nil), leaves...),
		workers: o.workers,
	}
}

// Hasher returns the hasher used by the tree.
func (t *Tree) Hasher() Hasher {
	return t.hasher
}

// Size returns the number of leaves.
func (t *Tree) Size() int {
	return len(t.leaves)
}

// Leaves returns a copy of the leaves, in order.
func (t *Tree) Leaves() []Digest {
	return append([]Digest(nil), t.leaves...)
}

// Contains reports whether d is a leaf of the tree.
func (t *Tree) Contains(d Digest) bool {
	for _, l := range t.leaves {
		if l == d {
			return true
		}
	}
	return false
}

// Root returns the root of the tree. The root of a single-leaf tree is the
// leaf itself.
func (t *Tree) Root() (Digest, error) {
	if len(t.leaves) == 0 {
		return "", ErrEmptyTree
	}
	level := t.leaves
	for len(level) > 1 {
		level = reduceLevel(t.hasher, level, t.workers)
	}
	return level[0], nil
}

// Proof returns the inclusion proof for target. If target occurs more than
// once, the proof is for its first occurrence.
func (t *Tree) Proof(target Digest) (*Proof, error) {
	if !t.Contains(target) {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}
	p := NewProof(t.hasher)
	running, level := target, t.leaves
	for len(level) > 1 {
		b, err := findBranch(t.hasher, level, running)
		if err != nil {
			return nil, err
		}
		p.Append(b)
		running = b.Parent()
		level = reduceLevel(t.hasher, level, t.workers)
	}
	return p, nil
}
