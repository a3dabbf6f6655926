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

// Package ledger implements the hashserv service: digests are submitted to
// the open block of a ledger, blocks are sealed under a Merkle root, and
// inclusion proofs are served for any submitted digest.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	herrors "github.com/google/hashserv/errors"
	"github.com/google/hashserv/merkle"
	"github.com/google/hashserv/merkle/codec"
	"github.com/google/hashserv/monitoring"
	"github.com/google/hashserv/storage"
	"github.com/google/hashserv/storage/cache"
	"github.com/google/hashserv/util/clock"
	"k8s.io/klog/v2"
)

// Options configures a Ledger.
type Options struct {
	// Storage holds the ledger. Required.
	Storage storage.LedgerStorage
	// Hasher computes digests and Merkle parents. Required.
	Hasher merkle.Hasher
	// HasherName is reported alongside proofs so that remote verifiers
	// can pick the same hasher.
	HasherName string
	// Cache stores encoded proofs of sealed leaves. Defaults to no cache.
	Cache cache.ProofCache
	// TimeSource defaults to the system clock.
	TimeSource clock.TimeSource
	// MetricFactory defaults to inert metrics.
	MetricFactory monitoring.MetricFactory
	// Parallelism bounds the workers hashing a level of large trees.
	// Zero or less means GOMAXPROCS; 1 hashes sequentially.
	Parallelism int
}

// BlockInfo describes a block and its leaves.
type BlockInfo struct {
	Number int64
	// Root is the sealed root, or for an open block the root the block
	// would have if sealed now. It is empty for an empty open block.
	Root     merkle.Digest
	Leaves   []merkle.Digest
	Sealed   bool
	SealedAt time.Time
}

// InclusionProof is a proof that Digest is leaf Index of Block.
type InclusionProof struct {
	Digest merkle.Digest
	Block  int64
	Index  int64
	// Root is the root the proof leads to. For an open block it is
	// provisional and changes as leaves are added.
	Root   merkle.Digest
	Sealed bool
	Proof  *merkle.Proof
}

// Ledger serves a hash ledger on top of a LedgerStorage.
type Ledger struct {
	opts Options
	// mu is held for writing while a block is sealed, so that no
	// submission lands in a block after its root is taken.
	mu sync.RWMutex
}

// New returns a Ledger. It fails if Storage or Hasher is missing.
func New(opts Options) (*Ledger, error) {
	if opts.Storage == nil {
		return nil, errors.New("ledger: no storage")
	}
	if opts.Hasher == nil {
		return nil, errors.New("ledger: no hasher")
	}
	if opts.Cache == nil {
		opts.Cache = cache.NoopCache{}
	}
	if opts.TimeSource == nil {
		opts.TimeSource = clock.System
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	once.Do(func() { createMetrics(opts.MetricFactory) })
	return &Ledger{opts: opts}, nil
}

// Hasher returns the hasher of the ledger.
func (l *Ledger) Hasher() merkle.Hasher {
	return l.opts.Hasher
}

// HasherName returns the configured name of the hasher.
func (l *Ledger) HasherName() string {
	return l.opts.HasherName
}

// Storage returns the storage of the ledger.
func (l *Ledger) Storage() storage.LedgerStorage {
	return l.opts.Storage
}

func (l *Ledger) parse(what, raw string) (merkle.Digest, error) {
	d, err := merkle.ParseDigest(l.opts.Hasher, raw)
	if err != nil {
		return "", herrors.Errorf(herrors.InvalidArgument, "%s: %w", what, err)
	}
	return d, nil
}

// Submit adds the digest raw to the open block. If it was submitted before,
// the existing leaf is returned with added false.
func (l *Ledger) Submit(ctx context.Context, raw string) (storage.Leaf, bool, error) {
	ctx, spanEnd := monitoring.StartSpan(ctx, "ledger.Submit")
	defer spanEnd()

	d, err := l.parse("digest", raw)
	if err != nil {
		return storage.Leaf{}, false, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	leaf, added, err := l.opts.Storage.Submit(ctx, d, l.opts.TimeSource.Now())
	if err != nil {
		return storage.Leaf{}, false, toCoded(err, "submit %s", d)
	}
	if added {
		submissions.Inc("added")
		openBlockSize.Set(float64(leaf.Index + 1))
		klog.V(2).Infof("Submitted %s to block %d at index %d", d, leaf.Block, leaf.Index)
	} else {
		submissions.Inc("duplicate")
	}
	return leaf, added, nil
}

// OpenBlock returns the number of the block accepting submissions.
func (l *Ledger) OpenBlock(ctx context.Context) (int64, error) {
	n, err := l.opts.Storage.OpenBlock(ctx)
	if err != nil {
		return 0, toCoded(err, "open block")
	}
	return n, nil
}

func (l *Ledger) newTree(leaves []merkle.Digest) *merkle.Tree {
	return merkle.NewTree(l.opts.Hasher, leaves, merkle.WithParallelism(l.opts.Parallelism))
}

// Tree rebuilds the Merkle tree of block n from its stored leaves.
func (l *Ledger) Tree(ctx context.Context, n int64) (*merkle.Tree, error) {
	leaves, err := l.opts.Storage.Leaves(ctx, n)
	if err != nil {
		return nil, toCoded(err, "leaves of block %d", n)
	}
	return l.newTree(leaves), nil
}

// Block returns block n with its leaves.
func (l *Ledger) Block(ctx context.Context, n int64) (*BlockInfo, error) {
	ctx, spanEnd := monitoring.StartSpan(ctx, "ledger.Block")
	defer spanEnd()

	// Block and its leaves must be read without a seal in between.
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, err := l.opts.Storage.Block(ctx, n)
	if err != nil {
		return nil, toCoded(err, "block %d", n)
	}
	t, err := l.Tree(ctx, n)
	if err != nil {
		return nil, err
	}
	info := &BlockInfo{Number: n, Root: b.Root, Leaves: t.Leaves(), Sealed: b.Sealed, SealedAt: b.SealedAt}
	if !b.Sealed && t.Size() > 0 {
		if info.Root, err = t.Root(); err != nil {
			return nil, toCoded(err, "root of block %d", n)
		}
	}
	return info, nil
}

// Proof returns the inclusion proof of the digest raw. Proofs of leaves in
// sealed blocks are checked against the stored root and cached.
func (l *Ledger) Proof(ctx context.Context, raw string) (*InclusionProof, error) {
	ctx, spanEnd := monitoring.StartSpan(ctx, "ledger.Proof")
	defer spanEnd()

	d, err := l.parse("digest", raw)
	if err != nil {
		return nil, err
	}
	leaf, err := l.opts.Storage.Lookup(ctx, d)
	if err != nil {
		return nil, toCoded(err, "digest %s", d)
	}
	b, err := l.opts.Storage.Block(ctx, leaf.Block)
	if err != nil {
		return nil, toCoded(err, "block %d", leaf.Block)
	}
	ip := &InclusionProof{Digest: d, Block: leaf.Block, Index: leaf.Index, Root: b.Root, Sealed: b.Sealed}

	if b.Sealed {
		if p := l.cachedProof(ctx, d, b.Root); p != nil {
			ip.Proof = p
			proofLength.Observe(float64(p.Len()))
			return ip, nil
		}
	}

	t, err := l.Tree(ctx, leaf.Block)
	if err != nil {
		return nil, err
	}
	root, err := t.Root()
	if err != nil {
		return nil, toCoded(err, "root of block %d", leaf.Block)
	}
	if !b.Sealed {
		ip.Root = root
	} else if root != b.Root {
		return nil, herrors.Errorf(herrors.DataLoss, "block %d: leaves hash to %s, sealed root is %s", leaf.Block, root, b.Root)
	}
	p, err := t.Proof(d)
	if err != nil {
		return nil, toCoded(err, "proof of %s", d)
	}
	if b.Sealed {
		l.cacheProof(ctx, d, p)
	}
	ip.Proof = p
	proofLength.Observe(float64(p.Len()))
	return ip, nil
}

// cachedProof returns the cached proof of d if there is one leading to root.
func (l *Ledger) cachedProof(ctx context.Context, d, root merkle.Digest) *merkle.Proof {
	data, ok, err := l.opts.Cache.Get(ctx, d)
	switch {
	case err != nil:
		cacheLookups.Inc("error")
		klog.Warningf("Proof cache lookup of %s failed: %v", d, err)
		return nil
	case !ok:
		cacheLookups.Inc("miss")
		return nil
	}
	p, err := codec.Unmarshal(data, codec.FormatCBOR, l.opts.Hasher)
	if err != nil || !p.Verify(d, root) {
		cacheLookups.Inc("error")
		klog.Warningf("Discarding cached proof of %s: decode error %v", d, err)
		return nil
	}
	cacheLookups.Inc("hit")
	return p
}

func (l *Ledger) cacheProof(ctx context.Context, d merkle.Digest, p *merkle.Proof) {
	data, err := codec.Marshal(p, codec.FormatCBOR)
	if err != nil {
		klog.Warningf("Failed to encode proof of %s: %v", d, err)
		return
	}
	if err := l.opts.Cache.Put(ctx, d, data); err != nil {
		klog.Warningf("Failed to cache proof of %s: %v", d, err)
	}
}

// Verify checks a proof supplied by a remote party: the branches must lead
// from target to root.
func (l *Ledger) Verify(target, root string, branches []codec.Branch) (bool, error) {
	t, err := l.parse("target", target)
	if err != nil {
		return false, err
	}
	r, err := l.parse("root", root)
	if err != nil {
		return false, err
	}
	p, err := codec.ToProof(l.opts.Hasher, branches)
	if err != nil {
		return false, herrors.Errorf(herrors.InvalidArgument, "proof: %w", err)
	}
	return p.Verify(t, r), nil
}

// SealOpenBlock computes the root of the open block and seals it. It returns
// nil if the open block is empty.
func (l *Ledger) SealOpenBlock(ctx context.Context) (*storage.Block, error) {
	ctx, spanEnd := monitoring.StartSpan(ctx, "ledger.SealOpenBlock")
	defer spanEnd()

	l.mu.Lock()
	defer l.mu.Unlock()

	start := l.opts.TimeSource.Now()
	n, err := l.OpenBlock(ctx)
	if err != nil {
		return nil, err
	}
	t, err := l.Tree(ctx, n)
	if err != nil {
		return nil, err
	}
	if t.Size() == 0 {
		return nil, nil
	}
	root, err := t.Root()
	if err != nil {
		return nil, toCoded(err, "root of block %d", n)
	}
	now := l.opts.TimeSource.Now()
	size := int64(t.Size())
	if err := l.opts.Storage.Seal(ctx, n, size, root, now); err != nil {
		return nil, toCoded(err, "seal block %d", n)
	}

	seals.Inc()
	openBlockSize.Set(0)
	latestSealedBlock.Set(float64(n))
	sealedLeaves.Add(float64(size))
	blockSize.Observe(float64(size))
	sealLatency.Observe(clock.SecondsSince(l.opts.TimeSource, start))
	klog.Infof("Sealed block %d: %d leaves, root %s", n, size, root)
	return &storage.Block{Number: n, Root: root, Size: size, SealedAt: now, Sealed: true}, nil
}

// toCoded converts storage, merkle and context errors into coded errors.
func toCoded(err error, format string, a ...interface{}) error {
	if herrors.ErrorCode(err) != herrors.Unknown {
		return err
	}
	code := herrors.Internal
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, merkle.ErrTargetNotFound):
		code = herrors.NotFound
	case errors.Is(err, storage.ErrConflict):
		code = herrors.Aborted
	case errors.Is(err, merkle.ErrEmptyTree):
		code = herrors.FailedPrecondition
	case errors.Is(err, context.Canceled):
		code = herrors.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = herrors.DeadlineExceeded
	}
	return herrors.Errorf(code, "%s: %w", fmt.Sprintf(format, a...), err)
}
