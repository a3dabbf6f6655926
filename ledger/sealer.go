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
	"time"

	herrors "github.com/google/hashserv/errors"
	"github.com/google/hashserv/storage"
	"github.com/google/hashserv/util/clock"
	"github.com/google/hashserv/util/election"
	"k8s.io/klog/v2"
)

// DefaultPollInterval is how often a Sealer checks the open block when no
// PollInterval is configured.
const DefaultPollInterval = time.Second

// SealerOptions configures when a Sealer seals the open block.
type SealerOptions struct {
	// Interval is the longest a non-empty block stays open. Zero disables
	// time-based sealing.
	Interval time.Duration
	// MaxBlockSize seals the open block once it holds this many leaves.
	// Zero disables size-based sealing.
	MaxBlockSize int64
	// PollInterval is the pause between checks in Run.
	PollInterval time.Duration
	// TimeSource defaults to the system clock.
	TimeSource clock.TimeSource
}

// Sealer periodically seals the open block of a Ledger.
type Sealer struct {
	l        *Ledger
	opts     SealerOptions
	lastSeal time.Time
}

// NewSealer returns a Sealer for l. The first interval starts now.
func NewSealer(l *Ledger, opts SealerOptions) *Sealer {
	if opts.TimeSource == nil {
		opts.TimeSource = clock.System
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Sealer{l: l, opts: opts, lastSeal: opts.TimeSource.Now()}
}

// due reports whether the open block should be sealed now.
func (s *Sealer) due(ctx context.Context, now time.Time) (bool, error) {
	if s.opts.Interval > 0 && now.Sub(s.lastSeal) >= s.opts.Interval {
		return true, nil
	}
	if s.opts.MaxBlockSize <= 0 {
		return false, nil
	}
	n, err := s.l.OpenBlock(ctx)
	if err != nil {
		return false, err
	}
	b, err := s.l.opts.Storage.Block(ctx, n)
	if err != nil {
		return false, toCoded(err, "block %d", n)
	}
	return b.Size >= s.opts.MaxBlockSize, nil
}

// RunOnce seals the open block if it is due. It returns the sealed block,
// or nil if nothing was sealed.
func (s *Sealer) RunOnce(ctx context.Context) (*storage.Block, error) {
	now := s.opts.TimeSource.Now()
	due, err := s.due(ctx, now)
	if err != nil || !due {
		return nil, err
	}
	b, err := s.l.SealOpenBlock(ctx)
	if herrors.ErrorCode(err) == herrors.Aborted {
		// Another sealer got there first; the block is sealed either way.
		klog.Warningf("Seal aborted: %v", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.lastSeal = now
	return b, nil
}

// Run calls RunOnce every PollInterval until ctx is done.
func (s *Sealer) Run(ctx context.Context) {
	klog.Infof("Sealer starting: interval=%v maxBlockSize=%d poll=%v", s.opts.Interval, s.opts.MaxBlockSize, s.opts.PollInterval)
	for {
		start := s.opts.TimeSource.Now()
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			klog.Errorf("Sealer: %v", err)
		}
		// Sleep for the remainder of the poll interval.
		pause := s.opts.PollInterval - s.opts.TimeSource.Now().Sub(start)
		if pause < 0 {
			pause = 0
		}
		if err := clock.SleepSource(ctx, pause, s.opts.TimeSource); err != nil {
			klog.Infof("Sealer shutting down: %v", err)
			return
		}
	}
}

// closeTimeout bounds the resignation made when RunAsMaster returns.
const closeTimeout = 5 * time.Second

// RunAsMaster runs the sealer only while e holds mastership. Losing
// mastership stops sealing until e is elected again. It returns when ctx is
// done, after closing e.
func (s *Sealer) RunAsMaster(ctx context.Context, e election.Election) {
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := e.Close(cctx); err != nil {
			klog.Errorf("Sealer: closing election: %v", err)
		}
	}()
	for ctx.Err() == nil {
		if err := e.Await(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			klog.Errorf("Sealer: awaiting mastership: %v", err)
			if err := clock.SleepSource(ctx, s.opts.PollInterval, s.opts.TimeSource); err != nil {
				return
			}
			continue
		}
		mctx, err := e.WithMastership(ctx)
		if err != nil {
			klog.Errorf("Sealer: mastership context: %v", err)
			continue
		}
		if mctx.Err() != nil {
			// Overtaken between Await and WithMastership.
			continue
		}
		klog.Info("Sealer: acquired mastership")
		sealerIsMaster.Set(1)
		s.Run(mctx)
		sealerIsMaster.Set(0)
		if ctx.Err() != nil {
			return
		}
		klog.Warning("Sealer: lost mastership")
		if err := clock.SleepSource(ctx, s.opts.PollInterval, s.opts.TimeSource); err != nil {
			return
		}
	}
}
