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

// Package backoff allows retrying an operation with backoff.
package backoff

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/google/hashserv/util/clock"
)

// Backoff specifies the parameters of the backoff algorithm. Works correctly
// if 0 < Min <= Max <= 2^62 (nanosec), and Factor >= 1.
type Backoff struct {
	Min    time.Duration // Duration of the first pause.
	Max    time.Duration // Max duration of a pause.
	Factor float64       // The factor of duration increase between iterations.
	Jitter bool          // Add random noise to pauses.

	// MaxAttempts caps the number of calls Retry makes. Zero means no cap.
	MaxAttempts int
	// TimeSource measures pauses. Defaults to the system clock.
	TimeSource clock.TimeSource

	delta time.Duration // Current pause duration relative to Min, no jitter.
}

// Duration returns the time to wait on current retry iteration.
// Every time Duration is called, the returned value will exponentially
// increase by Factor until Backoff.Max. If Jitter is enabled, will wait an
// additional random value between 0 and Factor^x * Min, capped by Backoff.Max.
func (b *Backoff) Duration() time.Duration {
	pause := b.Min + b.delta

	newPause := time.Duration(float64(pause) * b.Factor)
	if newPause > b.Max || newPause < b.Min { // Multiplication could overflow.
		newPause = b.Max
	}
	b.delta = newPause - b.Min

	if b.Jitter {
		// Add a number in the range [0, pause).
		pause += time.Duration(rand.Int63n(int64(pause)))
	}
	return pause
}

// Reset sets the internal state back to first iteration.
func (b *Backoff) Reset() {
	b.delta = 0
}

// Recover reduces retry pause duration by the given power of Backoff.Factor.
func (b *Backoff) Recover(factors int) {
	pause := float64(b.Min + b.delta)
	newPause := pause / math.Pow(b.Factor, float64(factors))
	minNanos := float64(b.Min)
	b.delta = time.Duration(math.Max(minNanos, newPause) - minNanos)
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Retry returns the wrapped error
// as soon as f returns one.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry calls a function until it succeeds, returns a Permanent error, runs
// out of attempts, or the context is done. It will backoff if the function
// returns an error. The most recent error of f is returned.
// Backoff is not reset by this function.
func (b *Backoff) Retry(ctx context.Context, f func() error) error {
	// If the context is already done, don't make any attempts to call f.
	if ctx.Err() != nil {
		return ctx.Err()
	}
	ts := b.TimeSource
	if ts == nil {
		ts = clock.System
	}

	for attempt := 1; ; attempt++ {
		err := f()
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			return err
		}
		if clock.SleepSource(ctx, b.Duration(), ts) != nil {
			return err
		}
	}
}
