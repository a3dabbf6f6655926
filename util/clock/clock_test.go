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

package clock

import (
	"context"
	"testing"
	"time"
)

var base = time.Date(2018, 12, 12, 18, 0, 0, 0, time.UTC)

func checkNotFiring(t *testing.T, timer Timer) {
	t.Helper()
	select {
	case tm := <-timer.Chan():
		t.Errorf("Timer unexpectedly fired at %v", tm)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestFakeTimeSource(t *testing.T) {
	fake := NewFake(base)
	var ts TimeSource = fake
	if got := ts.Now(); !got.Equal(base) {
		t.Errorf("Now()=%v, want %v", got, base)
	}
	fake.Advance(8 * time.Second)
	if got, want := SecondsSince(ts, base), 8.0; got != want {
		t.Errorf("SecondsSince()=%v, want %v", got, want)
	}
}

func TestFakeTimerFiresOnce(t *testing.T) {
	ts := NewFake(base)
	timer := ts.NewTimer(10 * time.Millisecond)

	ts.Advance(9 * time.Millisecond)
	checkNotFiring(t, timer)

	ts.Advance(time.Millisecond)
	if got, want := <-timer.Chan(), base.Add(10*time.Millisecond); !got.Equal(want) {
		t.Errorf("Timer fired at %v, want %v", got, want)
	}
	ts.Advance(time.Hour)
	checkNotFiring(t, timer)
	if got := ts.Timers(); got != 0 {
		t.Errorf("Timers()=%d after firing, want 0", got)
	}
}

func TestFakeTimerZeroDurationFiresImmediately(t *testing.T) {
	ts := NewFake(base)
	timer := ts.NewTimer(0)
	select {
	case <-timer.Chan():
	case <-time.After(time.Second):
		t.Fatal("zero-duration timer did not fire")
	}
	if timer.Stop() {
		t.Error("Stop()=true after firing, want false")
	}
}

func TestFakeTimerStop(t *testing.T) {
	ts := NewFake(base)
	timer := ts.NewTimer(10 * time.Millisecond)
	if !timer.Stop() {
		t.Error("Stop()=false, want true")
	}
	if timer.Stop() {
		t.Error("second Stop()=true, want false")
	}
	ts.Advance(time.Second)
	checkNotFiring(t, timer)
}

func TestManyFakeTimers(t *testing.T) {
	ts := NewFake(base)
	var timers []Timer
	for i := 1; i <= 5; i++ {
		timers = append(timers, ts.NewTimer(time.Duration(i)*time.Second))
	}
	for i := range timers {
		ts.Set(base.Add(time.Duration(i+1) * time.Second))
		for j, timer := range timers {
			if j == i {
				<-timer.Chan()
			} else if j > i {
				checkNotFiring(t, timer)
			}
		}
	}
}

func TestSleepContext(t *testing.T) {
	for _, tc := range []struct {
		name    string
		dur     time.Duration
		timeout time.Duration
		wantErr error
	}{
		{name: "zero", dur: 0, timeout: time.Second},
		{name: "short", dur: 10 * time.Millisecond, timeout: time.Second},
		{name: "deadline", dur: time.Second, timeout: 10 * time.Millisecond, wantErr: context.DeadlineExceeded},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), tc.timeout)
			defer cancel()
			if got := SleepContext(ctx, tc.dur); got != tc.wantErr {
				t.Errorf("SleepContext()=%v, want %v", got, tc.wantErr)
			}
		})
	}
}

func TestSleepSource(t *testing.T) {
	ts := NewFake(base)
	done := make(chan error, 1)
	go func() { done <- SleepSource(context.Background(), time.Minute, ts) }()
	for ts.Timers() == 0 {
		time.Sleep(time.Millisecond)
	}
	ts.Advance(time.Minute)
	if err := <-done; err != nil {
		t.Errorf("SleepSource()=%v, want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got, want := SleepSource(ctx, time.Minute, ts), context.Canceled; got != want {
		t.Errorf("SleepSource(canceled)=%v, want %v", got, want)
	}
}
