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

package testonly

import (
	"fmt"
	"strings"

	"github.com/google/hashserv/monitoring"
)

// CounterSnapshot remembers counter values so a test can assert on how much
// they moved, independent of what earlier tests did to the same counter.
type CounterSnapshot struct {
	c    monitoring.Counter
	seen map[string]float64
}

// NewCounterSnapshot returns an empty snapshot of c.
func NewCounterSnapshot(c monitoring.Counter) CounterSnapshot {
	return CounterSnapshot{c: c, seen: make(map[string]float64)}
}

// Record stores the current value of the counter for the given labels.
func (s CounterSnapshot) Record(labels ...string) {
	s.seen[strings.Join(labels, "|")] = s.c.Value(labels...)
}

// Delta returns how far the counter has moved since Record was last called
// with the same labels. It panics if Record was never called for them.
func (s CounterSnapshot) Delta(labels ...string) float64 {
	old, ok := s.seen[strings.Join(labels, "|")]
	if !ok {
		panic(fmt.Sprintf("no snapshot recorded for labels %v", labels))
	}
	return s.c.Value(labels...) - old
}
