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

package monitoring

import (
	"strings"
	"sync"

	"k8s.io/klog/v2"
)

// InertMetricFactory creates metrics which only keep their values in
// memory. Tests read them back through Value and Info.
type InertMetricFactory struct{}

// NewCounter returns an in-memory Counter.
func (InertMetricFactory) NewCounter(name, help string, labelNames ...string) Counter {
	c := &inertCounter{}
	c.init(name, labelNames)
	return c
}

// NewGauge returns an in-memory Gauge.
func (InertMetricFactory) NewGauge(name, help string, labelNames ...string) Gauge {
	g := &inertGauge{}
	g.init(name, labelNames)
	return g
}

// NewHistogram returns an in-memory Histogram recording counts and sums.
func (imf InertMetricFactory) NewHistogram(name, help string, labelNames ...string) Histogram {
	h := &inertHistogram{counts: make(map[string]uint64)}
	h.init(name, labelNames)
	return h
}

// NewHistogramWithBuckets ignores the buckets.
func (imf InertMetricFactory) NewHistogramWithBuckets(name, help string, _ []float64, labelNames ...string) Histogram {
	return imf.NewHistogram(name, help, labelNames...)
}

// inertValues holds one float per combination of label values.
type inertValues struct {
	name   string
	labels int
	mu     sync.Mutex
	vals   map[string]float64
}

func (v *inertValues) init(name string, labelNames []string) {
	v.name, v.labels, v.vals = name, len(labelNames), make(map[string]float64)
}

// key joins labelVals, or logs and returns false if their number is wrong.
// Must be called with mu held.
func (v *inertValues) key(labelVals []string) (string, bool) {
	if len(labelVals) != v.labels {
		klog.Errorf("%s: got %d label values, want %d", v.name, len(labelVals), v.labels)
		return "", false
	}
	return strings.Join(labelVals, "|"), true
}

func (v *inertValues) update(labelVals []string, f func(float64) float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if k, ok := v.key(labelVals); ok {
		v.vals[k] = f(v.vals[k])
	}
}

func (v *inertValues) Value(labelVals ...string) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	k, ok := v.key(labelVals)
	if !ok {
		return 0
	}
	return v.vals[k]
}

type inertCounter struct{ inertValues }

func (c *inertCounter) Inc(labelVals ...string) { c.Add(1, labelVals...) }

// Add ignores negative values, as counters only go up.
func (c *inertCounter) Add(val float64, labelVals ...string) {
	if val < 0 {
		klog.Errorf("%s: counter decremented by %v", c.name, val)
		return
	}
	c.update(labelVals, func(v float64) float64 { return v + val })
}

type inertGauge struct{ inertValues }

func (g *inertGauge) Inc(labelVals ...string) { g.Add(1, labelVals...) }
func (g *inertGauge) Dec(labelVals ...string) { g.Add(-1, labelVals...) }

func (g *inertGauge) Add(val float64, labelVals ...string) {
	g.update(labelVals, func(v float64) float64 { return v + val })
}

func (g *inertGauge) Set(val float64, labelVals ...string) {
	g.update(labelVals, func(float64) float64 { return val })
}

// inertHistogram keeps the sum of observations in inertValues.
type inertHistogram struct {
	inertValues
	counts map[string]uint64
}

func (h *inertHistogram) Observe(val float64, labelVals ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if k, ok := h.key(labelVals); ok {
		h.counts[k]++
		h.vals[k] += val
	}
}

func (h *inertHistogram) Info(labelVals ...string) (uint64, float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	k, ok := h.key(labelVals)
	if !ok {
		return 0, 0
	}
	return h.counts[k], h.vals[k]
}
