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

// Package testonly contains checks shared by the tests of MetricFactory
// implementations, and helpers for tests which inspect metrics.
package testonly

import (
	"testing"

	"github.com/google/hashserv/monitoring"
)

var labelCases = []struct {
	suffix     string
	labelNames []string
	labelVals  []string
}{
	{suffix: "0"},
	{suffix: "1", labelNames: []string{"key1"}, labelVals: []string{"val1"}},
	{suffix: "2", labelNames: []string{"key1", "key2"}, labelVals: []string{"val1", "val2"}},
}

// TestCounter runs a test on a Counter produced from the provided MetricFactory.
func TestCounter(t *testing.T, factory monitoring.MetricFactory) {
	for _, lc := range labelCases {
		name := "test_counter" + lc.suffix
		counter := factory.NewCounter(name, "Test only", lc.labelNames...)
		if got, want := counter.Value(lc.labelVals...), 0.0; got != want {
			t.Errorf("Counter(%s)[%v].Value()=%v; want %v", name, lc.labelVals, got, want)
		}
		counter.Inc(lc.labelVals...)
		counter.Add(2.5, lc.labelVals...)
		if got, want := counter.Value(lc.labelVals...), 3.5; got != want {
			t.Errorf("Counter(%s)[%v].Value()=%v; want %v", name, lc.labelVals, got, want)
		}
		// Use an invalid number of labels.
		libels := append(lc.labelVals, "bogus")
		counter.Inc(libels...)
		if got, want := counter.Value(libels...), 0.0; got != want {
			t.Errorf("Counter(%s)[%v].Value()=%v; want %v", name, libels, got, want)
		}
	}
}

// TestGauge runs a test on a Gauge produced from the provided MetricFactory.
func TestGauge(t *testing.T, factory monitoring.MetricFactory) {
	for _, lc := range labelCases {
		name := "test_gauge" + lc.suffix
		gauge := factory.NewGauge(name, "Test only", lc.labelNames...)
		gauge.Set(10, lc.labelVals...)
		gauge.Inc(lc.labelVals...)
		gauge.Dec(lc.labelVals...)
		gauge.Dec(lc.labelVals...)
		gauge.Add(0.5, lc.labelVals...)
		if got, want := gauge.Value(lc.labelVals...), 9.5; got != want {
			t.Errorf("Gauge(%s)[%v].Value()=%v; want %v", name, lc.labelVals, got, want)
		}
		libels := append(lc.labelVals, "bogus")
		gauge.Set(42, libels...)
		if got, want := gauge.Value(libels...), 0.0; got != want {
			t.Errorf("Gauge(%s)[%v].Value()=%v; want %v", name, libels, got, want)
		}
	}
}

// TestHistogram runs a test on a Histogram produced from the provided MetricFactory.
func TestHistogram(t *testing.T, factory monitoring.MetricFactory) {
	for _, lc := range labelCases {
		name := "test_histogram" + lc.suffix
		histogram := factory.NewHistogramWithBuckets(name, "Test only", monitoring.SizeBuckets(), lc.labelNames...)
		for _, v := range []float64{1, 3, 8} {
			histogram.Observe(v, lc.labelVals...)
		}
		if gotCount, gotSum := histogram.Info(lc.labelVals...); gotCount != 3 || gotSum != 12 {
			t.Errorf("Histogram(%s)[%v].Info()=%v,%v; want 3,12", name, lc.labelVals, gotCount, gotSum)
		}
		libels := append(lc.labelVals, "bogus")
		histogram.Observe(100, libels...)
		if gotCount, gotSum := histogram.Info(libels...); gotCount != 0 || gotSum != 0 {
			t.Errorf("Histogram(%s)[%v].Info()=%v,%v; want 0,0", name, libels, gotCount, gotSum)
		}
	}
}
