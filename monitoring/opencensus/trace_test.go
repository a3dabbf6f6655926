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

package opencensus

import (
	"context"
	"testing"

	"go.opencensus.io/trace"
)

func TestStartSpan(t *testing.T) {
	ctx, end := StartSpan(context.Background(), "outer")
	defer end()
	if trace.FromContext(ctx) == nil {
		t.Fatal("StartSpan() returned a context without a span")
	}
	inner, endInner := StartSpan(ctx, "inner")
	defer endInner()
	if got, want := trace.FromContext(inner).SpanContext().TraceID, trace.FromContext(ctx).SpanContext().TraceID; got != want {
		t.Errorf("inner span trace ID = %v, want %v", got, want)
	}
}

func TestEnableHTTPServerTracingRejectsBadPercent(t *testing.T) {
	for _, p := range []int{-1, 101} {
		if _, err := EnableHTTPServerTracing("project", p, nil); err == nil {
			t.Errorf("EnableHTTPServerTracing(%d) succeeded, want error", p)
		}
	}
}
