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

// Package opencensus wires OpenCensus tracing into the monitoring package.
package opencensus

import (
	"context"
	"fmt"
	"net/http"

	"contrib.go.opencensus.io/exporter/stackdriver"
	"github.com/google/hashserv/monitoring"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"
	"k8s.io/klog/v2"
)

// EnableHTTPServerTracing registers a Stackdriver trace exporter for the
// given project, installs StartSpan as the global span starter and returns
// the handler wrapped so that incoming requests are traced.
// percent is the sampling rate in the range [0, 100]; 0 keeps the
// OpenCensus default sampler.
func EnableHTTPServerTracing(projectID string, percent int, h http.Handler) (http.Handler, error) {
	if percent < 0 || percent > 100 {
		return nil, fmt.Errorf("trace sampling percentage %d outside [0, 100]", percent)
	}
	exporter, err := stackdriver.NewExporter(stackdriver.Options{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to create Stackdriver exporter: %v", err)
	}
	trace.RegisterExporter(exporter)
	if percent > 0 {
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.ProbabilitySampler(float64(percent) / 100)})
	}
	monitoring.SetStartSpanFunc(StartSpan)
	klog.Infof("Tracing %d%% of requests to project %q", percent, projectID)
	return &ochttp.Handler{Handler: h}, nil
}

// StartSpan starts an OpenCensus span. The returned function ends it.
func StartSpan(ctx context.Context, name string) (context.Context, func()) {
	ctx, span := trace.StartSpan(ctx, name)
	return ctx, span.End
}
