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

// Package server serves a ledger over HTTP.
package server

import (
	"net/http"
	"sync"

	"github.com/google/hashserv/api"
	"github.com/google/hashserv/ledger"
	"github.com/google/hashserv/monitoring"
	"github.com/google/hashserv/util/clock"
)

const (
	routeLabel  = "route"
	statusLabel = "status"
)

var (
	once       sync.Once
	reqCount   monitoring.Counter
	reqLatency monitoring.Histogram
)

func createMetrics(mf monitoring.MetricFactory) {
	if mf == nil {
		mf = monitoring.InertMetricFactory{}
	}
	reqCount = mf.NewCounter("http_requests", "Number of HTTP requests, by route and status", routeLabel, statusLabel)
	reqLatency = mf.NewHistogram("http_request_latency_seconds", "Latency of HTTP requests in seconds, by route", routeLabel)
}

// Server routes HTTP requests to a Ledger.
type Server struct {
	l   *ledger.Ledger
	ts  clock.TimeSource
	mux *http.ServeMux
}

// New returns a Server for l. A nil mf disables metrics and a nil ts means
// the system clock.
func New(l *ledger.Ledger, mf monitoring.MetricFactory, ts clock.TimeSource) *Server {
	once.Do(func() { createMetrics(mf) })
	if ts == nil {
		ts = clock.System
	}
	s := &Server{l: l, ts: ts, mux: http.NewServeMux()}
	s.register("GET /{$}", "index", index)
	s.register("GET "+api.PathSubmit+"/{digest}", "submit", submit)
	s.register("POST "+api.PathSubmit, "submit", submit)
	s.register("GET "+api.PathLatestBlock, "latest_block", latestBlock)
	s.register("GET "+api.PathBlock+"/{number}", "block", block)
	s.register("GET "+api.PathProof+"/{digest}", "proof", proof)
	s.register("POST "+api.PathVerify, "verify", verify)
	return s
}

func (s *Server) register(pattern, name string, h func(*Server, http.ResponseWriter, *http.Request) (int, error)) {
	s.mux.Handle(pattern, appHandler{s: s, handler: h, name: name})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
