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

// Package serverutil holds code for running hashserv servers.
package serverutil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/hashserv/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Main encapsulates the data and logic to start a hashserv server.
type Main struct {
	// HTTPEndpoint is the address the server listens on.
	HTTPEndpoint string

	// TLS Certificate and Key files for the server.
	TLSCertFile, TLSKeyFile string

	// Handler serves everything except /metrics and /healthz.
	Handler http.Handler

	DBClose func() error

	// IsHealthy will be called whenever "/healthz" is called on the mux.
	// A nil return value from this function will result in a 200-OK response
	// on the /healthz endpoint.
	IsHealthy func(context.Context) error
	// HealthyDeadline is the maximum duration to wait wait for a successful
	// IsHealthy() call.
	HealthyDeadline time.Duration

	// Background tasks run until the server stops; each must return once
	// its context is done.
	Background []func(context.Context)

	// ShutdownTimeout bounds how long in-flight requests may take to finish.
	ShutdownTimeout time.Duration
}

func (m *Main) healthz(rw http.ResponseWriter, req *http.Request) {
	if m.IsHealthy != nil {
		ctx, cancel := context.WithTimeout(req.Context(), m.HealthyDeadline)
		defer cancel()
		if err := m.IsHealthy(ctx); err != nil {
			rw.WriteHeader(http.StatusServiceUnavailable)
			rw.Write([]byte(err.Error()))
			return
		}
	}
	rw.Write([]byte("ok"))
}

// newMux returns the handler of the server. It deliberately avoids
// http.DefaultServeMux so that nothing registered there, such as pprof, is
// exposed.
func (m *Main) newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", m.Handler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", m.healthz)
	return mux
}

// Run starts the configured server. Blocks until the server exits, which
// happens when ctx is done or the process receives a termination signal.
func (m *Main) Run(ctx context.Context) error {
	klog.CopyStandardLogTo("WARNING")

	if m.Handler == nil {
		return errors.New("serverutil: no handler")
	}
	if m.HealthyDeadline == 0 {
		m.HealthyDeadline = 5 * time.Second
	}
	if m.ShutdownTimeout == 0 {
		m.ShutdownTimeout = 5 * time.Second
	}
	if m.DBClose != nil {
		defer m.DBClose()
	}

	lis, err := net.Listen("tcp", m.HTTPEndpoint)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: m.newMux(), ReadHeaderTimeout: 10 * time.Second}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go util.AwaitSignal(ctx, cancel)

	g, gctx := errgroup.WithContext(ctx)
	for _, bg := range m.Background {
		g.Go(func() error {
			bg(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), m.ShutdownTimeout)
		defer scancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		klog.Infof("HTTP server starting on %v", lis.Addr())
		var err error
		// Let ServeTLS handle the error case when only one of the flags is set.
		if m.TLSCertFile != "" || m.TLSKeyFile != "" {
			err = srv.ServeTLS(lis, m.TLSCertFile, m.TLSKeyFile)
		} else {
			err = srv.Serve(lis)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		klog.Errorf("HTTP server stopped: %v", err)
		cancel()
		return err
	})

	err = g.Wait()
	klog.Infof("Stopping server, about to exit")
	klog.Flush()
	return err
}
