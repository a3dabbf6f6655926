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

package serverutil_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/google/hashserv/cmd/internal/serverutil"

	_ "net/http/pprof"
)

func pickFreePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		t.Fatalf("unexpected addr type: %T", ln.Addr())
	}
	return addr.Port
}

func httpGet(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url) //nolint:gosec
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func waitForStatus(t *testing.T, url string, want int) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url) //nolint:gosec
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == want {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %d from %s", want, url)
}

type runResult struct {
	baseURL string
	errCh   chan error
	cancel  context.CancelFunc
}

func start(t *testing.T, m *serverutil.Main) runResult {
	t.Helper()
	m.HTTPEndpoint = fmt.Sprintf("127.0.0.1:%d", pickFreePort(t))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Run(ctx)
	}()
	return runResult{baseURL: "http://" + m.HTTPEndpoint, errCh: errCh, cancel: cancel}
}

func (r runResult) stop(t *testing.T) error {
	t.Helper()
	r.cancel()
	select {
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for server shutdown")
	case err := <-r.errCh:
		return err
	}
	return nil
}

func TestHTTPServerDoesNotExposeDefaultServeMux(t *testing.T) {
	var bgDone, dbClosed bool
	m := &serverutil.Main{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			io.WriteString(w, "hello world.")
		}),
		DBClose: func() error {
			dbClosed = true
			return nil
		},
		Background: []func(context.Context){func(ctx context.Context) {
			<-ctx.Done()
			bgDone = true
		}},
	}
	r := start(t, m)
	waitForStatus(t, r.baseURL+"/healthz", http.StatusOK)

	if got, _ := httpGet(t, r.baseURL+"/metrics"); got != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", got)
	}
	if got, body := httpGet(t, r.baseURL+"/"); got != http.StatusOK || body != "hello world." {
		t.Fatalf("GET / = %d %q, want 200 %q", got, body, "hello world.")
	}
	if got, _ := httpGet(t, r.baseURL+"/debug/pprof/"); got != http.StatusNotFound {
		t.Fatalf("expected 404 from /debug/pprof/, got %d", got)
	}

	if err := r.stop(t); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
	if !bgDone {
		t.Error("background task still running after Run returned")
	}
	if !dbClosed {
		t.Error("DBClose not called")
	}
}

func TestHealthz(t *testing.T) {
	healthy := make(chan error, 1)
	m := &serverutil.Main{
		Handler: http.NotFoundHandler(),
		IsHealthy: func(context.Context) error {
			select {
			case err := <-healthy:
				return err
			default:
				return nil
			}
		},
	}
	r := start(t, m)
	waitForStatus(t, r.baseURL+"/healthz", http.StatusOK)

	healthy <- errors.New("database unreachable")
	if got, body := httpGet(t, r.baseURL+"/healthz"); got != http.StatusServiceUnavailable || body != "database unreachable" {
		t.Errorf("GET /healthz = %d %q, want 503 %q", got, body, "database unreachable")
	}
	if err := r.stop(t); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}

func TestRunRequiresHandler(t *testing.T) {
	m := &serverutil.Main{HTTPEndpoint: "127.0.0.1:0"}
	if err := m.Run(context.Background()); err == nil {
		t.Error("Run() without handler succeeded")
	}
}
