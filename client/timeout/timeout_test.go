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

package timeout

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRoundTripper(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}
		io.WriteString(w, "ok")
	}))
	defer ts.Close()
	defer close(release)

	hc := &http.Client{Transport: RoundTripper(nil, 100*time.Millisecond)}

	rsp, err := hc.Get(ts.URL + "/fast")
	if err != nil {
		t.Fatalf("Get(/fast): %v", err)
	}
	body, err := io.ReadAll(rsp.Body)
	rsp.Body.Close()
	if err != nil || string(body) != "ok" {
		t.Errorf("Get(/fast) body = %q, %v; want ok", body, err)
	}

	if _, err := hc.Get(ts.URL + "/slow"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Get(/slow) = %v, want %v", err, context.DeadlineExceeded)
	}
}
