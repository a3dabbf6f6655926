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

// Package timeout enforces a maximum timeout on all outgoing HTTP requests.
package timeout

import (
	"context"
	"io"
	"net/http"
	"time"
)

// RoundTripper returns a transport which bounds every request sent through
// next by maxTimeout. The deadline also covers reading the response body.
// A nil next means http.DefaultTransport.
func RoundTripper(next http.RoundTripper, maxTimeout time.Duration) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &roundTripper{next: next, maxTimeout: maxTimeout}
}

type roundTripper struct {
	next       http.RoundTripper
	maxTimeout time.Duration
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), rt.maxTimeout)
	rsp, err := rt.next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	rsp.Body = &cancelBody{ReadCloser: rsp.Body, cancel: cancel}
	return rsp, nil
}

// cancelBody releases the request context once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
