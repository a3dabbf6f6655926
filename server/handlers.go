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

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/hashserv/api"
	herrors "github.com/google/hashserv/errors"
	"github.com/google/hashserv/merkle/codec"
	"github.com/google/hashserv/util/clock"
	"k8s.io/klog/v2"
)

const (
	contentTypeHeader = "Content-Type"
	contentTypeJSON   = "application/json"
	// maxBodySize bounds request bodies; a verify request for any realistic
	// block is far smaller.
	maxBodySize = 1 << 20
)

// appHandler holds a Server and a handler function that uses it, and is an
// implementation of the http.Handler interface.
type appHandler struct {
	s       *Server
	handler func(*Server, http.ResponseWriter, *http.Request) (int, error)
	name    string
}

// ServeHTTP for an appHandler invokes the underlying handler function but
// does additional common error processing.
func (a appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := a.s.ts.Now()
	klog.V(2).Infof("%s: request %v %q", a.name, r.Method, r.URL)
	status, err := a.handler(a.s, w, r)
	klog.V(2).Infof("%s: status=%d", a.name, status)
	switch {
	case err != nil:
		if status >= http.StatusInternalServerError {
			klog.Warningf("%s: handler error: %v", a.name, err)
		} else {
			klog.V(1).Infof("%s: rejected request %q: %v", a.name, r.URL, err)
		}
		sendHTTPError(w, status, err)
	case status != http.StatusOK:
		// For consistency the handler must return an error for non-200 status.
		klog.Warningf("%s: handler non 200 without error: %d", a.name, status)
		err := fmt.Errorf("http handler misbehaved, status: %d", status)
		status = http.StatusInternalServerError
		sendHTTPError(w, status, err)
	}
	reqCount.Inc(a.name, strconv.Itoa(status))
	reqLatency.Observe(clock.SecondsSince(a.s.ts, start), a.name)
}

// sendHTTPError writes an ErrorResponse for err.
func sendHTTPError(w http.ResponseWriter, status int, err error) {
	code := herrors.ErrorCode(err)
	if code == herrors.Unknown {
		code = herrors.FromHTTPStatus(status)
	}
	data, merr := json.Marshal(api.ErrorResponse{Error: err.Error(), Code: code.String()})
	if merr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set(contentTypeHeader, contentTypeJSON)
	w.WriteHeader(status)
	w.Write(data)
}

// statusFor returns the HTTP status matching the code of err, along with err.
func statusFor(err error) (int, error) {
	return herrors.HTTPStatus(herrors.ErrorCode(err)), err
}

func writeJSON(w http.ResponseWriter, v interface{}) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("failed to marshal response: %v", err)
	}
	w.Header().Set(contentTypeHeader, contentTypeJSON)
	if _, err := w.Write(data); err != nil {
		klog.V(1).Infof("Failed to write response: %v", err)
	}
	return http.StatusOK, nil
}

func readJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return herrors.Errorf(herrors.InvalidArgument, "failed to read request body: %v", err)
	}
	if len(body) > maxBodySize {
		return herrors.Errorf(herrors.InvalidArgument, "request body exceeds %d bytes", maxBodySize)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return herrors.Errorf(herrors.InvalidArgument, "failed to parse request body: %v", err)
	}
	return nil
}

func index(_ *Server, w http.ResponseWriter, _ *http.Request) (int, error) {
	w.Header().Set(contentTypeHeader, "text/plain; charset=utf-8")
	io.WriteString(w, "hello world.")
	return http.StatusOK, nil
}

func submit(s *Server, w http.ResponseWriter, r *http.Request) (int, error) {
	raw := r.PathValue("digest")
	if r.Method == http.MethodPost {
		var req api.SubmitRequest
		if err := readJSON(r, &req); err != nil {
			return statusFor(err)
		}
		raw = req.Digest
	}
	leaf, added, err := s.l.Submit(r.Context(), raw)
	if err != nil {
		return statusFor(err)
	}
	return writeJSON(w, api.SubmitResponse{
		Digest:    string(leaf.Digest),
		Block:     leaf.Block,
		Index:     leaf.Index,
		Duplicate: !added,
	})
}

func latestBlock(s *Server, w http.ResponseWriter, r *http.Request) (int, error) {
	n, err := s.l.OpenBlock(r.Context())
	if err != nil {
		return statusFor(err)
	}
	return writeJSON(w, api.LatestBlockResponse{Block: n})
}

func block(s *Server, w http.ResponseWriter, r *http.Request) (int, error) {
	n, err := strconv.ParseInt(r.PathValue("number"), 10, 64)
	if err != nil {
		return http.StatusBadRequest, fmt.Errorf("invalid block number %q", r.PathValue("number"))
	}
	info, err := s.l.Block(r.Context(), n)
	if err != nil {
		return statusFor(err)
	}
	rsp := api.BlockResponse{
		Block:      info.Number,
		MerkleRoot: string(info.Root),
		Sealed:     info.Sealed,
		Leaves:     make([]string, 0, len(info.Leaves)),
	}
	if info.Sealed {
		sealedAt := info.SealedAt
		rsp.SealedAt = &sealedAt
	}
	for _, d := range info.Leaves {
		rsp.Leaves = append(rsp.Leaves, string(d))
	}
	return writeJSON(w, rsp)
}

func proof(s *Server, w http.ResponseWriter, r *http.Request) (int, error) {
	format := codec.FormatJSON
	if f := r.URL.Query().Get(api.FormatParam); f != "" {
		var err error
		if format, err = codec.ParseFormat(f); err != nil {
			return http.StatusBadRequest, err
		}
	}
	ip, err := s.l.Proof(r.Context(), r.PathValue("digest"))
	if err != nil {
		return statusFor(err)
	}
	if format != codec.FormatJSON {
		data, err := codec.Marshal(ip.Proof, format)
		if err != nil {
			return http.StatusInternalServerError, fmt.Errorf("failed to encode proof: %v", err)
		}
		w.Header().Set(contentTypeHeader, format.ContentType())
		w.Write(data)
		return http.StatusOK, nil
	}
	return writeJSON(w, api.ProofResponse{
		Digest:     string(ip.Digest),
		Block:      ip.Block,
		Index:      ip.Index,
		MerkleRoot: string(ip.Root),
		Sealed:     ip.Sealed,
		Hasher:     s.l.HasherName(),
		Branches:   codec.FromProof(ip.Proof),
	})
}

func verify(s *Server, w http.ResponseWriter, r *http.Request) (int, error) {
	var req api.VerifyRequest
	if err := readJSON(r, &req); err != nil {
		return statusFor(err)
	}
	if req.Target == "" || req.Root == "" {
		return http.StatusBadRequest, errors.New("target and root are required")
	}
	ok, err := s.l.Verify(req.Target, req.Root, req.Branches)
	if err != nil {
		return statusFor(err)
	}
	return writeJSON(w, api.VerifyResponse{Valid: ok})
}
