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

// Package client talks to a hashserv server and verifies its proofs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/hashserv/api"
	"github.com/google/hashserv/client/backoff"
	"github.com/google/hashserv/client/timeout"
	herrors "github.com/google/hashserv/errors"
	"github.com/google/hashserv/merkle"
	"github.com/google/hashserv/merkle/codec"
	"github.com/google/hashserv/util/clock"
	"k8s.io/klog/v2"
)

// maxResponseSize bounds the bodies the client reads.
const maxResponseSize = 64 << 20

// DefaultBackoff is used for retrying transient failures unless WithBackoff
// is given.
var DefaultBackoff = backoff.Backoff{
	Min:         100 * time.Millisecond,
	Max:         5 * time.Second,
	Factor:      2,
	Jitter:      true,
	MaxAttempts: 5,
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithBackoff sets the retry policy for transient failures.
func WithBackoff(b backoff.Backoff) Option {
	return func(c *Client) { c.bo = b }
}

// WithTimeout bounds each HTTP attempt by d, independently of the deadline
// of the overall call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client is a client for a hashserv server.
type Client struct {
	base    *url.URL
	h       merkle.Hasher
	hc      *http.Client
	bo      backoff.Backoff
	timeout time.Duration
}

// Proof is a decoded inclusion proof as served by the server.
type Proof struct {
	Digest merkle.Digest
	Block  int64
	Index  int64
	Root   merkle.Digest
	Sealed bool
	Hasher string
	Proof  *merkle.Proof
}

// New returns a client for the server at baseURL, which uses hasher h.
func New(baseURL string, h merkle.Hasher, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %v", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	c := &Client{base: u, h: h, hc: http.DefaultClient, bo: DefaultBackoff}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.hc
		hc.Transport = timeout.RoundTripper(hc.Transport, c.timeout)
		c.hc = &hc
	}
	return c, nil
}

// Submit adds d to the ledger.
func (c *Client) Submit(ctx context.Context, d merkle.Digest) (*api.SubmitResponse, error) {
	var rsp api.SubmitResponse
	if err := c.do(ctx, http.MethodPost, api.PathSubmit, api.SubmitRequest{Digest: string(d)}, &rsp); err != nil {
		return nil, err
	}
	return &rsp, nil
}

// OpenBlock returns the number of the block accepting submissions.
func (c *Client) OpenBlock(ctx context.Context) (int64, error) {
	var rsp api.LatestBlockResponse
	if err := c.do(ctx, http.MethodGet, api.PathLatestBlock, nil, &rsp); err != nil {
		return 0, err
	}
	return rsp.Block, nil
}

// Block returns block n.
func (c *Client) Block(ctx context.Context, n int64) (*api.BlockResponse, error) {
	var rsp api.BlockResponse
	if err := c.do(ctx, http.MethodGet, api.PathBlock+"/"+strconv.FormatInt(n, 10), nil, &rsp); err != nil {
		return nil, err
	}
	return &rsp, nil
}

// Proof fetches the inclusion proof of d. The proof is decoded but not
// verified; see VerifyInclusion.
func (c *Client) Proof(ctx context.Context, d merkle.Digest) (*Proof, error) {
	var rsp api.ProofResponse
	if err := c.do(ctx, http.MethodGet, api.PathProof+"/"+string(d), nil, &rsp); err != nil {
		return nil, err
	}
	p, err := codec.ToProof(c.h, rsp.Branches)
	if err != nil {
		return nil, herrors.Errorf(herrors.DataLoss, "server returned a malformed proof: %w", err)
	}
	root, err := merkle.ParseDigest(c.h, rsp.MerkleRoot)
	if err != nil {
		return nil, herrors.Errorf(herrors.DataLoss, "server returned a malformed root: %w", err)
	}
	return &Proof{
		Digest: merkle.Digest(rsp.Digest),
		Block:  rsp.Block,
		Index:  rsp.Index,
		Root:   root,
		Sealed: rsp.Sealed,
		Hasher: rsp.Hasher,
		Proof:  p,
	}, nil
}

// VerifyInclusion fetches the proof of d and checks locally that it leads to
// trustedRoot. A proof which does not is reported as FailedPrecondition.
func (c *Client) VerifyInclusion(ctx context.Context, d, trustedRoot merkle.Digest) (*Proof, error) {
	p, err := c.Proof(ctx, d)
	if err != nil {
		return nil, err
	}
	if !p.Proof.Verify(d, trustedRoot) {
		return p, herrors.Errorf(herrors.FailedPrecondition, "proof of %s in block %d does not lead to trusted root %s", d, p.Block, trustedRoot)
	}
	return p, nil
}

// WaitForSeal polls until the block holding d is sealed, and returns the
// proof of d against the sealed root.
func (c *Client) WaitForSeal(ctx context.Context, d merkle.Digest) (*Proof, error) {
	b := c.bo
	ts := b.TimeSource
	if ts == nil {
		ts = clock.System
	}
	for i := 0; ; i++ {
		p, err := c.Proof(ctx, d)
		if err != nil {
			return nil, err
		}
		if p.Sealed {
			if !p.Proof.Verify(d, p.Root) {
				return nil, herrors.Errorf(herrors.DataLoss, "proof of %s does not lead to its block root %s", d, p.Root)
			}
			return p, nil
		}
		if err := clock.SleepSource(ctx, b.Duration(), ts); err != nil {
			return nil, herrors.Errorf(herrors.DeadlineExceeded, "%v. Block %d still open. Tried %v times.", err, p.Block, i+1)
		}
	}
}

// RemoteVerify asks the server to check branches against target and root.
func (c *Client) RemoteVerify(ctx context.Context, target, root merkle.Digest, branches []codec.Branch) (bool, error) {
	var rsp api.VerifyResponse
	req := api.VerifyRequest{Target: string(target), Root: string(root), Branches: branches}
	if err := c.do(ctx, http.MethodPost, api.PathVerify, req, &rsp); err != nil {
		return false, err
	}
	return rsp.Valid, nil
}

// do sends a request, retrying transport failures and 5xx responses, and
// decodes a successful JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return err
		}
	}
	u := c.base.JoinPath(path)
	b := c.bo
	err := b.Retry(ctx, func() error {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
		if err != nil {
			return backoff.Permanent(err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		rsp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			klog.V(1).Infof("%s %s: %v, retrying", method, u, err)
			return herrors.Errorf(herrors.Unavailable, "%s %s: %w", method, u, err)
		}
		defer rsp.Body.Close()
		data, err := io.ReadAll(io.LimitReader(rsp.Body, maxResponseSize))
		if err != nil {
			return herrors.Errorf(herrors.Unavailable, "%s %s: reading response: %w", method, u, err)
		}
		if rsp.StatusCode != http.StatusOK {
			err := errorFromResponse(rsp.StatusCode, data)
			if rsp.StatusCode >= http.StatusInternalServerError {
				klog.V(1).Infof("%s %s: %v, retrying", method, u, err)
				return err
			}
			return backoff.Permanent(err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(herrors.Errorf(herrors.Internal, "%s %s: bad response %q: %v", method, u, data, err))
		}
		return nil
	})
	if herrors.ErrorCode(err) == herrors.Unknown && ctx.Err() != nil {
		code := herrors.DeadlineExceeded
		if errors.Is(ctx.Err(), context.Canceled) {
			code = herrors.Canceled
		}
		return herrors.Errorf(code, "%s %s: %w", method, u, err)
	}
	return err
}

// errorFromResponse converts a failed response into a coded error.
func errorFromResponse(status int, body []byte) error {
	var er api.ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Error == "" {
		return herrors.Errorf(herrors.FromHTTPStatus(status), "HTTP %d: %s", status, bytes.TrimSpace(body))
	}
	code, ok := herrors.ParseCode(er.Code)
	if !ok {
		code = herrors.FromHTTPStatus(status)
	}
	return herrors.New(code, er.Error)
}
