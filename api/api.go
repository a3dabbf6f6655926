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

// Package api contains the request and response types of the hashserv
// HTTP API.
package api

import (
	"time"

	"github.com/google/hashserv/merkle/codec"
)

// Paths served by hashserv.
const (
	PathSubmit      = "/api/submit"
	PathBlock       = "/api/block"
	PathLatestBlock = "/api/block/latest_block"
	PathProof       = "/api/proof"
	PathVerify      = "/api/verify"
)

// FormatParam selects the encoding of a proof response: json (the default),
// cbor or yaml. Non-JSON formats carry only the branches.
const FormatParam = "format"

// SubmitRequest is the body of a POST to PathSubmit.
type SubmitRequest struct {
	Digest string `json:"digest"`
}

// SubmitResponse reports where a digest was placed.
type SubmitResponse struct {
	Digest string `json:"digest"`
	Block  int64  `json:"block"`
	Index  int64  `json:"index"`
	// Duplicate is set when the digest had been submitted before; Block and
	// Index are those of the first submission.
	Duplicate bool `json:"duplicate"`
}

// LatestBlockResponse holds the number of the block accepting submissions.
type LatestBlockResponse struct {
	Block int64 `json:"block"`
}

// BlockResponse describes a block.
type BlockResponse struct {
	Block int64 `json:"block"`
	// MerkleRoot is provisional while the block is open, and empty for an
	// empty open block.
	MerkleRoot string     `json:"merkle_root"`
	Sealed     bool       `json:"sealed"`
	SealedAt   *time.Time `json:"sealed_at,omitempty"`
	Leaves     []string   `json:"leaves"`
}

// ProofResponse is an inclusion proof for Digest.
type ProofResponse struct {
	Digest     string         `json:"digest"`
	Block      int64          `json:"block"`
	Index      int64          `json:"index"`
	MerkleRoot string         `json:"merkle_root"`
	Sealed     bool           `json:"sealed"`
	Hasher     string         `json:"hasher,omitempty"`
	Branches   []codec.Branch `json:"branches"`
}

// VerifyRequest asks the server to check that Branches lead from Target to
// Root.
type VerifyRequest struct {
	Target   string         `json:"target"`
	Root     string         `json:"root"`
	Branches []codec.Branch `json:"branches"`
}

// VerifyResponse is the outcome of a VerifyRequest.
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
