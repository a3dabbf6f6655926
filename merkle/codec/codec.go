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

// Package codec converts inclusion proofs to and from their wire forms.
//
// On the wire a proof is the ordered list of its branches, leaf level first,
// each branch being the (left, right) pair exactly as it appeared in the tree.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/hashserv/merkle"
	"gopkg.in/yaml.v2"
)

// Format is a wire encoding for proofs.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
	FormatYAML Format = "yaml"
)

// ParseFormat returns the Format named s. The empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCBOR, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown proof format %q", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCBOR:
		return "application/cbor"
	case FormatYAML:
		return "application/yaml"
	}
	return "application/json"
}

// Branch is the wire form of a merkle.Branch.
type Branch struct {
	Left  string `json:"left" yaml:"left" cbor:"1,keyasint"`
	Right string `json:"right" yaml:"right" cbor:"2,keyasint"`
}

// cborEnc encodes deterministically so equal proofs have equal encodings.
var cborEnc = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// FromProof returns the wire branches of p.
func FromProof(p *merkle.Proof) []Branch {
	bs := make([]Branch, 0, p.Len())
	for _, b := range p.Branches() {
		bs = append(bs, Branch{Left: string(b.Left), Right: string(b.Right)})
	}
	return bs
}

// ToProof builds a proof from wire branches. Every digest must be well formed
// for h.
func ToProof(h merkle.Hasher, bs []Branch) (*merkle.Proof, error) {
	p := merkle.NewProof(h)
	for i, b := range bs {
		left, err := merkle.ParseDigest(h, b.Left)
		if err != nil {
			return nil, fmt.Errorf("branch %d left: %w", i, err)
		}
		right, err := merkle.ParseDigest(h, b.Right)
		if err != nil {
			return nil, fmt.Errorf("branch %d right: %w", i, err)
		}
		p.Append(merkle.NewBranch(h, left, right))
	}
	return p, nil
}

// Marshal encodes p in format f.
func Marshal(p *merkle.Proof, f Format) ([]byte, error) {
	bs := FromProof(p)
	switch f {
	case FormatJSON:
		return json.Marshal(bs)
	case FormatCBOR:
		return cborEnc.Marshal(bs)
	case FormatYAML:
		return yaml.Marshal(bs)
	}
	return nil, fmt.Errorf("unknown proof format %q", f)
}

// Unmarshal decodes a proof in format f whose parents are computed with h.
func Unmarshal(data []byte, f Format, h merkle.Hasher) (*merkle.Proof, error) {
	var bs []Branch
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &bs)
	case FormatCBOR:
		err = cbor.Unmarshal(data, &bs)
	case FormatYAML:
		err = yaml.UnmarshalStrict(data, &bs)
	default:
		return nil, fmt.Errorf("unknown proof format %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s proof: %w", f, err)
	}
	return ToProof(h, bs)
}
