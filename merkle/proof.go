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

package merkle

// Proof is an inclusion proof: the branches met on the path from a leaf to the
// root, leaf level first.
type Proof struct {
	hasher   Hasher
	branches []Branch
}

// NewProof returns a proof made of the given branches. Parents are computed
// with h.
func NewProof(h Hasher, branches ...Branch) *Proof {
	p := &Proof{hasher: h, branches: make([]Branch, 0, len(branches))}
	for _, b := range branches {
		p.Append(b)
	}
	return p
}

// Append adds b as the highest branch of the proof.
func (p *Proof) Append(b Branch) {
	b.hasher = p.hasher
	p.branches = append(p.branches, b)
}

// Len returns the number of branches in the proof.
func (p *Proof) Len() int {
	return len(p.branches)
}

// Branches returns a copy of the proof's branches, leaf level first.
func (p *Proof) Branches() []Branch {
	return append([]Branch(nil), p.branches...)
}

// Hasher returns the hasher the proof computes parents with.
func (p *Proof) Hasher() Hasher {
	return p.hasher
}

// Verify replays the proof from target and reports whether it ends at
// expectedRoot. Every branch must contain the digest produced by the branches
// below it, starting with target itself.
func (p *Proof) Verify(target, expectedRoot Digest) bool {
	running := target
	for _, b := range p.branches {
		if !b.Contains(running) {
			return false
		}
		running = b.Parent()
	}
	return running == expectedRoot
}
