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

// Branch is an ordered pair of adjacent digests at one level of a tree.
// Parent needs a hasher, so branches are made with NewBranch or by appending
// a Branch literal to a Proof, which sets the proof's hasher.
type Branch struct {
	Left, Right Digest

	hasher Hasher
}

// NewBranch returns the branch (left, right) whose parent is computed with h.
func NewBranch(h Hasher, left, right Digest) Branch {
	return Branch{Left: left, Right: right, hasher: h}
}

// Parent returns the digest of the branch's left digest followed by its right
// digest. It panics if b has no hasher.
func (b Branch) Parent() Digest {
	if b.hasher == nil {
		panic("merkle: Parent of a Branch made without NewBranch or a Proof")
	}
	return HashChildren(b.hasher, b.Left, b.Right)
}

// Contains reports whether d is either side of the branch.
func (b Branch) Contains(d Digest) bool {
	return b.Left == d || b.Right == d
}
