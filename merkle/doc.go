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

// Package merkle implements the Merkle tree used to commit to a block of
// submitted digests.
//
// Leaves are digests. Each level of the tree is reduced to the next by hashing
// adjacent pairs, left to right, as Digest(left + right) where + is the
// concatenation of the two digest strings. A level of odd length pairs its
// last digest with itself. The single digest that remains is the root.
//
// This padding rule is kept for compatibility with roots that have already
// been published. It means a padding artifact cannot be told apart from a
// digest that was genuinely submitted twice, so two different leaf sequences
// can produce the same root: e.g. [a, b, c] and [a, b, c, c].
//
// Inclusion proofs are the ordered list of pairs (branches) met on the way
// from a leaf to the root. They carry no reference to the tree, and are
// verified against a root that the verifier obtained independently.
package merkle
