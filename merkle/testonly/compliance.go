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

package testonly

import (
	"testing"

	"github.com/google/hashserv/merkle"
)

// CheckHasher runs the checks every merkle.Hasher must pass.
func CheckHasher(t *testing.T, h merkle.Hasher) {
	t.Helper()

	t.Run("deterministic", func(t *testing.T) {
		for _, in := range [][]byte{nil, {}, []byte("hello"), LeafContent(42)} {
			if a, b := h.Digest(in), h.Digest(in); a != b {
				t.Errorf("Digest(%q) = %s then %s", in, a, b)
			}
		}
	})

	t.Run("fixed length hex", func(t *testing.T) {
		for i := 0; i < 16; i++ {
			d := h.Digest(LeafContent(i))
			if len(d) != h.Size() {
				t.Errorf("len(Digest(%q)) = %d, want %d", LeafContent(i), len(d), h.Size())
			}
			if got, err := merkle.ParseDigest(h, string(d)); err != nil || got != d {
				t.Errorf("ParseDigest(%s) = %s, %v; want %s, nil", d, got, err, d)
			}
		}
	})

	t.Run("distinct inputs", func(t *testing.T) {
		seen := make(map[merkle.Digest]int)
		for i, d := range Digests(h, 64) {
			if j, ok := seen[d]; ok {
				t.Fatalf("leaves %d and %d share digest %s", j, i, d)
			}
			seen[d] = i
		}
	})

	t.Run("order sensitive children", func(t *testing.T) {
		ds := Digests(h, 2)
		if merkle.HashChildren(h, ds[0], ds[1]) == merkle.HashChildren(h, ds[1], ds[0]) {
			t.Errorf("HashChildren does not depend on the order of children")
		}
	})
}
