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

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type sha256Hex struct{}

func (sha256Hex) Digest(data []byte) Digest {
	s := sha256.Sum256(data)
	return Digest(hex.EncodeToString(s[:]))
}

func (sha256Hex) Size() int { return 64 }

func TestReduceLevelDoesNotModifyInput(t *testing.T) {
	h := sha256Hex{}
	level := make([]Digest, 3, 8)
	for i := range level {
		level[i] = h.Digest([]byte{byte(i)})
	}
	spare := level[:cap(level)]
	want := append([]Digest(nil), spare...)

	next := reduceLevel(h, level, 1)
	if got := len(next); got != 2 {
		t.Fatalf("len(reduceLevel()) = %d, want 2", got)
	}
	if diff := cmp.Diff(want, spare); diff != "" {
		t.Errorf("reduceLevel() modified its input (-want +got):\n%s", diff)
	}
	if got, want := next[1], HashChildren(h, level[2], level[2]); got != want {
		t.Errorf("padded parent = %s, want %s", got, want)
	}
}

func TestFindBranch(t *testing.T) {
	h := sha256Hex{}
	level := []Digest{h.Digest([]byte("a")), h.Digest([]byte("b")), h.Digest([]byte("c"))}
	for _, tc := range []struct {
		target      Digest
		left, right Digest
	}{
		{target: level[0], left: level[0], right: level[1]},
		{target: level[1], left: level[0], right: level[1]},
		{target: level[2], left: level[2], right: level[2]},
	} {
		b, err := findBranch(h, level, tc.target)
		if err != nil {
			t.Fatalf("findBranch(%s): %v", tc.target, err)
		}
		if b.Left != tc.left || b.Right != tc.right {
			t.Errorf("findBranch(%s) = (%s, %s), want (%s, %s)", tc.target, b.Left, b.Right, tc.left, tc.right)
		}
	}

	if _, err := findBranch(h, level, h.Digest([]byte("d"))); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("findBranch(absent) = %v, want ErrTargetNotFound", err)
	}
}
