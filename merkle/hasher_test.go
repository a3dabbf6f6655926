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

package merkle_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/hashserv/merkle"
)

func TestParseDigest(t *testing.T) {
	valid := strings.Repeat("ab", 8)
	for _, tc := range []struct {
		desc    string
		in      string
		want    merkle.Digest
		wantErr bool
	}{
		{desc: "lowercase", in: valid, want: merkle.Digest(valid)},
		{desc: "uppercase is canonicalised", in: strings.ToUpper(valid), want: merkle.Digest(valid)},
		{desc: "mixed digits", in: "0123456789abcdef", want: "0123456789abcdef"},
		{desc: "empty", in: "", wantErr: true},
		{desc: "too short", in: valid[1:], wantErr: true},
		{desc: "too long", in: valid + "0", wantErr: true},
		{desc: "not hex", in: "0123456789abcdeg", wantErr: true},
		{desc: "base58 letter", in: "0123456789abcdeZ", wantErr: true},
		{desc: "multibyte", in: "0123456789abcdé", wantErr: true},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := merkle.ParseDigest(toy, tc.in)
			if gotErr := err != nil; gotErr != tc.wantErr {
				t.Fatalf("ParseDigest(%q) = %q, %v; wantErr %v", tc.in, got, err, tc.wantErr)
			}
			if err != nil {
				var mde *merkle.MalformedDigestError
				if !errors.As(err, &mde) {
					t.Errorf("ParseDigest(%q) error %T is not a *MalformedDigestError", tc.in, err)
				} else if mde.Value != tc.in {
					t.Errorf("MalformedDigestError.Value = %q, want %q", mde.Value, tc.in)
				}
				return
			}
			if got != tc.want {
				t.Errorf("ParseDigest(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestBranch(t *testing.T) {
	l, r := toy.Digest([]byte("l")), toy.Digest([]byte("r"))
	b := merkle.NewBranch(toy, l, r)
	if !b.Contains(l) || !b.Contains(r) {
		t.Errorf("Contains() = false for a member of (%s, %s)", l, r)
	}
	if b.Contains(toy.Digest([]byte("x"))) {
		t.Error("Contains() = true for a non-member")
	}
	if got, want := b.Parent(), toy.Digest([]byte(string(l)+string(r))); got != want {
		t.Errorf("Parent() = %s, want %s", got, want)
	}
	if swapped := merkle.NewBranch(toy, r, l); swapped.Parent() == b.Parent() {
		t.Error("Parent() does not depend on the order of the pair")
	}
}

func TestBranchLiteral(t *testing.T) {
	l, r := toy.Digest([]byte("l")), toy.Digest([]byte("r"))
	want := merkle.NewBranch(toy, l, r).Parent()

	p := merkle.NewProof(toy, merkle.Branch{Left: l, Right: r})
	if got := p.Branches()[0].Parent(); got != want {
		t.Errorf("Parent() of a literal added to a proof = %s, want %s", got, want)
	}
	if !p.Verify(l, want) {
		t.Error("Verify() of a proof built from literals = false")
	}

	defer func() {
		if recover() == nil {
			t.Error("Parent() of a bare literal did not panic")
		}
	}()
	merkle.Branch{Left: l, Right: r}.Parent()
}
