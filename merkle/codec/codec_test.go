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

package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/hashserv/merkle"
	"github.com/google/hashserv/merkle/hashers"
	"github.com/google/hashserv/merkle/testonly"
)

func buildProof(t *testing.T, h merkle.Hasher, n, target int) (*merkle.Proof, merkle.Digest, merkle.Digest) {
	t.Helper()
	leaves := testonly.Digests(h, n)
	tree := merkle.NewTree(h, leaves)
	root, err := tree.Root()
	if err != nil {
		t.Fatalf("Root(): %v", err)
	}
	p, err := tree.Proof(leaves[target])
	if err != nil {
		t.Fatalf("Proof(): %v", err)
	}
	return p, leaves[target], root
}

func TestRoundTrip(t *testing.T) {
	h := hashers.Default()
	for _, f := range []Format{FormatJSON, FormatCBOR, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			for _, n := range []int{1, 2, 5, 8} {
				p, target, root := buildProof(t, h, n, n-1)
				data, err := Marshal(p, f)
				if err != nil {
					t.Fatalf("Marshal(): %v", err)
				}
				got, err := Unmarshal(data, f, h)
				if err != nil {
					t.Fatalf("Unmarshal(): %v", err)
				}
				if diff := cmp.Diff(FromProof(p), FromProof(got)); diff != "" {
					t.Errorf("n=%d: round trip diff (-want +got):\n%s", n, diff)
				}
				if !got.Verify(target, root) {
					t.Errorf("n=%d: decoded proof does not verify", n)
				}
			}
		})
	}
}

func TestJSONShape(t *testing.T) {
	h := testonly.ToyHasher{}
	l, r := h.Digest([]byte("l")), h.Digest([]byte("r"))
	p := merkle.NewProof(h, merkle.NewBranch(h, l, r))
	data, err := Marshal(p, FormatJSON)
	if err != nil {
		t.Fatalf("Marshal(): %v", err)
	}
	want := `[{"left":"` + string(l) + `","right":"` + string(r) + `"}]`
	if got := string(data); got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestCBORDeterministic(t *testing.T) {
	h := hashers.Default()
	p, _, _ := buildProof(t, h, 9, 3)
	a, err := Marshal(p, FormatCBOR)
	if err != nil {
		t.Fatalf("Marshal(): %v", err)
	}
	b, err := Marshal(merkle.NewProof(h, p.Branches()...), FormatCBOR)
	if err != nil {
		t.Fatalf("Marshal(): %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("equal proofs encoded differently: %x != %x", a, b)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	h := testonly.ToyHasher{}
	good := string(h.Digest([]byte("x")))
	for _, tc := range []struct {
		desc      string
		data      string
		f         Format
		malformed bool
	}{
		{desc: "not json", data: "{", f: FormatJSON},
		{desc: "short digest", data: `[{"left":"abc","right":"` + good + `"}]`, f: FormatJSON, malformed: true},
		{desc: "non hex digest", data: `[{"left":"` + good + `","right":"zzzzzzzzzzzzzzzz"}]`, f: FormatJSON, malformed: true},
		{desc: "unknown yaml field", data: "- left: " + good + "\n  right: " + good + "\n  middle: x\n", f: FormatYAML},
		{desc: "bad cbor", data: "\xff\x00", f: FormatCBOR},
		{desc: "unknown format", data: "[]", f: Format("xml")},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			p, err := Unmarshal([]byte(tc.data), tc.f, h)
			if err == nil {
				t.Fatalf("Unmarshal() = %v, nil; want error", p)
			}
			var mde *merkle.MalformedDigestError
			if got := errors.As(err, &mde); got != tc.malformed {
				t.Errorf("Unmarshal() error %v: MalformedDigestError = %v, want %v", err, got, tc.malformed)
			}
		})
	}
}

func TestToProofNormalizesCase(t *testing.T) {
	h := hashers.Default()
	p, target, root := buildProof(t, h, 5, 2)
	var upper []Branch
	for _, b := range FromProof(p) {
		upper = append(upper, Branch{Left: strings.ToUpper(b.Left), Right: strings.ToUpper(b.Right)})
	}
	got, err := ToProof(h, upper)
	if err != nil {
		t.Fatalf("ToProof(): %v", err)
	}
	if diff := cmp.Diff(FromProof(p), FromProof(got)); diff != "" {
		t.Errorf("ToProof() of uppercase branches diff (-want +got):\n%s", diff)
	}
	if !got.Verify(target, root) {
		t.Error("proof decoded from uppercase branches does not verify")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "json": FormatJSON, "cbor": FormatCBOR, "yaml": FormatYAML} {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q, nil", in, got, err, want)
		}
	}
	if got, err := ParseFormat("protobuf"); err == nil {
		t.Errorf("ParseFormat(protobuf) = %q, nil; want error", got)
	}
}
