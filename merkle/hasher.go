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
	"fmt"
	"strings"
)

// Digest is the fixed-length, lowercase hexadecimal output of a Hasher.
type Digest string

// Hasher maps a byte sequence to a Digest. Implementations must be
// deterministic, produce digests of exactly Size() characters, and be safe for
// concurrent use.
type Hasher interface {
	// Digest returns the digest of data.
	Digest(data []byte) Digest
	// Size is the length of every digest in characters.
	Size() int
}

// HashChildren returns the parent of the ordered pair (left, right).
func HashChildren(h Hasher, left, right Digest) Digest {
	buf := make([]byte, 0, len(left)+len(right))
	buf = append(buf, left...)
	buf = append(buf, right...)
	return h.Digest(buf)
}

// MalformedDigestError is returned for a value which is not a well-formed
// digest for a particular Hasher.
type MalformedDigestError struct {
	Value  string
	Reason string
}

func (e *MalformedDigestError) Error() string {
	return fmt.Sprintf("malformed digest %q: %s", e.Value, e.Reason)
}

// ParseDigest checks that s is a hex string of the length produced by h and
// returns it as a Digest in lowercase.
func ParseDigest(h Hasher, s string) (Digest, error) {
	if got, want := len(s), h.Size(); got != want {
		return "", &MalformedDigestError{Value: s, Reason: fmt.Sprintf("got %d characters, want %d", got, want)}
	}
	for i := 0; i < len(s); i++ {
		if !isHex(s[i]) {
			return "", &MalformedDigestError{Value: s, Reason: fmt.Sprintf("invalid character %q at offset %d", s[i], i)}
		}
	}
	return Digest(strings.ToLower(s)), nil
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}
