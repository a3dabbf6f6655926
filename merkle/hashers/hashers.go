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

// Package hashers provides named digest strategies for Merkle trees.
package hashers

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"sync"

	"github.com/google/hashserv/merkle"
	"github.com/transparency-dev/merkle/rfc6962"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Names of the built-in strategies.
const (
	SHA256        = "SHA256"
	SHA512_256    = "SHA512_256"
	SHA3_256      = "SHA3_256"
	BLAKE2B_256   = "BLAKE2B_256"
	RFC6962SHA256 = "RFC6962_SHA256"
)

var (
	mu       sync.RWMutex
	registry = make(map[string]merkle.Hasher)
)

func init() {
	Register(SHA256, hexHasher{newHash: sha256.New, size: sha256.Size})
	Register(SHA512_256, hexHasher{newHash: sha512.New512_256, size: sha512.Size256})
	Register(SHA3_256, hexHasher{newHash: sha3.New256, size: 32})
	Register(BLAKE2B_256, hexHasher{newHash: newBLAKE2b256, size: blake2b.Size256})
	Register(RFC6962SHA256, rfc6962Leaf{})
}

// Register makes h available under name. It panics if name is empty or
// already registered.
func Register(name string, h merkle.Hasher) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		panic("hashers: Register with empty name")
	}
	if registry[name] != nil {
		panic(fmt.Sprintf("hashers: %s already registered", name))
	}
	registry[name] = h
}

// New returns the hasher registered under name.
func New(name string) (merkle.Hasher, error) {
	mu.RLock()
	defer mu.RUnlock()
	if h := registry[name]; h != nil {
		return h, nil
	}
	return nil, fmt.Errorf("hasher %q is unknown", name)
}

// Names returns the sorted names of all registered hashers.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Default returns the SHA256 hasher.
func Default() merkle.Hasher {
	h, err := New(SHA256)
	if err != nil {
		panic(err)
	}
	return h
}

// hexHasher hex encodes the output of a hash.Hash.
type hexHasher struct {
	newHash func() hash.Hash
	size    int
}

func (h hexHasher) Digest(data []byte) merkle.Digest {
	s := h.newHash()
	s.Write(data)
	return merkle.Digest(hex.EncodeToString(s.Sum(nil)))
}

func (h hexHasher) Size() int {
	return 2 * h.size
}

func newBLAKE2b256() hash.Hash {
	// New256 only fails for keys longer than 64 bytes.
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	return h
}

// rfc6962Leaf digests data as an RFC 6962 leaf: SHA256(0x00 || data).
type rfc6962Leaf struct{}

func (rfc6962Leaf) Digest(data []byte) merkle.Digest {
	return merkle.Digest(hex.EncodeToString(rfc6962.DefaultHasher.HashLeaf(data)))
}

func (rfc6962Leaf) Size() int {
	return 2 * rfc6962.DefaultHasher.Size()
}
