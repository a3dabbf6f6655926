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

// Package testonly contains code and data for testing Merkle trees.
package testonly

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/fnv"

	"github.com/google/hashserv/merkle"
)

// ToyHasher is a fast, non-cryptographic Hasher producing 16 character
// digests. It is only suitable for tests.
type ToyHasher struct{}

// Digest returns the hex encoded FNV-1a hash of data.
func (ToyHasher) Digest(data []byte) merkle.Digest {
	f := fnv.New64a()
	f.Write(data)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], f.Sum64())
	return merkle.Digest(hex.EncodeToString(buf[:]))
}

// Size returns 16.
func (ToyHasher) Size() int {
	return 16
}

// LeafContent returns the content of the i-th test leaf.
func LeafContent(i int) []byte {
	return []byte(fmt.Sprintf("leaf-%d", i))
}

// Digests returns the digests of the first n test leaves.
func Digests(h merkle.Hasher, n int) []merkle.Digest {
	ds := make([]merkle.Digest, 0, n)
	for i := 0; i < n; i++ {
		ds = append(ds, h.Digest(LeafContent(i)))
	}
	return ds
}
