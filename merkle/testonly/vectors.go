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

import "github.com/google/hashserv/merkle"

// SHA256Roots returns the roots of trees built from the first n test leaves,
// keyed by n, with the SHA256 strategy. They were produced by the service this
// package replaces and must never change.
func SHA256Roots() map[int]merkle.Digest {
	return map[int]merkle.Digest{
		1: "d2dbf006f96dd05044a8f63d8f118f23925ba4cc5750f8b6c8e287fd506c8188",
		2: "980cf4c37f098c84759e9e66592cd515f70dc326e907370ff2f0715bb763e3cc",
		3: "265ff079294e0d2784c62727e50fa04e8ca20518b21f66b6502f53f54983f42e",
		4: "a1f8a519d07b6d53d24b4b4d3e61d60bbc52f3360ad15e0ec858c82b5a01ec95",
		5: "fa57cc22cac0962c44e370f83bcc1637a3b93a62bfe42498a67c1fd49690ceba",
		7: "2ab53b0aeeebf193ced8895744e3f753b18bb3190b88d95bd64954a81430a494",
		8: "aaba5dcd52c46c81a743ccebecbaa9494ca0b13befaa4b7dbe603104c4e7dea0",
	}
}

// SHA256ProofOfLeaf2 returns the (left, right) pairs of the proof for the
// third of four test leaves under SHA256.
func SHA256ProofOfLeaf2() [][2]merkle.Digest {
	return [][2]merkle.Digest{
		{"649837ddcb7e1967086d7d35aaef7b975c513815d96fc6e70015e93a2bfe0f9a", "9fde56c376760bd399b82eb8569229a2dff19219411ac71154dfeab2cf502454"},
		{"980cf4c37f098c84759e9e66592cd515f70dc326e907370ff2f0715bb763e3cc", "ff1eb97a52f05c8334488304b31bec392a979f395e8840ba97c714efbb8a63ac"},
	}
}
