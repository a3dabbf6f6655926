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

// Package provider links in the storage backends selected at build time and
// picks the default one. Building with one of the tags crdb, mysql,
// postgresql or sqlite links in only that backend; by default all of them
// are. The in-memory backend is always available.
package provider

import (
	"slices"

	"github.com/google/hashserv/storage"

	_ "github.com/google/hashserv/storage/memory"
)

// DefaultStorageSystem is the storage system used when none is specified.
var DefaultStorageSystem string

func init() {
	DefaultStorageSystem = defaultProvider("sqlite", storage.Providers())
}

// defaultProvider returns preferred if it is one of providers, and otherwise
// the first of providers in sorted order.
func defaultProvider(preferred string, providers []string) string {
	if len(providers) > 0 && !slices.Contains(providers, preferred) {
		slices.Sort(providers)
		return providers[0]
	}
	return preferred
}
