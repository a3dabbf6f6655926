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

package provider

import (
	"testing"

	"github.com/google/hashserv/storage"
)

func TestDefaultProvider(t *testing.T) {
	for _, test := range []struct {
		preferred string
		providers []string
		want      string
	}{
		{preferred: "sqlite", providers: []string{"memory", "sqlite"}, want: "sqlite"},
		{preferred: "sqlite", providers: []string{"mysql", "memory"}, want: "memory"},
		{preferred: "sqlite", providers: nil, want: "sqlite"},
	} {
		if got := defaultProvider(test.preferred, test.providers); got != test.want {
			t.Errorf("defaultProvider(%q, %v) = %q, want %q", test.preferred, test.providers, got, test.want)
		}
	}
}

func TestDefaultStorageSystemIsRegistered(t *testing.T) {
	for _, p := range storage.Providers() {
		if p == DefaultStorageSystem {
			return
		}
	}
	t.Errorf("DefaultStorageSystem %q not in %v", DefaultStorageSystem, storage.Providers())
}
