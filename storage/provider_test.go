// Copyright 2018 Google LLC. All Rights Reserved.
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

package storage

import (
	"sort"
	"testing"

	"github.com/google/hashserv/monitoring"
)

type provider struct{}

func (p *provider) LedgerStorage() LedgerStorage { return nil }
func (p *provider) Close() error                 { return nil }

func TestProviderRegistration(t *testing.T) {
	for _, test := range []struct {
		desc    string
		reg     bool
		wantErr bool
	}{
		{desc: "works", reg: true},
		{desc: "unknown provider", wantErr: true},
	} {
		t.Run(test.desc, func(t *testing.T) {
			called := false
			name := test.desc

			if test.reg {
				if err := RegisterProvider(name, func(_ monitoring.MetricFactory) (Provider, error) {
					called = true
					return &provider{}, nil
				}); err != nil {
					t.Fatalf("RegisterProvider(): %v", err)
				}
			}

			_, err := NewProvider(name, nil)
			if gotErr := err != nil; gotErr != test.wantErr {
				t.Fatalf("NewProvider() = %v, want error: %v", err, test.wantErr)
			}
			if test.reg && !called {
				t.Fatal("Registered storage provider was not called")
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	f := func(_ monitoring.MetricFactory) (Provider, error) { return &provider{}, nil }
	if err := RegisterProvider("dup", f); err != nil {
		t.Fatalf("RegisterProvider(): %v", err)
	}
	if err := RegisterProvider("dup", f); err == nil {
		t.Error("RegisterProvider() twice succeeded, want error")
	}
}

func TestProviders(t *testing.T) {
	for _, name := range []string{"b", "a"} {
		if err := RegisterProvider(name, func(_ monitoring.MetricFactory) (Provider, error) {
			return &provider{}, nil
		}); err != nil {
			t.Fatalf("RegisterProvider(%q): %v", name, err)
		}
	}
	got := map[string]bool{}
	names := Providers()
	for _, n := range names {
		got[n] = true
	}
	if !got["a"] || !got["b"] {
		t.Errorf("Providers() = %v, want a and b included", names)
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("Providers() = %v, want sorted", names)
	}
}
