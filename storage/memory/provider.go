// Copyright 2017 Google LLC. All Rights Reserved.
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

package memory

import (
	"github.com/google/hashserv/monitoring"
	"github.com/google/hashserv/storage"
	"k8s.io/klog/v2"
)

// StorageProviderName is the name under which this backend is registered.
const StorageProviderName = "memory"

func init() {
	if err := storage.RegisterProvider(StorageProviderName, newMemoryStorageProvider); err != nil {
		klog.Fatalf("Failed to register storage provider memory: %v", err)
	}
}

type memProvider struct {
	ls *LedgerStorage
}

func newMemoryStorageProvider(_ monitoring.MetricFactory) (storage.Provider, error) {
	return &memProvider{ls: NewLedgerStorage()}, nil
}

func (s *memProvider) LedgerStorage() storage.LedgerStorage {
	return s.ls
}

func (s *memProvider) Close() error {
	return nil
}
