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

package ledger

import (
	"sync"

	"github.com/google/hashserv/monitoring"
)

const (
	outcomeLabel = "outcome"
	resultLabel  = "result"
)

var (
	once         sync.Once
	submissions  monitoring.Counter
	seals        monitoring.Counter
	sealedLeaves monitoring.Counter
	blockSize    monitoring.Histogram
	sealLatency  monitoring.Histogram
	proofLength  monitoring.Histogram
	cacheLookups monitoring.Counter

	openBlockSize     monitoring.Gauge
	latestSealedBlock monitoring.Gauge
	sealerIsMaster    monitoring.Gauge
)

func createMetrics(mf monitoring.MetricFactory) {
	if mf == nil {
		mf = monitoring.InertMetricFactory{}
	}
	submissions = mf.NewCounter("ledger_submissions", "Number of digests submitted, by outcome (added, duplicate)", outcomeLabel)
	seals = mf.NewCounter("ledger_seals", "Number of blocks sealed")
	// sealedLeaves / seals is the average block size.
	sealedLeaves = mf.NewCounter("ledger_sealed_leaves", "Number of leaves in sealed blocks")
	blockSize = mf.NewHistogramWithBuckets("ledger_sealed_block_size", "Number of leaves per sealed block", monitoring.SizeBuckets())
	sealLatency = mf.NewHistogram("ledger_seal_latency_seconds", "Time taken to compute the root of a block and seal it")
	proofLength = mf.NewHistogramWithBuckets("ledger_proof_length", "Number of branches in served inclusion proofs", monitoring.SizeBuckets())
	cacheLookups = mf.NewCounter("ledger_proof_cache_lookups", "Proof cache lookups for sealed blocks, by result (hit, miss, error)", resultLabel)
	openBlockSize = mf.NewGauge("ledger_open_block_size", "Leaves submitted through this process to the open block")
	latestSealedBlock = mf.NewGauge("ledger_latest_sealed_block", "Number of the block most recently sealed by this process")
	sealerIsMaster = mf.NewGauge("ledger_sealer_is_master", "Set to 1 while this process holds sealing mastership")
}
