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

// The hashserv binary accepts digests over HTTP, seals them into blocks
// under Merkle roots and serves inclusion proofs.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/hashserv/cmd"
	"github.com/google/hashserv/cmd/internal/provider"
	"github.com/google/hashserv/cmd/internal/serverutil"
	"github.com/google/hashserv/ledger"
	"github.com/google/hashserv/merkle/hashers"
	"github.com/google/hashserv/monitoring/opencensus"
	"github.com/google/hashserv/monitoring/prometheus"
	"github.com/google/hashserv/server"
	"github.com/google/hashserv/storage"
	"github.com/google/hashserv/storage/cache"
	"github.com/google/hashserv/util/clock"
	"github.com/google/hashserv/util/election"
	"github.com/google/hashserv/util/election/etcd"
	"k8s.io/klog/v2"
)

var (
	httpEndpoint   = flag.String("http_endpoint", "localhost:8080", "Endpoint for HTTP (host:port)")
	tlsCertFile    = flag.String("tls_cert_file", "", "Path to the TLS server certificate. If unset, the server will use unsecured connections.")
	tlsKeyFile     = flag.String("tls_key_file", "", "Path to the TLS server key. If unset, the server will use unsecured connections.")
	healthzTimeout = flag.Duration("healthz_timeout", time.Second*5, "Timeout used during healthz checks")

	storageSystem = flag.String("storage_system", provider.DefaultStorageSystem, fmt.Sprintf("Storage system to use. One of: %v", storage.Providers()))
	hasherName    = flag.String("hasher", hashers.SHA256, fmt.Sprintf("Digest function for leaves and Merkle parents. One of: %v", hashers.Names()))
	parallelism   = flag.Int("parallelism", 0, "Maximum workers hashing one level of a large tree; 0 or less means GOMAXPROCS")

	sealInterval     = flag.Duration("seal_interval", time.Minute, "Longest time a non-empty block stays open; 0 disables time-based sealing")
	maxBlockSize     = flag.Int64("max_block_size", 0, "Seal the open block once it holds this many leaves; 0 disables size-based sealing")
	sealPollInterval = flag.Duration("seal_poll_interval", ledger.DefaultPollInterval, "Time between checks of the open block")

	etcdServers  = flag.String("etcd_servers", "", "A comma-separated list of etcd servers electing the replica that seals blocks; empty means this replica always seals")
	lockFilePath = flag.String("lock_file_path", "/hashserv/election", "etcd lock file directory path")

	redisAddr     = flag.String("redis_addr", "", "Address (host:port) of a Redis server caching proofs of sealed leaves; empty disables caching")
	redisPrefix   = flag.String("redis_prefix", "hashserv", "Prefix of proof cache keys")
	proofCacheTTL = flag.Duration("proof_cache_ttl", 24*time.Hour, "Lifetime of cached proofs; 0 means no expiry")

	tracing          = flag.Bool("tracing", false, "If true opencensus Stackdriver tracing will be enabled")
	tracingProjectID = flag.String("tracing_project_id", "", "project ID to pass to stackdriver. Can be empty for GCP, consult docs for other platforms.")
	tracingPercent   = flag.Int("tracing_percent", 0, "Percent of requests to be traced. Zero is a special case to use the DefaultSampler")

	configFile = flag.String("config", "", "Config file containing flags, file contents can be overridden by command line flags")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if *configFile != "" {
		if err := cmd.ParseFlagFile(*configFile); err != nil {
			klog.Exitf("Failed to load flags from config file %q: %s", *configFile, err)
		}
	}

	klog.CopyStandardLogTo("WARNING")
	klog.Info("**** hashserv Starting ****")

	mf := prometheus.MetricFactory{Prefix: "hashserv_"}

	h, err := hashers.New(*hasherName)
	if err != nil {
		klog.Exitf("Failed to get hasher: %v", err)
	}

	sp, err := storage.NewProvider(*storageSystem, mf)
	if err != nil {
		klog.Exitf("Failed to get storage provider: %v", err)
	}
	ls := sp.LedgerStorage()

	var pc cache.ProofCache = cache.NoopCache{}
	if *redisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer rc.Close()
		pc = cache.NewRedis(rc, *redisPrefix+":"+*hasherName, *proofCacheTTL)
		klog.Infof("Caching proofs in Redis at %s", *redisAddr)
	}

	l, err := ledger.New(ledger.Options{
		Storage:       ls,
		Hasher:        h,
		HasherName:    *hasherName,
		Cache:         pc,
		TimeSource:    clock.System,
		MetricFactory: mf,
		Parallelism:   *parallelism,
	})
	if err != nil {
		klog.Exitf("Failed to create ledger: %v", err)
	}
	sealer := ledger.NewSealer(l, ledger.SealerOptions{
		Interval:     *sealInterval,
		MaxBlockSize: *maxBlockSize,
		PollInterval: *sealPollInterval,
		TimeSource:   clock.System,
	})

	var electionFactory election.Factory = election.NoopFactory{}
	if *etcdServers != "" {
		client, err := etcd.NewClient(*etcdServers)
		if err != nil {
			klog.Exitf("Failed to connect to etcd at %v: %v", *etcdServers, err)
		}
		defer client.Close()
		hostname, _ := os.Hostname()
		instanceID := fmt.Sprintf("%s.%d", hostname, os.Getpid())
		electionFactory = etcd.NewFactory(instanceID, client, *lockFilePath)
		klog.Infof("Sealing only while elected through etcd at %s as %s", *etcdServers, instanceID)
	}
	runSealer := func(ctx context.Context) {
		e, err := electionFactory.NewElection(ctx, "sealer")
		if err != nil {
			klog.Exitf("Failed to create sealer election: %v", err)
		}
		sealer.RunAsMaster(ctx, e)
	}

	var handler http.Handler = server.New(l, mf, clock.System)
	if *tracing {
		if handler, err = opencensus.EnableHTTPServerTracing(*tracingProjectID, *tracingPercent, handler); err != nil {
			klog.Exitf("Failed to initialize stackdriver / opencensus tracing: %v", err)
		}
	}

	m := serverutil.Main{
		HTTPEndpoint:    *httpEndpoint,
		TLSCertFile:     *tlsCertFile,
		TLSKeyFile:      *tlsKeyFile,
		Handler:         handler,
		DBClose:         sp.Close,
		IsHealthy:       ls.CheckDatabaseAccessible,
		HealthyDeadline: *healthzTimeout,
		Background:      []func(context.Context){runSealer},
	}
	if err := m.Run(context.Background()); err != nil {
		klog.Exitf("Server exited with error: %v", err)
	}
}
