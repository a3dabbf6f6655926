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

// Package etcd provides master election based on etcd.
package etcd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/hashserv/util/election"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
	"k8s.io/klog/v2"
)

// DialTimeout bounds the initial connection made by NewClient.
const DialTimeout = 5 * time.Second

// Election is an election.Election based on etcd.
type Election struct {
	resourceID string
	instanceID string
	lockFile   string

	session  *concurrency.Session
	election *concurrency.Election
}

// Await blocks until the instance captures mastership.
func (e *Election) Await(ctx context.Context) error {
	return e.election.Campaign(ctx, e.instanceID)
}

// WithMastership returns a context which remains active until the instance
// stops being the master, or ctx is canceled.
func (e *Election) WithMastership(ctx context.Context) (context.Context, error) {
	cctx, cancel := context.WithCancel(ctx)
	ch := e.election.Observe(cctx)
	// The revision at which e became the master.
	etcdRev := e.election.Rev()

	select {
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	case rsp, ok := <-ch:
		if !ok || len(rsp.Kvs) == 0 || rsp.Kvs[0].CreateRevision != etcdRev {
			// Overtaken in the meantime, or never captured.
			cancel()
			return cctx, nil
		}
	}

	go func() {
		defer func() {
			cancel()
			klog.Infof("%s: canceled mastership context", e.resourceID)
		}()
		for rsp := range ch {
			if len(rsp.Kvs) == 0 || rsp.Kvs[0].CreateRevision != etcdRev {
				if len(rsp.Kvs) > 0 {
					klog.Warningf("%s: mastership overtaken by %s", e.resourceID, rsp.Kvs[0].Value)
				}
				break
			}
		}
	}()
	return cctx, nil
}

// Resign releases mastership for this instance. The instance can be elected
// again using Await. Idempotent.
func (e *Election) Resign(ctx context.Context) error {
	return e.election.Resign(ctx)
}

// Close resigns and permanently stops participating in election. No other
// method should be called after Close.
func (e *Election) Close(ctx context.Context) error {
	if err := e.Resign(ctx); err != nil && !errors.Is(err, concurrency.ErrElectionNotLeader) {
		klog.Errorf("%s: Resign(): %v", e.resourceID, err)
	}
	// Closing the session revokes its lease, which deletes the election keys
	// even if Resign failed.
	return e.session.Close()
}

// Factory creates etcd Elections.
type Factory struct {
	client     *clientv3.Client
	instanceID string
	lockDir    string
}

// NewFactory builds an election factory that uses the given parameters. The
// passed in etcd client should remain valid for the lifetime of the object.
func NewFactory(instanceID string, client *clientv3.Client, lockDir string) *Factory {
	return &Factory{
		client:     client,
		instanceID: instanceID,
		lockDir:    lockDir,
	}
}

// NewElection creates an Election for resourceID with its own session.
func (f *Factory) NewElection(ctx context.Context, resourceID string) (election.Election, error) {
	session, err := concurrency.NewSession(f.client, concurrency.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd session: %v", err)
	}
	lockFile := fmt.Sprintf("%s/%s", strings.TrimRight(f.lockDir, "/"), resourceID)
	el := &Election{
		resourceID: resourceID,
		instanceID: f.instanceID,
		lockFile:   lockFile,
		session:    session,
		election:   concurrency.NewElection(session, lockFile),
	}
	klog.Infof("Election created: resource=%s instance=%s lock=%s", resourceID, f.instanceID, lockFile)
	return el, nil
}

// NewClient connects to the comma-separated etcd endpoints in servers.
func NewClient(servers string) (*clientv3.Client, error) {
	if servers == "" {
		return nil, errors.New("no etcd servers")
	}
	return clientv3.New(clientv3.Config{
		Endpoints:   strings.Split(servers, ","),
		DialTimeout: DialTimeout,
	})
}
