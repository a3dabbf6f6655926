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

package coresql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDollarPlaceholders(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{in: "SELECT 1", want: "SELECT 1"},
		{in: selectLeafSQL, want: "SELECT BlockNumber, LeafIndex, SubmittedAtNanos FROM Leaves WHERE Digest = $1"},
		{in: "VALUES(?, ?, ?)", want: "VALUES($1, $2, $3)"},
	} {
		if got := DollarPlaceholders(tc.in); got != tc.want {
			t.Errorf("DollarPlaceholders(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements()
	var tables []string
	for _, s := range stmts {
		if !strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS ") {
			t.Errorf("unexpected statement %q", s)
			continue
		}
		name := strings.TrimPrefix(s, "CREATE TABLE IF NOT EXISTS ")
		tables = append(tables, name[:strings.Index(name, "(")])
		if strings.Contains(s, "--") {
			t.Errorf("statement %q contains a comment", s)
		}
	}
	if diff := cmp.Diff([]string{"Leaves", "Blocks"}, tables); diff != "" {
		t.Errorf("tables diff (-want +got):\n%s", diff)
	}
}

var (
	errDup   = errors.New("duplicate")
	errRetry = errors.New("deadlock")
)

// fakeDialect runs fn with a nil transaction and classifies the sentinels.
type fakeDialect struct {
	BaseDialect
	calls int
}

func (f *fakeDialect) IsDuplicateErr(err error) bool { return errors.Is(err, errDup) }
func (f *fakeDialect) IsRetryableErr(err error) bool { return errors.Is(err, errRetry) }
func (f *fakeDialect) RunTx(_ context.Context, _ *sql.DB, fn func(*sql.Tx) error) error {
	f.calls++
	return fn(nil)
}

func TestInTxRetries(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		desc            string
		errs            []error
		retryDuplicates bool
		wantCalls       int
		wantErr         error
	}{
		{desc: "success", errs: []error{nil}, wantCalls: 1},
		{desc: "retryable then success", errs: []error{errRetry, errRetry, nil}, wantCalls: 3},
		{desc: "duplicate not retried", errs: []error{errDup, nil}, wantCalls: 1, wantErr: errDup},
		{desc: "duplicate retried", errs: []error{errDup, nil}, retryDuplicates: true, wantCalls: 2},
		{desc: "permanent", errs: []error{sql.ErrConnDone, nil}, wantCalls: 1, wantErr: sql.ErrConnDone},
		{desc: "gives up", errs: nil, wantCalls: maxAttempts, wantErr: errRetry},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			d := &fakeDialect{BaseDialect: BaseDialect{DBName: "fake"}}
			s := NewLedgerStorage(nil, d, nil)
			err := s.inTx(ctx, tc.retryDuplicates, func(*sql.Tx) error {
				if i := d.calls - 1; i < len(tc.errs) {
					return tc.errs[i]
				}
				return errRetry
			})
			if !errors.Is(err, tc.wantErr) || (err == nil) != (tc.wantErr == nil) {
				t.Errorf("inTx() = %v, want %v", err, tc.wantErr)
			}
			if d.calls != tc.wantCalls {
				t.Errorf("inTx() ran %d times, want %d", d.calls, tc.wantCalls)
			}
		})
	}
}
