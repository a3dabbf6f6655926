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

// Package coresql implements storage.LedgerStorage on top of database/sql.
// Database specific behaviour is supplied by a Dialect.
package coresql

import (
	"context"
	"database/sql"
	_ "embed" // schema.sql
	"fmt"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

//go:embed schema.sql
var schema string

// Dialect abstracts database specific features, for example error code
// checking and placeholder syntax.
type Dialect interface {
	// Name identifies the database in logs and metrics.
	Name() string
	// Rebind rewrites a query written with '?' placeholders into the
	// syntax the driver expects.
	Rebind(query string) string
	// IsDuplicateErr reports whether err is a unique constraint violation.
	IsDuplicateErr(err error) bool
	// IsRetryableErr reports whether a transaction which failed with err
	// can be run again, for example after a deadlock.
	IsRetryableErr(err error) bool
	// RunTx runs fn in a transaction, committing iff fn returns nil.
	RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error
}

// BaseDialect provides the default behaviour of a Dialect. Backends embed it
// and override what differs.
type BaseDialect struct {
	// DBName is returned by Name.
	DBName string
	// TxOptions are passed to BeginTx.
	TxOptions *sql.TxOptions
}

// Name implements Dialect.
func (b BaseDialect) Name() string { return b.DBName }

// Rebind returns query unchanged.
func (BaseDialect) Rebind(query string) string { return query }

// IsDuplicateErr returns false.
func (BaseDialect) IsDuplicateErr(error) bool { return false }

// IsRetryableErr returns false.
func (BaseDialect) IsRetryableErr(error) bool { return false }

// RunTx runs fn in a database/sql transaction.
func (b BaseDialect) RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, b.TxOptions)
	if err != nil {
		return fmt.Errorf("BeginTx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			klog.Warningf("%s: Rollback: %v", b.DBName, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// DollarPlaceholders rewrites '?' placeholders as $1, $2, ... for
// PostgreSQL compatible drivers.
func DollarPlaceholders(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// SchemaStatements returns the statements creating the ledger tables. They
// are idempotent.
func SchemaStatements() []string {
	var stmts []string
	for _, line := range strings.Split(schema, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		stmts = append(stmts, line)
	}
	var out []string
	for _, stmt := range strings.Split(strings.Join(stmts, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// CreateSchema creates the ledger tables if they do not exist.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range SchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error running statement %q: %v", stmt, err)
		}
	}
	return nil
}
