// Copyright 2022 Google LLC. All Rights Reserved.
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

package crdb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cockroachdb/cockroach-go/v2/crdb"
	"github.com/google/hashserv/storage/coresql"
	"github.com/lib/pq"
)

var uniqueViolationErrorCode = pq.ErrorCode("23505")

// Dialect is the coresql.Dialect for CockroachDB. Transactions run through
// crdb.ExecuteTx, which retries serialization failures itself.
type Dialect struct {
	coresql.BaseDialect
}

// NewDialect returns the CockroachDB dialect.
func NewDialect() Dialect {
	return Dialect{coresql.BaseDialect{DBName: "crdb"}}
}

// Rebind uses $n placeholders.
func (Dialect) Rebind(query string) string {
	return coresql.DollarPlaceholders(query)
}

// IsDuplicateErr reports unique_violation.
func (Dialect) IsDuplicateErr(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationErrorCode
}

// RunTx runs fn with automatic retries of retryable CockroachDB errors.
func (d Dialect) RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	return crdb.ExecuteTx(ctx, db, d.TxOptions, fn)
}
