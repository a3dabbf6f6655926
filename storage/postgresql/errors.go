// Copyright 2024 Google LLC. All Rights Reserved.
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

package postgresql

import (
	"database/sql"
	"errors"

	"github.com/google/hashserv/storage/coresql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Dialect is the coresql.Dialect for PostgreSQL. Transactions are
// serializable so that a submission cannot slip into a block while it is
// being sealed.
type Dialect struct {
	coresql.BaseDialect
}

// NewDialect returns the PostgreSQL dialect.
func NewDialect() Dialect {
	return Dialect{coresql.BaseDialect{
		DBName:    "postgresql",
		TxOptions: &sql.TxOptions{Isolation: sql.LevelSerializable},
	}}
}

// Rebind uses $n placeholders.
func (Dialect) Rebind(query string) string {
	return coresql.DollarPlaceholders(query)
}

func errCode(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	return pgErr.Code
}

// IsDuplicateErr reports unique_violation.
func (Dialect) IsDuplicateErr(err error) bool {
	return errCode(err) == pgerrcode.UniqueViolation
}

// IsRetryableErr reports serialization failures and deadlocks.
func (Dialect) IsRetryableErr(err error) bool {
	switch errCode(err) {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	}
	return false
}
