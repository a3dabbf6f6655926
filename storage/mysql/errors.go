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

package mysql

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/google/hashserv/storage/coresql"
)

const (
	// ER_DUP_ENTRY: Error returned by driver when inserting a duplicate row.
	errNumDuplicate = 1062
	// ER_LOCK_WAIT_TIMEOUT: Error returned when a lock could not be taken in time.
	errNumLockWaitTimeout = 1205
	// ER_LOCK_DEADLOCK: Error returned when there was a deadlock.
	errNumDeadlock = 1213
)

// Dialect is the coresql.Dialect for MySQL. Transactions are serializable
// so that a submission cannot slip into a block while it is being sealed.
type Dialect struct {
	coresql.BaseDialect
}

// NewDialect returns the MySQL dialect.
func NewDialect() Dialect {
	return Dialect{coresql.BaseDialect{
		DBName:    "mysql",
		TxOptions: &sql.TxOptions{Isolation: sql.LevelSerializable},
	}}
}

func errNumber(err error) uint16 {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return 0
	}
	return mysqlErr.Number
}

// IsDuplicateErr reports ER_DUP_ENTRY.
func (Dialect) IsDuplicateErr(err error) bool {
	return errNumber(err) == errNumDuplicate
}

// IsRetryableErr reports deadlocks and lock wait timeouts.
func (Dialect) IsRetryableErr(err error) bool {
	n := errNumber(err)
	return n == errNumDeadlock || n == errNumLockWaitTimeout
}
