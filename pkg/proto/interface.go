/*
 * Copyright 2022 CECTC, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

//go:generate mockgen -destination=../../testdata/mock_conn.go -package=testdata . Conn
package proto

import (
	"context"
)

type (
	// Conn is the narrow connection capability the lock, transaction
	// and resolver components depend on. The full connection type in
	// pkg/driver implements it.
	Conn interface {
		// Execute runs one textual command, flushing any queued
		// commands first, and waits for its completion.
		Execute(ctx context.Context, query string) (Result, error)

		// QueryScalar runs a query expected to return a single row
		// with a single column and returns that value.
		QueryScalar(ctx context.Context, query string) (Value, error)

		// QueueSimpleQuery appends a fire-and-forget textual command
		// to the connection's pending buffer. The command goes out
		// before whatever the connection writes next; queueing never
		// blocks and never touches the network by itself.
		QueueSimpleQuery(query string) error
	}

	// Row is one row of a query result.
	Row interface {
		Fields() []Field

		// Value borrows the i'th column of the row.
		Value(i int) (ValueRef, error)
	}

	// Result is the outcome of one executed command.
	Result interface {
		Fields() []Field

		Rows() []Row

		// RowsAffected reports the count parsed from the command
		// completion tag, zero for commands without one.
		RowsAffected() uint64
	}
)
