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

package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cectc/pgpack/pkg/constant"
)

func TestTransactionCommit(t *testing.T) {
	conn, join := newTestConn(t, nil, func(b *backend) {
		b.handshake()

		b.expectQuery("BEGIN")
		b.sendCommandComplete("BEGIN")
		b.sendReady(constant.TxStatusInBlock)

		b.expectQuery("COMMIT")
		b.sendCommandComplete("COMMIT")
		b.sendReady(constant.TxStatusIdle)
	})

	require.NoError(t, conn.startup())

	tx, err := conn.Begin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, conn.TransactionDepth())
	assert.True(t, conn.InTransaction())

	require.NoError(t, tx.Commit(context.Background()))
	join()
	assert.Equal(t, 0, conn.TransactionDepth())
	assert.False(t, conn.InTransaction())

	// A finished handle cannot be reused.
	assert.Error(t, tx.Commit(context.Background()))
	assert.NoError(t, tx.Close())
}

func TestTransactionNestingSavepoints(t *testing.T) {
	conn, join := newTestConn(t, nil, func(b *backend) {
		b.handshake()

		b.expectQuery("BEGIN")
		b.sendCommandComplete("BEGIN")
		b.sendReady(constant.TxStatusInBlock)

		b.expectQuery("SAVEPOINT pgpack_savepoint_1")
		b.sendCommandComplete("SAVEPOINT")
		b.sendReady(constant.TxStatusInBlock)

		b.expectQuery("SAVEPOINT pgpack_savepoint_2")
		b.sendCommandComplete("SAVEPOINT")
		b.sendReady(constant.TxStatusInBlock)

		b.expectQuery("ROLLBACK TO SAVEPOINT pgpack_savepoint_2")
		b.sendCommandComplete("ROLLBACK")
		b.sendReady(constant.TxStatusInBlock)

		b.expectQuery("RELEASE SAVEPOINT pgpack_savepoint_1")
		b.sendCommandComplete("RELEASE")
		b.sendReady(constant.TxStatusInBlock)

		b.expectQuery("COMMIT")
		b.sendCommandComplete("COMMIT")
		b.sendReady(constant.TxStatusIdle)
	})

	require.NoError(t, conn.startup())
	ctx := context.Background()

	outer, err := conn.Begin(ctx)
	require.NoError(t, err)
	middle, err := conn.Begin(ctx)
	require.NoError(t, err)
	inner, err := conn.Begin(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, conn.TransactionDepth())

	// Out of order: the outer handle refuses while inner levels are
	// open.
	require.Error(t, outer.Commit(ctx))

	require.NoError(t, inner.Rollback(ctx))
	require.NoError(t, middle.Commit(ctx))
	require.NoError(t, outer.Commit(ctx))
	join()
	assert.Equal(t, 0, conn.TransactionDepth())
}

func TestTransactionCloseQueuesRollback(t *testing.T) {
	conn, join := newTestConn(t, nil, func(b *backend) {
		b.handshake()

		b.expectQuery("BEGIN")
		b.sendCommandComplete("BEGIN")
		b.sendReady(constant.TxStatusInBlock)

		// The abandoning rollback rides ahead of the next query.
		b.expectQuery("ROLLBACK")
		b.sendCommandComplete("ROLLBACK")
		b.sendReady(constant.TxStatusIdle)

		b.expectQuery("SELECT 1")
		b.respondRows("?column?", constant.Int4Oid, "SELECT 1", "1")
	})

	require.NoError(t, conn.startup())

	tx, err := conn.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Close())
	assert.Equal(t, 0, conn.TransactionDepth())

	_, err = conn.Execute(context.Background(), "SELECT 1")
	join()
	require.NoError(t, err)
}

func TestTransactionQueries(t *testing.T) {
	assert.Equal(t, "BEGIN", beginQuery(0))
	assert.Equal(t, "SAVEPOINT pgpack_savepoint_2", beginQuery(2))
	assert.Equal(t, "COMMIT", commitQuery(1))
	assert.Equal(t, "RELEASE SAVEPOINT pgpack_savepoint_2", commitQuery(3))
	assert.Equal(t, "ROLLBACK", rollbackQuery(1))
	assert.Equal(t, "ROLLBACK TO SAVEPOINT pgpack_savepoint_2", rollbackQuery(3))
}
