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
	"fmt"

	"github.com/pkg/errors"
)

// Transactions nest by depth: the first Begin opens a real transaction
// block, every further Begin on the same connection creates a
// savepoint. Commit and Rollback close the innermost level.

func beginQuery(depth int) string {
	if depth == 0 {
		return "BEGIN"
	}
	return fmt.Sprintf("SAVEPOINT pgpack_savepoint_%d", depth)
}

func commitQuery(depth int) string {
	if depth == 1 {
		return "COMMIT"
	}
	return fmt.Sprintf("RELEASE SAVEPOINT pgpack_savepoint_%d", depth-1)
}

func rollbackQuery(depth int) string {
	if depth == 1 {
		return "ROLLBACK"
	}
	return fmt.Sprintf("ROLLBACK TO SAVEPOINT pgpack_savepoint_%d", depth-1)
}

// Tx is a handle on one transaction level of a connection. It is
// bound to the depth it was opened at; commit or roll back inner
// levels first.
type Tx struct {
	conn  *Conn
	depth int
	done  bool
}

// Begin opens a transaction block, or a savepoint when the connection
// is already inside one.
func (c *Conn) Begin(ctx context.Context) (*Tx, error) {
	if _, err := c.Execute(ctx, beginQuery(c.transactionDepth)); err != nil {
		return nil, err
	}
	c.transactionDepth++
	return &Tx{conn: c, depth: c.transactionDepth}, nil
}

// TransactionDepth returns how many transaction levels are open.
func (c *Conn) TransactionDepth() int {
	return c.transactionDepth
}

// queueRollback abandons the innermost transaction level without a
// round trip. The rollback statement goes out before whatever the
// connection sends next.
func (c *Conn) queueRollback() error {
	if c.transactionDepth == 0 {
		return nil
	}
	if err := c.QueueSimpleQuery(rollbackQuery(c.transactionDepth)); err != nil {
		return err
	}
	c.transactionDepth--
	return nil
}

func (tx *Tx) check() error {
	if tx.done {
		return errors.New("transaction already finished")
	}
	if tx.conn.transactionDepth != tx.depth {
		return errors.Errorf("transaction depth is %d, this handle is for depth %d; finish inner transactions first",
			tx.conn.transactionDepth, tx.depth)
	}
	return nil
}

// Commit commits the transaction, or releases the savepoint for a
// nested level.
func (tx *Tx) Commit(ctx context.Context) error {
	if err := tx.check(); err != nil {
		return err
	}
	if _, err := tx.conn.Execute(ctx, commitQuery(tx.depth)); err != nil {
		return err
	}
	tx.conn.transactionDepth--
	tx.done = true
	return nil
}

// Rollback rolls the transaction back, or rolls back to the savepoint
// for a nested level.
func (tx *Tx) Rollback(ctx context.Context) error {
	if err := tx.check(); err != nil {
		return err
	}
	if _, err := tx.conn.Execute(ctx, rollbackQuery(tx.depth)); err != nil {
		return err
	}
	tx.conn.transactionDepth--
	tx.done = true
	return nil
}

// Close queues a rollback when the transaction was neither committed
// nor rolled back, making it safe to defer. Closing a finished
// transaction does nothing.
func (tx *Tx) Close() error {
	if tx.done {
		return nil
	}
	tx.done = true
	return tx.conn.queueRollback()
}
