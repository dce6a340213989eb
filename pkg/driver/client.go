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
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"vimagination.zapto.org/byteio"

	"github.com/cectc/pgpack/pkg/constant"
	err2 "github.com/cectc/pgpack/pkg/errors"
	"github.com/cectc/pgpack/pkg/log"
	"github.com/cectc/pgpack/pkg/proto"
)

const (
	// connBufferSize is how much we buffer for reading.
	connBufferSize = 16 * 1024
)

// connectionID hands out locally unique ids for logging.
var connectionID = atomic.NewUint32(0)

var _ proto.Conn = (*Conn)(nil)

type Connector struct {
	conf *Config
}

func NewConnector(dsn string) (*Connector, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &Connector{conf: cfg}, nil
}

// NewConnectorConfig builds a Connector from an explicit Config. The
// config is cloned, later changes to cfg do not affect the connector.
func NewConnectorConfig(cfg *Config) (*Connector, error) {
	cp := cfg.Clone()
	if err := cp.normalize(); err != nil {
		return nil, err
	}
	return &Connector{conf: cp}, nil
}

// Connect dials the server and runs the startup exchange. The context
// bounds the dial and the handshake.
func (c *Connector) Connect(ctx context.Context) (*Conn, error) {
	if c.conf.SSLMode.TLSRequired() {
		return nil, err2.NewSQLError(constant.SQLStateFeatureNotSupported,
			"sslmode %q needs TLS, which is not implemented; use sslmode=disable", c.conf.SSLMode)
	}

	dialer := &net.Dialer{Timeout: c.conf.ConnectTimeout}
	netConn, err := dialer.DialContext(ctx, c.conf.Net, c.conf.Addr())
	if err != nil {
		return nil, err2.NewSQLError(constant.SQLStateCannotConnect,
			"dial %s %s: %v", c.conf.Net, c.conf.Addr(), err)
	}
	if tcpConn, ok := netConn.(*net.TCPConn); ok {
		// SetNoDelay controls whether the operating system should delay
		// packet transmission in hopes of sending fewer packets (Nagle's
		// algorithm). The default is true (no delay), meaning that
		// content is sent as soon as possible after a Write.
		if err := tcpConn.SetNoDelay(true); err != nil {
			netConn.Close()
			return nil, err
		}
		if err := tcpConn.SetKeepAlive(true); err != nil {
			netConn.Close()
			return nil, err
		}
	}

	conn := NewConn(netConn, c.conf)
	restore := conn.beginDeadline(ctx)
	err = conn.startup()
	restore()
	if err != nil {
		conn.fail()
		return nil, err
	}

	log.Infof("connection %d established to %s as %q", conn.ConnectionID, c.conf.Addr(), c.conf.User)
	return conn, nil
}

// Connect establishes a single connection using the given DSN.
func Connect(ctx context.Context, dsn string) (*Conn, error) {
	connector, err := NewConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx)
}

// Conn is a client connection speaking the frontend side of the
// protocol on top of an existing net.Conn.
//
// A Conn is not safe for concurrent use, with two exceptions: Close
// may be called from another goroutine to interrupt whatever the
// connection is doing, and QueueSimpleQuery may be called at any time
// because it only appends to the pending buffer.
type Conn struct {
	// conn is the underlying network connection.
	// Calling Close() on the Conn will close this connection.
	// If there are any ongoing reads or writes, they may get interrupted.
	conn net.Conn

	// ConnectionID is assigned locally at creation time and appears in
	// every log line about this connection.
	ConnectionID uint32

	// closed is set to true when Close() is called on the connection,
	// or when the connection breaks mid-protocol.
	closed *atomic.Bool

	conf *Config

	// Message decoding variables. Multi-byte header fields are read
	// through reader, bodies through bufferedReader directly. Both
	// consume the same buffered stream.
	bufferedReader *bufio.Reader
	reader         byteio.BigEndianReader

	// readBuf backs the body returned by readMessage. It is reused, so
	// a body is only valid until the next read.
	readBuf []byte

	// Server state captured from ParameterStatus, BackendKeyData and
	// ReadyForQuery messages.
	parameters    map[string]string
	backendPID    uint32
	backendSecret uint32
	txStatus      byte

	// transactionDepth counts BEGIN plus open savepoints. Maintained
	// by Begin/Commit/Rollback.
	transactionDepth int

	// pending holds encoded fire-and-forget query messages, written
	// out at the start of the next operation. pendingReady counts the
	// ReadyForQuery responses those messages will produce.
	pendingMu    sync.Mutex
	pending      []byte
	pendingReady int
}

// NewConn creates a Conn on an already established network connection.
// The startup exchange is not run; Connector.Connect does both.
func NewConn(conn net.Conn, cfg *Config) *Conn {
	if cfg == nil {
		cfg = NewConfig()
	}
	c := &Conn{
		conn:           conn,
		ConnectionID:   connectionID.Inc(),
		closed:         atomic.NewBool(false),
		conf:           cfg,
		bufferedReader: bufio.NewReaderSize(conn, connBufferSize),
		parameters:     make(map[string]string),
		txStatus:       constant.TxStatusIdle,
	}
	c.reader = byteio.BigEndianReader{Reader: c.bufferedReader}
	return c
}

// Execute runs one textual command and collects its complete result.
// Any queued commands are flushed first, so they reach the server in
// the order they were queued, before this query.
//
// Depending on how the connection fails, the error for the same
// condition can differ: if the server goes away before the query is
// written, the write fails with SQLSTATE 08006; if it goes away after,
// the read of the response fails with the same state. Either way the
// connection is closed and cannot be reused. A context deadline is
// applied to the socket, so hitting it also closes the connection. A
// canceled context without a deadline is only noticed before the
// query is sent.
func (c *Conn) Execute(ctx context.Context, query string) (proto.Result, error) {
	if c.closed.Load() {
		return nil, err2.NewSQLError(constant.SQLStateConnectionException,
			"connection %d is closed", c.ConnectionID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err2.NewSQLError(constant.SQLStateQueryCanceled,
			"query canceled before send: %v", err)
	}
	restore := c.beginDeadline(ctx)
	defer restore()

	start := time.Now()
	result, err := c.execute(query)
	var affected uint64
	if result != nil {
		affected = result.RowsAffected()
	}
	c.conf.StatementLog.Record(c.ConnectionID, query, affected, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Conn) execute(query string) (*Result, error) {
	if err := c.flushPending(); err != nil {
		return nil, err
	}
	frame, err := simpleQueryFrame(query)
	if err != nil {
		return nil, err
	}
	if err := c.write(frame); err != nil {
		return nil, err
	}
	return c.readQueryResponse()
}

// readQueryResponse drains one simple-query response cycle, up to and
// including ReadyForQuery. A server error does not stop the drain; it
// is returned once the server is ready again.
func (c *Conn) readQueryResponse() (*Result, error) {
	result := &Result{}
	var execErr error
	for {
		tag, body, err := c.readMessage()
		if err != nil {
			return nil, err
		}
		switch tag {
		case constant.ServerRowDescription:
			fields, err := parseRowDescription(body)
			if err != nil {
				c.fail()
				return nil, err
			}
			result.fields = fields
		case constant.ServerDataRow:
			row, err := parseDataRow(body, result.fields)
			if err != nil {
				c.fail()
				return nil, err
			}
			result.rows = append(result.rows, row)
		case constant.ServerCommandComplete:
			result.rowsAffected += parseCommandTag(body)
		case constant.ServerEmptyQuery:
			// Empty query string. No completion tag follows.
		case constant.ServerError:
			execErr = c.parseErrorResponse(body)
		case constant.ServerNotice:
			c.logNotice(body)
		case constant.ServerParameterStatus:
			c.handleParameterStatus(body)
		case constant.ServerNotification:
			c.logNotification(body)
		case constant.ServerReadyForQuery:
			c.handleReadyForQuery(body)
			if execErr != nil {
				return nil, execErr
			}
			return result, nil
		default:
			c.fail()
			return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
				"unexpected %c message in query response", tag)
		}
	}
}

// QueryScalar runs a query expected to return exactly one row with
// one column and returns that value with its bytes owned.
func (c *Conn) QueryScalar(ctx context.Context, query string) (proto.Value, error) {
	result, err := c.Execute(ctx, query)
	if err != nil {
		return proto.Value{}, err
	}
	rows := result.Rows()
	if len(rows) != 1 || len(result.Fields()) != 1 {
		return proto.Value{}, errors.Errorf(
			"expected one row with one column, got %d rows with %d columns",
			len(rows), len(result.Fields()))
	}
	ref, err := rows[0].Value(0)
	if err != nil {
		return proto.Value{}, err
	}
	return ref.ToOwned(), nil
}

// QueueSimpleQuery appends a fire-and-forget command to the pending
// buffer. It never touches the network; the buffer is written at the
// start of the next operation. A server error caused by a queued
// command is logged and swallowed.
func (c *Conn) QueueSimpleQuery(query string) error {
	if c.closed.Load() {
		return err2.NewSQLError(constant.SQLStateConnectionException,
			"connection %d is closed", c.ConnectionID)
	}
	frame, err := simpleQueryFrame(query)
	if err != nil {
		return err
	}
	c.pendingMu.Lock()
	c.pending = append(c.pending, frame...)
	c.pendingReady++
	c.pendingMu.Unlock()
	log.Debugf("connection %d: queued %q", c.ConnectionID, query)
	return nil
}

// flushPending writes out queued commands and consumes their
// responses, so the stream is aligned for the next query.
func (c *Conn) flushPending() error {
	c.pendingMu.Lock()
	pending := c.pending
	ready := c.pendingReady
	c.pending = nil
	c.pendingReady = 0
	c.pendingMu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	if err := c.write(pending); err != nil {
		return err
	}
	for i := 0; i < ready; i++ {
		if err := c.drainUntilReady(); err != nil {
			return err
		}
	}
	return nil
}

// Ping sends an empty query and waits for the server to report ready.
func (c *Conn) Ping(ctx context.Context) error {
	_, err := c.Execute(ctx, "")
	return err
}

// write sends raw frames to the server.
func (c *Conn) write(data []byte) error {
	if _, err := c.conn.Write(data); err != nil {
		c.fail()
		return err2.NewSQLError(constant.SQLStateConnectionFailure,
			"connection %d: write failed: %v", c.ConnectionID, err)
	}
	return nil
}

// beginDeadline applies the context deadline, if any, to the socket.
// The returned function removes it again.
func (c *Conn) beginDeadline(ctx context.Context) func() {
	deadline, ok := ctx.Deadline()
	if !ok {
		return func() {}
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		log.Warnf("connection %d: set deadline: %v", c.ConnectionID, err)
		return func() {}
	}
	return func() {
		_ = c.conn.SetDeadline(time.Time{})
	}
}

// fail closes the socket after a protocol or transport failure. The
// buffered stream is no longer aligned to message boundaries, so the
// connection cannot be reused.
func (c *Conn) fail() {
	if c.closed.CAS(false, true) {
		log.Debugf("connection %d: closed after failure", c.ConnectionID)
		_ = c.conn.Close()
	}
}

// ServerParameter returns the latest value the server reported for a
// run-time parameter such as server_version or TimeZone.
func (c *Conn) ServerParameter(name string) string {
	return c.parameters[name]
}

// BackendPID returns the server backend process id for this session,
// as reported during startup.
func (c *Conn) BackendPID() uint32 {
	return c.backendPID
}

// TxStatus returns the transaction status byte from the last
// ReadyForQuery message.
func (c *Conn) TxStatus() byte {
	return c.txStatus
}

// InTransaction reports whether the server considers the session to be
// inside a transaction block, failed or not.
func (c *Conn) InTransaction() bool {
	return c.txStatus == constant.TxStatusInBlock || c.txStatus == constant.TxStatusFailedBlock
}

// RemoteAddr returns the underlying socket RemoteAddr().
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// String returns a useful identification string for error logging.
func (c *Conn) String() string {
	return fmt.Sprintf("connection %d (%s)", c.ConnectionID, c.conn.RemoteAddr())
}

// Close terminates the connection, telling the server first when
// possible. It can be called from a different goroutine to interrupt
// the current operation. Queued commands that were never flushed are
// dropped.
func (c *Conn) Close() error {
	if !c.closed.CAS(false, true) {
		return nil
	}
	// Best effort. The server treats a vanished client the same way.
	_, _ = c.conn.Write(terminateFrame())
	if err := c.conn.Close(); err != nil {
		return errors.Wrapf(err, "close connection %d", c.ConnectionID)
	}
	return nil
}

// IsClosed returns true if this connection was closed by the Close()
// method or broke mid-protocol. If the other side closed the
// connection but nothing here noticed yet, this returns false.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}
