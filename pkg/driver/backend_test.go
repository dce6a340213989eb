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
	"io"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cectc/pgpack/pkg/constant"
	"github.com/cectc/pgpack/pkg/misc"
)

// backend scripts the server side of a connection over an in-memory
// pipe. It runs in its own goroutine; assertions made there surface
// through t.Errorf when the test joins.
type backend struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

// newTestConn wires a Conn to a scripted backend. The script runs in
// a goroutine; the returned join function waits for it to finish and
// must be called before the test ends.
func newTestConn(t *testing.T, cfg *Config, script func(*backend)) (*Conn, func()) {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	if cfg == nil {
		cfg = &Config{User: "tester"}
	}
	conn := NewConn(clientSide, cfg)

	b := &backend{t: t, conn: serverSide, reader: bufio.NewReader(serverSide)}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer serverSide.Close()
		script(b)
	}()
	t.Cleanup(func() {
		conn.Close()
		wg.Wait()
	})
	return conn, wg.Wait
}

// readStartup consumes the untagged startup packet and returns its
// body without the length prefix.
func (b *backend) readStartup() []byte {
	header := make([]byte, 4)
	if _, err := io.ReadFull(b.reader, header); err != nil {
		b.t.Errorf("backend: read startup length: %v", err)
		return nil
	}
	length, _, _ := misc.ReadUint32(header, 0)
	body := make([]byte, int(length)-4)
	if _, err := io.ReadFull(b.reader, body); err != nil {
		b.t.Errorf("backend: read startup body: %v", err)
		return nil
	}
	return body
}

// readFrame consumes one tagged frontend message.
func (b *backend) readFrame() (byte, []byte) {
	tag, err := b.reader.ReadByte()
	if err != nil {
		b.t.Errorf("backend: read tag: %v", err)
		return 0, nil
	}
	header := make([]byte, 4)
	if _, err := io.ReadFull(b.reader, header); err != nil {
		b.t.Errorf("backend: read length: %v", err)
		return 0, nil
	}
	length, _, _ := misc.ReadUint32(header, 0)
	body := make([]byte, int(length)-4)
	if _, err := io.ReadFull(b.reader, body); err != nil {
		b.t.Errorf("backend: read body: %v", err)
		return 0, nil
	}
	return tag, body
}

// expectQuery consumes one Query message and asserts its text.
func (b *backend) expectQuery(want string) {
	tag, body := b.readFrame()
	assert.Equal(b.t, constant.ComQuery, tag)
	query, _, ok := misc.ReadNullString(body, 0)
	assert.True(b.t, ok)
	assert.Equal(b.t, want, query)
}

func (b *backend) send(tag byte, body []byte) {
	frame := make([]byte, 0, len(body)+5)
	frame = append(frame, tag)
	frame = misc.AppendUint32(frame, uint32(len(body)+4))
	frame = append(frame, body...)
	if _, err := b.conn.Write(frame); err != nil {
		b.t.Errorf("backend: write %c: %v", tag, err)
	}
}

func (b *backend) sendAuth(code int32, extra []byte) {
	body := misc.AppendInt32(nil, code)
	b.send(constant.ServerAuthentication, append(body, extra...))
}

func (b *backend) sendParameterStatus(name, value string) {
	body := append([]byte(name), 0)
	body = append(body, value...)
	b.send(constant.ServerParameterStatus, append(body, 0))
}

func (b *backend) sendBackendKeyData(pid, secret uint32) {
	body := misc.AppendUint32(nil, pid)
	b.send(constant.ServerBackendKeyData, misc.AppendUint32(body, secret))
}

func (b *backend) sendReady(status byte) {
	b.send(constant.ServerReadyForQuery, []byte{status})
}

func (b *backend) sendCommandComplete(tag string) {
	b.send(constant.ServerCommandComplete, append([]byte(tag), 0))
}

// sendRowDescription advertises text-format columns with the given
// names and type oids.
func (b *backend) sendRowDescription(names []string, oids []constant.Oid) {
	body := misc.AppendUint16(nil, uint16(len(names)))
	for i, name := range names {
		body = append(body, name...)
		body = append(body, 0)
		body = misc.AppendUint32(body, 0) // table oid
		body = misc.AppendInt16(body, 0)  // attribute number
		body = misc.AppendUint32(body, uint32(oids[i]))
		body = misc.AppendInt16(body, -1) // type size
		body = misc.AppendInt32(body, -1) // type modifier
		body = misc.AppendUint16(body, 0) // text format
	}
	b.send(constant.ServerRowDescription, body)
}

// sendDataRow sends one text-format row; a nil cell is SQL NULL.
func (b *backend) sendDataRow(cells []*string) {
	body := misc.AppendUint16(nil, uint16(len(cells)))
	for _, cell := range cells {
		if cell == nil {
			body = misc.AppendInt32(body, -1)
			continue
		}
		body = misc.AppendInt32(body, int32(len(*cell)))
		body = append(body, *cell...)
	}
	b.send(constant.ServerDataRow, body)
}

func (b *backend) sendError(severity, code, message string) {
	body := append([]byte{constant.FieldSeverity}, severity...)
	body = append(body, 0)
	body = append(body, constant.FieldCode)
	body = append(body, code...)
	body = append(body, 0)
	body = append(body, constant.FieldMessage)
	body = append(body, message...)
	body = append(body, 0, 0)
	b.send(constant.ServerError, body)
}

// respondRows answers the current query with a one-column result.
func (b *backend) respondRows(column string, oid constant.Oid, tag string, values ...string) {
	b.sendRowDescription([]string{column}, []constant.Oid{oid})
	for i := range values {
		b.sendDataRow([]*string{&values[i]})
	}
	b.sendCommandComplete(tag)
	b.sendReady(constant.TxStatusIdle)
}

// handshake answers the startup packet with trust authentication and
// a settled session.
func (b *backend) handshake() {
	body := b.readStartup()
	version, _, ok := misc.ReadUint32(body, 0)
	assert.True(b.t, ok)
	assert.Equal(b.t, uint32(constant.ProtocolVersion), version)

	b.sendAuth(constant.AuthOk, nil)
	b.sendParameterStatus("server_version", "14.5")
	b.sendBackendKeyData(4711, 42)
	b.sendReady(constant.TxStatusIdle)
}
