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
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cectc/pgpack/pkg/constant"
	err2 "github.com/cectc/pgpack/pkg/errors"
	"github.com/cectc/pgpack/pkg/log"
	"github.com/cectc/pgpack/pkg/misc"
	"github.com/cectc/pgpack/pkg/proto"
	"github.com/cectc/pgpack/pkg/types"
)

// maxMessageSize caps a single protocol message. The server never
// sends more than a field can hold.
const maxMessageSize = 1 << 30

// readMessage reads the next backend message. The returned body is
// backed by a reused buffer; do not keep it past the next call. Row
// values are copied out before they are handed to callers.
func (c *Conn) readMessage() (byte, []byte, error) {
	tag, err := c.reader.ReadByte()
	if err != nil {
		c.fail()
		return 0, nil, err2.NewSQLError(constant.SQLStateConnectionFailure,
			"connection %d: read message tag: %v", c.ConnectionID, err)
	}
	length, _, err := c.reader.ReadInt32()
	if err != nil {
		c.fail()
		return 0, nil, err2.NewSQLError(constant.SQLStateConnectionFailure,
			"connection %d: read message length: %v", c.ConnectionID, err)
	}
	if length < 4 || length > maxMessageSize {
		c.fail()
		return 0, nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
			"message length %d out of range", length)
	}

	n := int(length) - 4
	if n == 0 {
		return tag, nil, nil
	}
	if cap(c.readBuf) < n {
		c.readBuf = make([]byte, n)
	}
	body := c.readBuf[:n]
	if _, err := io.ReadFull(c.bufferedReader, body); err != nil {
		c.fail()
		return 0, nil, err2.NewSQLError(constant.SQLStateConnectionFailure,
			"connection %d: io.ReadFull(message body of length %v) failed: %v", c.ConnectionID, n, err)
	}
	return tag, body, nil
}

// frameMessage wraps body in a tagged frame. The length prefix covers
// itself and the body, not the tag.
func frameMessage(tag byte, body []byte) []byte {
	frame := make([]byte, 0, len(body)+5)
	frame = append(frame, tag)
	frame = misc.AppendUint32(frame, uint32(len(body)+4))
	return append(frame, body...)
}

// simpleQueryFrame encodes one Query message. Queries too large for
// the length prefix are rejected instead of being truncated.
func simpleQueryFrame(query string) ([]byte, error) {
	if int64(len(query))+5 > math.MaxInt32 {
		return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
			"query of %d bytes does not fit a protocol message", len(query))
	}
	body := make([]byte, 0, len(query)+1)
	body = append(body, query...)
	body = append(body, 0)
	return frameMessage(constant.ComQuery, body), nil
}

func terminateFrame() []byte {
	return frameMessage(constant.ComTerminate, nil)
}

// parseErrorFields decodes the field list shared by ErrorResponse and
// NoticeResponse messages. Unknown fields are skipped.
func parseErrorFields(body []byte) *err2.SQLError {
	e := &err2.SQLError{}
	pos := 0
	for {
		fieldType, next, ok := misc.ReadByte(body, pos)
		if !ok || fieldType == 0 {
			return e
		}
		value, next, ok := misc.ReadNullString(body, next)
		if !ok {
			return e
		}
		pos = next
		switch fieldType {
		case constant.FieldSeverity:
			e.Severity = value
		case constant.FieldCode:
			e.Code = value
		case constant.FieldMessage:
			e.Message = value
		case constant.FieldDetail:
			e.Detail = value
		case constant.FieldHint:
			e.Hint = value
		case constant.FieldPosition:
			e.Position, _ = strconv.Atoi(value)
		}
	}
}

// parseErrorResponse turns an ErrorResponse into the error returned to
// the caller. A fatal severity means the server is hanging up, so the
// connection is closed right away.
func (c *Conn) parseErrorResponse(body []byte) error {
	e := parseErrorFields(body)
	if e.Fatal() {
		c.fail()
	}
	return e
}

func (c *Conn) logNotice(body []byte) {
	notice := parseErrorFields(body)
	log.Infof("connection %d: %s: %s", c.ConnectionID, notice.Severity, notice.Message)
}

func (c *Conn) logNotification(body []byte) {
	pid, pos, ok := misc.ReadUint32(body, 0)
	if !ok {
		return
	}
	channel, pos, ok := misc.ReadNullString(body, pos)
	if !ok {
		return
	}
	payload, _, _ := misc.ReadNullString(body, pos)
	log.Infof("connection %d: notification from pid %d on %q: %s", c.ConnectionID, pid, channel, payload)
}

func (c *Conn) handleParameterStatus(body []byte) {
	name, pos, ok := misc.ReadNullString(body, 0)
	if !ok {
		return
	}
	value, _, ok := misc.ReadNullString(body, pos)
	if !ok {
		return
	}
	c.parameters[name] = value
	log.Debugf("connection %d: parameter %s = %q", c.ConnectionID, name, value)
}

func (c *Conn) handleBackendKeyData(body []byte) {
	pid, pos, ok := misc.ReadUint32(body, 0)
	if !ok {
		return
	}
	secret, _, ok := misc.ReadUint32(body, pos)
	if !ok {
		return
	}
	c.backendPID = pid
	c.backendSecret = secret
	log.Debugf("connection %d: backend pid %d", c.ConnectionID, pid)
}

func (c *Conn) handleReadyForQuery(body []byte) {
	if status, _, ok := misc.ReadByte(body, 0); ok {
		c.txStatus = status
	}
}

// drainUntilReady consumes the response cycle of one queued command.
// Result content is discarded; a non-fatal error is logged, because
// nobody is waiting for it anymore.
func (c *Conn) drainUntilReady() error {
	for {
		tag, body, err := c.readMessage()
		if err != nil {
			return err
		}
		switch tag {
		case constant.ServerReadyForQuery:
			c.handleReadyForQuery(body)
			return nil
		case constant.ServerError:
			e := parseErrorFields(body)
			if e.Fatal() {
				c.fail()
				return e
			}
			log.Warnf("connection %d: queued command failed: %v", c.ConnectionID, e)
		case constant.ServerNotice:
			c.logNotice(body)
		case constant.ServerParameterStatus:
			c.handleParameterStatus(body)
		case constant.ServerNotification:
			c.logNotification(body)
		case constant.ServerRowDescription, constant.ServerDataRow,
			constant.ServerCommandComplete, constant.ServerEmptyQuery:
			// Discarded.
		default:
			c.fail()
			return err2.NewSQLError(constant.SQLStateProtocolViolation,
				"unexpected %c message while draining queued commands", tag)
		}
	}
}

// parseRowDescription decodes a RowDescription message. Types the
// builtin catalog does not know stay as unresolved by-oid
// declarations.
func parseRowDescription(body []byte) ([]proto.Field, error) {
	count, pos, ok := misc.ReadUint16(body, 0)
	if !ok {
		return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
			"row description carries no column count")
	}
	fields := make([]proto.Field, 0, count)
	for i := 0; i < int(count); i++ {
		var field proto.Field
		field.Name, pos, ok = misc.ReadNullString(body, pos)
		if !ok {
			return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
				"extracting column %d name failed", i)
		}
		field.TableOid, pos, ok = misc.ReadUint32(body, pos)
		if !ok {
			return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
				"extracting column %d table oid failed", i)
		}
		field.AttrNum, pos, ok = misc.ReadInt16(body, pos)
		if !ok {
			return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
				"extracting column %d attribute number failed", i)
		}
		var typeOid uint32
		typeOid, pos, ok = misc.ReadUint32(body, pos)
		if !ok {
			return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
				"extracting column %d type oid failed", i)
		}
		field.TypeSize, pos, ok = misc.ReadInt16(body, pos)
		if !ok {
			return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
				"extracting column %d type size failed", i)
		}
		field.TypeModifier, pos, ok = misc.ReadInt32(body, pos)
		if !ok {
			return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
				"extracting column %d type modifier failed", i)
		}
		var format uint16
		format, pos, ok = misc.ReadUint16(body, pos)
		if !ok {
			return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
				"extracting column %d format failed", i)
		}
		if format > uint16(proto.FormatBinary) {
			return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
				"column %d has unknown format %d", i, format)
		}

		info, known := types.ByOid(constant.Oid(typeOid))
		if !known {
			info = types.WithOid(constant.Oid(typeOid))
		}
		field.TypeInfo = info
		field.Format = proto.Format(format)
		fields = append(fields, field)
	}
	return fields, nil
}

// parseDataRow decodes one DataRow against the current row
// description, copying every value out of the read buffer.
func parseDataRow(body []byte, fields []proto.Field) (*Row, error) {
	count, pos, ok := misc.ReadUint16(body, 0)
	if !ok {
		return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
			"data row carries no column count")
	}
	if int(count) != len(fields) {
		return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
			"data row has %d columns, the row description has %d", count, len(fields))
	}
	values := make([]proto.Value, 0, count)
	for i := 0; i < int(count); i++ {
		ref, next, ok := proto.ReadValueRef(body, pos, fields[i].Format, fields[i].TypeInfo)
		if !ok {
			return nil, err2.NewSQLError(constant.SQLStateProtocolViolation,
				"extracting column %d of a data row failed", i)
		}
		values = append(values, ref.ToOwned())
		pos = next
	}
	return &Row{fields: fields, values: values}, nil
}

// parseCommandTag extracts the affected row count from a
// CommandComplete tag such as "INSERT 0 5" or "UPDATE 3". Commands
// without a count yield zero.
func parseCommandTag(body []byte) uint64 {
	tag, _, ok := misc.ReadNullString(body, 0)
	if !ok {
		tag = string(body)
	}
	parts := strings.Fields(tag)
	if len(parts) < 2 {
		return 0
	}
	n, err := strconv.ParseUint(parts[len(parts)-1], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
