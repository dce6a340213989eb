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
	"bytes"
	"sort"

	"vimagination.zapto.org/byteio"

	"github.com/cectc/pgpack/pkg/constant"
	err2 "github.com/cectc/pgpack/pkg/errors"
	"github.com/cectc/pgpack/pkg/misc"
)

// startup runs the protocol 3.0 startup exchange: the startup packet,
// the authentication round trips, then the server settling messages
// (ParameterStatus, BackendKeyData) up to the first ReadyForQuery.
func (c *Conn) startup() error {
	if err := c.write(buildStartupFrame(c.conf)); err != nil {
		return err
	}
	if err := c.authenticate(); err != nil {
		return err
	}

	for {
		tag, body, err := c.readMessage()
		if err != nil {
			return err
		}
		switch tag {
		case constant.ServerParameterStatus:
			c.handleParameterStatus(body)
		case constant.ServerBackendKeyData:
			c.handleBackendKeyData(body)
		case constant.ServerNotice:
			c.logNotice(body)
		case constant.ServerError:
			return c.parseErrorResponse(body)
		case constant.ServerReadyForQuery:
			c.handleReadyForQuery(body)
			return nil
		default:
			return err2.NewSQLError(constant.SQLStateProtocolViolation,
				"unexpected %c message during startup", tag)
		}
	}
}

// authenticate answers the server's authentication requests until it
// reports success. Cleartext and md5 password methods are handled;
// anything newer is rejected.
func (c *Conn) authenticate() error {
	for {
		tag, body, err := c.readMessage()
		if err != nil {
			return err
		}
		switch tag {
		case constant.ServerAuthentication:
			code, pos, ok := misc.ReadInt32(body, 0)
			if !ok {
				return err2.NewSQLError(constant.SQLStateProtocolViolation,
					"authentication message carries no method code")
			}
			switch code {
			case constant.AuthOk:
				return nil
			case constant.AuthCleartextPassword:
				if err := c.writePasswordMessage(c.conf.Password); err != nil {
					return err
				}
			case constant.AuthMD5Password:
				salt, _, ok := misc.ReadBytes(body, pos, 4)
				if !ok {
					return err2.NewSQLError(constant.SQLStateProtocolViolation,
						"md5 authentication message carries no salt")
				}
				hashed := misc.HashMD5Password(c.conf.User, c.conf.Password, salt)
				if err := c.writePasswordMessage(hashed); err != nil {
					return err
				}
			default:
				return err2.NewSQLError(constant.SQLStateFeatureNotSupported,
					"authentication method %d is not supported", code)
			}
		case constant.ServerError:
			return c.parseErrorResponse(body)
		case constant.ServerNotice:
			c.logNotice(body)
		default:
			return err2.NewSQLError(constant.SQLStateProtocolViolation,
				"unexpected %c message during authentication", tag)
		}
	}
}

func (c *Conn) writePasswordMessage(secret string) error {
	var body bytes.Buffer
	w := byteio.BigEndianWriter{Writer: &body}
	w.WriteString(secret)
	w.WriteByte(0)
	return c.write(frameMessage(constant.ComPassword, body.Bytes()))
}

// buildStartupFrame encodes the startup packet. It has no tag byte;
// the length prefix covers itself, the protocol version and the
// zero-terminated parameter pairs.
func buildStartupFrame(cfg *Config) []byte {
	var body bytes.Buffer
	w := byteio.BigEndianWriter{Writer: &body}
	w.WriteUint32(constant.ProtocolVersion)

	writeParam := func(key, value string) {
		w.WriteString(key)
		w.WriteByte(0)
		w.WriteString(value)
		w.WriteByte(0)
	}
	writeParam("user", cfg.User)
	if cfg.Database != "" {
		writeParam("database", cfg.Database)
	}
	// Fixed session defaults the value codecs rely on: ISO date
	// rendering and UTC timestamps.
	writeParam("client_encoding", "UTF8")
	writeParam("DateStyle", "ISO")
	writeParam("TimeZone", "UTC")
	writeParam("extra_float_digits", "3")
	if cfg.ApplicationName != "" {
		writeParam("application_name", cfg.ApplicationName)
	}
	if cfg.Options != "" {
		writeParam("options", cfg.Options)
	}
	if len(cfg.Params) > 0 {
		keys := make([]string, 0, len(cfg.Params))
		for key := range cfg.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			writeParam(key, cfg.Params[key])
		}
	}
	w.WriteByte(0)

	frame := misc.AppendUint32(make([]byte, 0, body.Len()+4), uint32(body.Len()+4))
	return append(frame, body.Bytes()...)
}
