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

package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"

	err2 "github.com/cectc/pgpack/pkg/errors"
	"github.com/cectc/pgpack/pkg/proto"
	"github.com/cectc/pgpack/pkg/types"
)

// citext has no stable oid, it comes from an extension.
var citext = types.WithName("citext")

// DecodeString reads any of the textual types. Both formats carry the
// raw UTF-8 bytes.
func DecodeString(v proto.ValueRef) (string, error) {
	err := compatible(v, "string",
		types.Text, types.Name, types.Bpchar, types.Varchar, types.Unknown, citext)
	if err != nil {
		return "", err
	}
	return v.Text()
}

// DecodeBytes reads a BYTEA value into a fresh slice. The text format
// is the hex form with a leading \x.
func DecodeBytes(v proto.ValueRef) ([]byte, error) {
	if err := compatible(v, "[]byte", types.Bytea); err != nil {
		return nil, err
	}
	raw, err := v.Bytes()
	if err != nil {
		return nil, err
	}
	if v.Format == proto.FormatBinary {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	}

	if !bytes.HasPrefix(raw, []byte(`\x`)) {
		return nil, err2.NewDecodeError(typeName(v), `text does not start with \x`)
	}
	hexDigits := raw[2:]
	out := make([]byte, hex.DecodedLen(len(hexDigits)))
	if _, err := hex.Decode(out, hexDigits); err != nil {
		return nil, err2.NewDecodeError(typeName(v), "%v", err)
	}
	return out, nil
}

// DecodeUUID reads a UUID value, 16 raw bytes in binary and the
// canonical hex form in text.
func DecodeUUID(v proto.ValueRef) (uuid.UUID, error) {
	if err := compatible(v, "uuid.UUID", types.Uuid); err != nil {
		return uuid.Nil, err
	}
	if v.Format == proto.FormatBinary {
		raw, err := v.Bytes()
		if err != nil {
			return uuid.Nil, err
		}
		u, err := uuid.FromBytes(raw)
		if err != nil {
			return uuid.Nil, err2.NewDecodeError(typeName(v), "%v", err)
		}
		return u, nil
	}
	s, err := v.Text()
	if err != nil {
		return uuid.Nil, err
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, err2.NewDecodeError(typeName(v), "%v", err)
	}
	return u, nil
}

func AppendUUID(buf []byte, u uuid.UUID) []byte {
	return append(buf, u[:]...)
}

// jsonbVersion is the JSONB on-disk format version in use since 9.4.
const jsonbVersion = 1

// DecodeJSON reads a JSON or JSONB value as raw JSON text. Binary
// JSONB values lead with a format version byte that is checked and
// stripped.
func DecodeJSON(v proto.ValueRef) (json.RawMessage, error) {
	if err := compatible(v, "json.RawMessage", types.Jsonb, types.Json); err != nil {
		return nil, err
	}
	raw, err := v.Bytes()
	if err != nil {
		return nil, err
	}
	if v.Format == proto.FormatBinary && v.TypeInfo != nil && v.TypeInfo.Equal(types.Jsonb) {
		if len(raw) == 0 {
			return nil, err2.NewDecodeError(typeName(v), "empty buffer for a binary jsonb value")
		}
		if raw[0] != jsonbVersion {
			return nil, err2.NewDecodeError(typeName(v), "unsupported JSONB format version %d", raw[0])
		}
		raw = raw[1:]
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out, nil
}

// AppendJSON marshals val and appends the binary encoding. JSONB gets
// the version byte; plain JSON gets a space instead, which is nothing
// but leading whitespace to the server.
func AppendJSON(buf []byte, info *types.TypeInfo, val interface{}) ([]byte, bool, error) {
	raw, ok := val.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(val)
		if err != nil {
			return buf, false, err2.NewEncodeError(inferName(info), "%v", err)
		}
		raw = b
	}
	if info != nil && (info.Equal(types.Json) || info.Equal(types.JsonArray)) {
		buf = append(buf, ' ')
	} else {
		buf = append(buf, jsonbVersion)
	}
	return append(buf, raw...), false, nil
}
