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
	"math"
	"sort"

	err2 "github.com/cectc/pgpack/pkg/errors"
	"github.com/cectc/pgpack/pkg/log"
	"github.com/cectc/pgpack/pkg/misc"
	"github.com/cectc/pgpack/pkg/proto"
	"github.com/cectc/pgpack/pkg/types"
)

// Hstore is the hstore extension type, a string map with nullable
// values. A nil map value is the SQL NULL inside the pair, not an
// absent key.
type Hstore map[string]*string

// hstore ships as an extension and has no stable oid.
var hstoreType = types.WithName("hstore")

// DecodeHstore reads an hstore value: a pair count, then per pair a
// length-prefixed key and a length-prefixed (or -1 for NULL) value.
func DecodeHstore(v proto.ValueRef) (Hstore, error) {
	if err := compatible(v, "codec.Hstore", hstoreType); err != nil {
		return nil, err
	}
	raw, err := v.Bytes()
	if err != nil {
		return nil, err
	}

	count, pos, ok := misc.ReadInt32(raw, 0)
	if !ok {
		return nil, err2.NewDecodeError(typeName(v), "expected 4 bytes for the pair count, got %d", len(raw))
	}
	if count < 0 {
		return nil, err2.NewDecodeError(typeName(v), "pair count out of range: %d", count)
	}

	out := make(Hstore, count)
	for i := 0; i < int(count); i++ {
		key, next, err := readHstoreString(raw, pos)
		if err != nil {
			return nil, err2.NewDecodeError(typeName(v), "reading key %d: %v", i, err)
		}
		if key == nil {
			return nil, err2.NewDecodeError(typeName(v), "expected key %d, got nothing", i)
		}
		value, next, err := readHstoreString(raw, next)
		if err != nil {
			return nil, err2.NewDecodeError(typeName(v), "reading value for key %q: %v", *key, err)
		}
		out[*key] = value
		pos = next
	}

	if pos != len(raw) {
		log.Warnf("%d unread bytes at the end of an hstore value", len(raw)-pos)
	}
	return out, nil
}

// readHstoreString reads one length-prefixed field. A -1 length is the
// SQL NULL inside a pair.
func readHstoreString(raw []byte, pos int) (*string, int, error) {
	length, pos, ok := misc.ReadInt32(raw, pos)
	if !ok {
		return nil, 0, err2.NewDecodeError("hstore", "expected 4 bytes, got %d", len(raw)-pos)
	}
	if length < 0 {
		return nil, pos, nil
	}
	field, pos, ok := misc.ReadBytes(raw, pos, int(length))
	if !ok {
		return nil, 0, err2.NewDecodeError("hstore", "expected %d bytes, got %d", length, len(raw)-pos)
	}
	s := string(field)
	return &s, pos, nil
}

// AppendHstore encodes the map with its keys in sorted order, so the
// same map always yields the same bytes.
func AppendHstore(buf []byte, h Hstore) ([]byte, bool, error) {
	if len(h) > math.MaxInt32 {
		return buf, false, err2.NewEncodeError("hstore", "pair count out of range: %d", len(h))
	}
	buf = misc.AppendInt32(buf, int32(len(h)))

	keys := make([]string, 0, len(h))
	for key := range h {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if len(key) > math.MaxInt32 {
			return buf, false, err2.NewEncodeError("hstore", "key length out of range: %d bytes", len(key))
		}
		buf = misc.AppendInt32(buf, int32(len(key)))
		buf = append(buf, key...)

		value := h[key]
		if value == nil {
			buf = misc.AppendNullLength(buf)
			continue
		}
		if len(*value) > math.MaxInt32 {
			return buf, false, err2.NewEncodeError("hstore", "value length for key %q out of range: %d bytes", key, len(*value))
		}
		buf = misc.AppendInt32(buf, int32(len(*value)))
		buf = append(buf, *value...)
	}
	return buf, false, nil
}
