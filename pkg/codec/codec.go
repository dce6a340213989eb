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

// Package codec converts between wire values and Go values. Every
// binary layout is big endian. Decoders accept both the text and the
// binary result format; encoders always produce the binary format,
// which is what gets sent for bind parameters.
package codec

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/cectc/pgpack/pkg/constant"
	err2 "github.com/cectc/pgpack/pkg/errors"
	"github.com/cectc/pgpack/pkg/misc"
	"github.com/cectc/pgpack/pkg/proto"
	"github.com/cectc/pgpack/pkg/types"
)

// compatible reports whether the wire type of v is acceptable for the
// Go destination named goType. NULL values skip the check so they can
// surface as ErrUnexpectedNull from the decoder instead. The first
// accepted type names the expectation in the mismatch error.
func compatible(v proto.ValueRef, goType string, accepted ...*types.TypeInfo) error {
	if v.IsNull() || v.TypeInfo == nil {
		return nil
	}
	for _, t := range accepted {
		if v.TypeInfo.Equal(t) {
			return nil
		}
	}
	return err2.NewTypeMismatchError(goType, accepted[0].DisplayName(), v.TypeInfo.DisplayName())
}

// typeName names the wire type of v for decode errors.
func typeName(v proto.ValueRef) string {
	if v.TypeInfo == nil {
		return "unknown"
	}
	return v.TypeInfo.Name()
}

// Decode converts a wire value into the default Go representation for
// its type. SQL NULL decodes to nil. Types without a decoder, such as
// composites and arrays, yield a DecodeError.
func Decode(v proto.ValueRef) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}
	if v.TypeInfo == nil {
		return nil, err2.NewDecodeError("unknown", "value carries no type information")
	}

	if oid, ok := v.TypeInfo.TryOid(); ok {
		switch oid {
		case constant.BoolOid:
			return DecodeBool(v)
		case constant.CharOid:
			return DecodeInt8(v)
		case constant.Int2Oid:
			return DecodeInt16(v)
		case constant.Int4Oid:
			return DecodeInt32(v)
		case constant.Int8Oid:
			return DecodeInt64(v)
		case constant.Float4Oid:
			return DecodeFloat32(v)
		case constant.Float8Oid:
			return DecodeFloat64(v)
		case constant.TextOid, constant.VarcharOid, constant.BpcharOid,
			constant.NameOid, constant.UnknownOid:
			return DecodeString(v)
		case constant.ByteaOid:
			return DecodeBytes(v)
		case constant.UuidOid:
			return DecodeUUID(v)
		case constant.DateOid:
			return DecodeDate(v)
		case constant.TimeOid:
			return DecodeTimeOfDay(v)
		case constant.TimestampOid:
			return DecodeTimestamp(v)
		case constant.TimestamptzOid:
			return DecodeTimestamptz(v)
		case constant.IntervalOid:
			return DecodeInterval(v)
		case constant.MoneyOid:
			return DecodeMoney(v)
		case constant.NumericOid:
			return DecodeNumeric(v)
		case constant.OidOid:
			return DecodeOid(v)
		case constant.JsonOid, constant.JsonbOid:
			return DecodeJSON(v)
		case constant.VoidOid:
			return nil, DecodeVoid(v)
		case constant.Int4RangeOid, constant.Int8RangeOid, constant.NumRangeOid,
			constant.DateRangeOid, constant.TsRangeOid, constant.TstzRangeOid:
			return DecodeRange(v)
		}

		// A realized extension type still has a usable kind.
		if kind, ok := v.TypeInfo.TryKind(); ok {
			switch kind.Kind {
			case types.KindRange:
				return DecodeRange(v)
			case types.KindEnum:
				return v.Text()
			case types.KindDomain:
				return Decode(proto.NewValueRef(v.Raw, v.Format, kind.Elem))
			}
		}
	} else {
		switch v.TypeInfo.Name() {
		case "hstore":
			return DecodeHstore(v)
		case "citext":
			return DecodeString(v)
		}
	}

	return nil, err2.NewDecodeError(typeName(v), "no decoder for this type")
}

// Encode appends the binary wire encoding of val to buf, without a
// length prefix. The second return reports SQL NULL; a NULL leaves buf
// untouched and the caller writes the -1 length instead. info, when
// known, steers values with more than one wire shape (time.Time,
// untagged JSON) and supplies range element types; a nil info encodes
// by the Go type alone.
func Encode(buf []byte, info *types.TypeInfo, val interface{}) ([]byte, bool, error) {
	if val == nil {
		return buf, true, nil
	}

	switch v := val.(type) {
	case bool:
		return AppendBool(buf, v), false, nil
	case int8:
		return append(buf, byte(v)), false, nil
	case int16:
		return misc.AppendInt16(buf, v), false, nil
	case int32:
		return misc.AppendInt32(buf, v), false, nil
	case int64:
		return misc.AppendInt64(buf, v), false, nil
	case int:
		return misc.AppendInt64(buf, int64(v)), false, nil
	case float32:
		return AppendFloat32(buf, v), false, nil
	case float64:
		return AppendFloat64(buf, v), false, nil
	case string:
		return append(buf, v...), false, nil
	case []byte:
		return append(buf, v...), false, nil
	case uuid.UUID:
		return AppendUUID(buf, v), false, nil
	case time.Time:
		if info != nil && info.Equal(types.Date) {
			return AppendDate(buf, v)
		}
		return AppendTimestamp(buf, v)
	case TimeOfDay:
		return AppendTimeOfDay(buf, v), false, nil
	case Interval:
		return AppendInterval(buf, v), false, nil
	case time.Duration:
		iv, err := IntervalFromDuration(v)
		if err != nil {
			return buf, false, err
		}
		return AppendInterval(buf, iv), false, nil
	case Money:
		return AppendMoney(buf, v), false, nil
	case *apd.Decimal:
		return AppendNumeric(buf, v)
	case constant.Oid:
		return AppendOid(buf, v), false, nil
	case json.RawMessage:
		return AppendJSON(buf, info, v)
	case Range:
		return AppendRange(buf, info, v)
	case Hstore:
		return AppendHstore(buf, v)
	}

	return buf, false, err2.NewEncodeError(inferName(info), "no encoder for Go type %T", val)
}

// Infer returns the default wire type used when binding a Go value
// without an explicit declaration.
func Infer(val interface{}) *types.TypeInfo {
	switch val.(type) {
	case nil:
		return types.Unknown
	case bool:
		return types.Bool
	case int8:
		return types.Char
	case int16:
		return types.Int2
	case int32:
		return types.Int4
	case int64, int:
		return types.Int8
	case float32:
		return types.Float4
	case float64:
		return types.Float8
	case string:
		return types.Text
	case []byte:
		return types.Bytea
	case uuid.UUID:
		return types.Uuid
	case time.Time:
		return types.Timestamptz
	case TimeOfDay:
		return types.Time
	case Interval, time.Duration:
		return types.Interval
	case Money:
		return types.Money
	case *apd.Decimal:
		return types.Numeric
	case constant.Oid:
		return types.Oid
	case json.RawMessage:
		return types.Jsonb
	case Hstore:
		return hstoreType
	}
	return types.Unknown
}

func inferName(info *types.TypeInfo) string {
	if info == nil {
		return "unknown"
	}
	return info.Name()
}
