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
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/cectc/pgpack/pkg/constant"
	err2 "github.com/cectc/pgpack/pkg/errors"
	"github.com/cectc/pgpack/pkg/misc"
	"github.com/cectc/pgpack/pkg/proto"
	"github.com/cectc/pgpack/pkg/types"
)

// DecodeBool reads a BOOL value. Binary is a single byte, text is
// strictly "t" or "f".
func DecodeBool(v proto.ValueRef) (bool, error) {
	if err := compatible(v, "bool", types.Bool); err != nil {
		return false, err
	}
	switch v.Format {
	case proto.FormatBinary:
		raw, err := v.Bytes()
		if err != nil {
			return false, err
		}
		return raw[0] != 0, nil
	default:
		s, err := v.Text()
		if err != nil {
			return false, err
		}
		switch s {
		case "t":
			return true, nil
		case "f":
			return false, nil
		}
		return false, err2.NewDecodeError(typeName(v), "unexpected value %q for boolean", s)
	}
}

func AppendBool(buf []byte, b bool) []byte {
	if b {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// decodeIntAny reads an integer of any width the server may produce.
// Binary values are sign extended from 1 to 8 bytes; zero-length and
// over-long buffers are rejected.
func decodeIntAny(v proto.ValueRef) (int64, error) {
	if v.Format == proto.FormatText {
		s, err := v.Text()
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, err2.NewDecodeError(typeName(v), "%v", err)
		}
		return n, nil
	}

	raw, err := v.Bytes()
	if err != nil {
		return 0, err
	}
	switch {
	case len(raw) == 0:
		return 0, err2.NewDecodeError(typeName(v), "Value Buffer found empty while decoding to integer type")
	case len(raw) > 8:
		return 0, err2.NewDecodeError(typeName(v),
			"Value Buffer exceeds 8 bytes while decoding to integer type. Buffer size = %d bytes ", len(raw))
	}

	// Sign extend from the most significant bit of the first byte.
	n := int64(int8(raw[0]))
	for _, b := range raw[1:] {
		n = n<<8 | int64(b)
	}
	return n, nil
}

// DecodeInt8 reads a "char" value, the single byte catalog type. In
// text mode the empty string is zero, a backslash prefix marks an
// octal escape, and anything else is taken as its first byte.
func DecodeInt8(v proto.ValueRef) (int8, error) {
	if err := compatible(v, "int8", types.Char); err != nil {
		return 0, err
	}
	if v.Format == proto.FormatBinary {
		n, err := decodeIntAny(v)
		if err != nil {
			return 0, err
		}
		if n < math.MinInt8 || n > math.MaxInt8 {
			return 0, err2.NewDecodeError(typeName(v), "value %d out of range for 1 byte integer", n)
		}
		return int8(n), nil
	}

	s, err := v.Text()
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "\\") {
		n, err := strconv.ParseInt(strings.TrimLeft(s, "\\"), 8, 8)
		if err != nil {
			return 0, err2.NewDecodeError(typeName(v), "%v", err)
		}
		return int8(n), nil
	}
	return int8(s[0]), nil
}

func DecodeInt16(v proto.ValueRef) (int16, error) {
	if err := compatible(v, "int16", types.Int2); err != nil {
		return 0, err
	}
	n, err := decodeIntAny(v)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt16 || n > math.MaxInt16 {
		return 0, err2.NewDecodeError(typeName(v), "value %d out of range for 2 byte integer", n)
	}
	return int16(n), nil
}

func DecodeInt32(v proto.ValueRef) (int32, error) {
	if err := compatible(v, "int32", types.Int4); err != nil {
		return 0, err
	}
	n, err := decodeIntAny(v)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, err2.NewDecodeError(typeName(v), "value %d out of range for 4 byte integer", n)
	}
	return int32(n), nil
}

func DecodeInt64(v proto.ValueRef) (int64, error) {
	if err := compatible(v, "int64", types.Int8); err != nil {
		return 0, err
	}
	return decodeIntAny(v)
}

// DecodeFloat32 reads a FLOAT4 value.
func DecodeFloat32(v proto.ValueRef) (float32, error) {
	if err := compatible(v, "float32", types.Float4); err != nil {
		return 0, err
	}
	switch v.Format {
	case proto.FormatBinary:
		raw, err := v.Bytes()
		if err != nil {
			return 0, err
		}
		bits, _, ok := misc.ReadUint32(raw, 0)
		if !ok {
			return 0, err2.NewDecodeError(typeName(v), "expected 4 bytes, got %d", len(raw))
		}
		return math.Float32frombits(bits), nil
	default:
		s, err := v.Text()
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, err2.NewDecodeError(typeName(v), "%v", err)
		}
		return float32(f), nil
	}
}

// DecodeFloat64 reads a FLOAT8 value.
func DecodeFloat64(v proto.ValueRef) (float64, error) {
	if err := compatible(v, "float64", types.Float8); err != nil {
		return 0, err
	}
	switch v.Format {
	case proto.FormatBinary:
		raw, err := v.Bytes()
		if err != nil {
			return 0, err
		}
		bits, _, ok := misc.ReadUint64(raw, 0)
		if !ok {
			return 0, err2.NewDecodeError(typeName(v), "expected 8 bytes, got %d", len(raw))
		}
		return math.Float64frombits(bits), nil
	default:
		s, err := v.Text()
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err2.NewDecodeError(typeName(v), "%v", err)
		}
		return f, nil
	}
}

func AppendFloat32(buf []byte, f float32) []byte {
	return misc.AppendUint32(buf, math.Float32bits(f))
}

func AppendFloat64(buf []byte, f float64) []byte {
	return misc.AppendUint64(buf, math.Float64bits(f))
}

// DecodeOid reads an OID value, the unsigned catalog object id.
func DecodeOid(v proto.ValueRef) (constant.Oid, error) {
	if err := compatible(v, "constant.Oid", types.Oid); err != nil {
		return 0, err
	}
	switch v.Format {
	case proto.FormatBinary:
		raw, err := v.Bytes()
		if err != nil {
			return 0, err
		}
		n, _, ok := misc.ReadUint32(raw, 0)
		if !ok {
			return 0, err2.NewDecodeError(typeName(v), "expected 4 bytes, got %d", len(raw))
		}
		return constant.Oid(n), nil
	default:
		s, err := v.Text()
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, err2.NewDecodeError(typeName(v), "%v", err)
		}
		return constant.Oid(n), nil
	}
}

func AppendOid(buf []byte, oid constant.Oid) []byte {
	return misc.AppendUint32(buf, uint32(oid))
}

// Money is a MONEY amount in the smallest currency fraction of the
// server locale, whole cents for most locales. The wire carries the
// raw count; scaling to a decimal needs the locale's fraction digits.
type Money int64

// Decimal places the amount at fracDigits fractional digits.
func (m Money) Decimal(fracDigits int32) *apd.Decimal {
	return apd.New(int64(m), -fracDigits)
}

// MoneyFromDecimal rescales d to fracDigits fractional digits and
// returns the fraction count. Rounding follows the default half even
// mode; amounts beyond the int64 fraction range are an error.
func MoneyFromDecimal(d *apd.Decimal, fracDigits int32) (Money, error) {
	ctx := apd.BaseContext.WithPrecision(50)
	var cents apd.Decimal
	if _, err := ctx.Quantize(&cents, d, -fracDigits); err != nil {
		return 0, err2.NewEncodeError("money", "%v", err)
	}
	if cents.Form != apd.Finite || !cents.Coeff.IsInt64() {
		return 0, err2.NewEncodeError("money", "amount %s out of range for money", d)
	}
	n := cents.Coeff.Int64()
	if cents.Negative {
		n = -n
	}
	return Money(n), nil
}

// DecodeMoney reads a MONEY value. Text results carry a locale
// formatted string the driver cannot reverse, so only binary is
// supported.
func DecodeMoney(v proto.ValueRef) (Money, error) {
	if err := compatible(v, "codec.Money", types.Money); err != nil {
		return 0, err
	}
	if v.Format == proto.FormatText {
		return 0, err2.NewDecodeError(typeName(v), "reading a money value in text format is not supported")
	}
	raw, err := v.Bytes()
	if err != nil {
		return 0, err
	}
	cents, _, ok := misc.ReadInt64(raw, 0)
	if !ok {
		return 0, err2.NewDecodeError(typeName(v), "expected 8 bytes, got %d", len(raw))
	}
	return Money(cents), nil
}

func AppendMoney(buf []byte, m Money) []byte {
	return misc.AppendInt64(buf, int64(m))
}

// DecodeVoid reads a VOID value, which carries no payload. RECORD is
// accepted too so that an empty row type can land here.
func DecodeVoid(v proto.ValueRef) error {
	return compatible(v, "void", types.Void, types.Record)
}
