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

	"github.com/cockroachdb/apd/v3"

	err2 "github.com/cectc/pgpack/pkg/errors"
	"github.com/cectc/pgpack/pkg/misc"
	"github.com/cectc/pgpack/pkg/proto"
	"github.com/cectc/pgpack/pkg/types"
)

// NumericSign is the sign word of the NUMERIC wire format.
type NumericSign uint16

const (
	NumericPositive NumericSign = 0x0000
	NumericNegative NumericSign = 0x4000

	numericNaN = 0xC000
)

// Numeric is the NUMERIC wire representation: a sequence of base-10000
// digits with the most significant first. Weight is the power of 10000
// of the first digit, so a single digit with weight 1 reads as
// digit*10000. Scale is the count of decimal fraction digits meant for
// display. An empty digit sequence is the value zero.
type Numeric struct {
	NaN    bool
	Sign   NumericSign
	Weight int16
	Scale  int16
	Digits []int16
}

var tenThousand = apd.NewBigInt(10000)

// parseNumeric reads the wire layout
// [ndigits i16][weight i16][sign u16][dscale i16][digit i16]*.
func parseNumeric(raw []byte) (Numeric, error) {
	ndigits, pos, ok := misc.ReadInt16(raw, 0)
	if !ok {
		return Numeric{}, err2.NewDecodeError("numeric", "buffer too short for numeric header: %d bytes", len(raw))
	}
	weight, pos, ok := misc.ReadInt16(raw, pos)
	if !ok {
		return Numeric{}, err2.NewDecodeError("numeric", "buffer too short for numeric header: %d bytes", len(raw))
	}
	sign, pos, ok := misc.ReadUint16(raw, pos)
	if !ok {
		return Numeric{}, err2.NewDecodeError("numeric", "buffer too short for numeric header: %d bytes", len(raw))
	}
	scale, pos, ok := misc.ReadInt16(raw, pos)
	if !ok {
		return Numeric{}, err2.NewDecodeError("numeric", "buffer too short for numeric header: %d bytes", len(raw))
	}

	if sign == numericNaN {
		return Numeric{NaN: true}, nil
	}
	if NumericSign(sign) != NumericPositive && NumericSign(sign) != NumericNegative {
		return Numeric{}, err2.NewDecodeError("numeric", "invalid sign word 0x%04X", sign)
	}
	if ndigits < 0 {
		return Numeric{}, err2.NewDecodeError("numeric", "invalid digit count %d", ndigits)
	}

	digits := make([]int16, ndigits)
	for i := range digits {
		digits[i], pos, ok = misc.ReadInt16(raw, pos)
		if !ok {
			return Numeric{}, err2.NewDecodeError("numeric", "expected %d digits, found %d", ndigits, i)
		}
	}
	return Numeric{Sign: NumericSign(sign), Weight: weight, Scale: scale, Digits: digits}, nil
}

func (n Numeric) append(buf []byte) ([]byte, error) {
	if n.NaN {
		buf = misc.AppendInt16(buf, 0)
		buf = misc.AppendInt16(buf, 0)
		buf = misc.AppendUint16(buf, numericNaN)
		return misc.AppendInt16(buf, 0), nil
	}
	if len(n.Digits) > math.MaxInt16 {
		return buf, err2.NewEncodeError("numeric", "value has too many digits for the wire format: %d", len(n.Digits))
	}
	buf = misc.AppendInt16(buf, int16(len(n.Digits)))
	buf = misc.AppendInt16(buf, n.Weight)
	buf = misc.AppendUint16(buf, uint16(n.Sign))
	buf = misc.AppendInt16(buf, n.Scale)
	for _, d := range n.Digits {
		buf = misc.AppendInt16(buf, d)
	}
	return buf, nil
}

// Decimal converts the wire representation into an arbitrary-precision
// decimal. NaN passes through; the exponent is derived from weight and
// digit count alone, scale only matters for display.
func (n Numeric) Decimal() (*apd.Decimal, error) {
	if n.NaN {
		return &apd.Decimal{Form: apd.NaN}, nil
	}
	if len(n.Digits) == 0 {
		return apd.New(0, 0), nil
	}

	var coeff apd.BigInt
	for i, d := range n.Digits {
		if d < 0 || d > 9999 {
			return nil, err2.NewDecodeError("numeric", "digit %d out of range: %d", i, d)
		}
		coeff.Mul(&coeff, tenThousand)
		coeff.Add(&coeff, apd.NewBigInt(int64(d)))
	}

	exponent := 4 * (int(n.Weight) + 1 - len(n.Digits))
	out := apd.NewWithBigInt(&coeff, int32(exponent))
	out.Negative = n.Sign == NumericNegative
	return out, nil
}

// NumericFromDecimal converts a finite or NaN decimal into the wire
// representation. The decimal zero always normalizes to the canonical
// empty form, whatever its exponent or sign.
func NumericFromDecimal(d *apd.Decimal) (Numeric, error) {
	switch d.Form {
	case apd.NaN, apd.NaNSignaling:
		return Numeric{NaN: true}, nil
	case apd.Finite:
	default:
		return Numeric{}, err2.NewEncodeError("numeric", "infinite values have no numeric wire form")
	}
	if d.Coeff.Sign() == 0 {
		return Numeric{Sign: NumericPositive}, nil
	}

	// exp is the count of decimal fraction digits; negative when the
	// coefficient carries trailing integral zeros.
	exp := -int64(d.Exponent)
	base10 := d.Coeff.String()
	weight10 := int64(len(base10)) - exp

	scale := exp
	if scale < 0 {
		scale = 0
	}
	if scale > math.MaxInt16 {
		return Numeric{}, err2.NewEncodeError("numeric", "scale %d out of range", scale)
	}

	// The wire counts weight with an implicit +1, hence the asymmetric
	// division around zero.
	var weight int64
	if weight10 <= 0 {
		weight = weight10/4 - 1
	} else {
		weight = (weight10 - 1) / 4
	}
	if weight < math.MinInt16 || weight > math.MaxInt16 {
		return Numeric{}, err2.NewEncodeError("numeric", "weight %d out of range", weight)
	}

	// Chunk the base-10 digits in groups of four, aligning the groups
	// on the decimal point rather than on the first digit.
	offset := int(((weight10 % 4) + 4) % 4)
	digits := make([]int16, 0, len(base10)/4+1)

	if offset <= len(base10) {
		if offset > 0 {
			digits = append(digits, chunkToDigit(base10[:offset]))
		}
		rest := base10[offset:]
		for len(rest) > 0 {
			chunk := rest
			if len(chunk) > 4 {
				chunk = chunk[:4]
			}
			rest = rest[len(chunk):]
			digits = append(digits, chunkToDigit(chunk)*pow10[4-len(chunk)])
		}
	} else {
		// Fewer digits than the leading group wants; pad on the right
		// up to the group boundary.
		digits = append(digits, chunkToDigit(base10)*pow10[offset-len(base10)])
	}

	for len(digits) > 0 && digits[len(digits)-1] == 0 {
		digits = digits[:len(digits)-1]
	}

	sign := NumericPositive
	if d.Negative {
		sign = NumericNegative
	}
	return Numeric{Sign: sign, Scale: int16(scale), Weight: int16(weight), Digits: digits}, nil
}

var pow10 = [5]int16{1, 10, 100, 1000, 10000}

func chunkToDigit(chunk string) int16 {
	var n int16
	for i := 0; i < len(chunk); i++ {
		n = n*10 + int16(chunk[i]-'0')
	}
	return n
}

// DecodeNumeric reads a NUMERIC value into an arbitrary-precision
// decimal. NaN decodes to a NaN decimal.
func DecodeNumeric(v proto.ValueRef) (*apd.Decimal, error) {
	if err := compatible(v, "*apd.Decimal", types.Numeric); err != nil {
		return nil, err
	}
	if v.Format == proto.FormatBinary {
		raw, err := v.Bytes()
		if err != nil {
			return nil, err
		}
		n, err := parseNumeric(raw)
		if err != nil {
			return nil, err
		}
		return n.Decimal()
	}

	s, err := v.Text()
	if err != nil {
		return nil, err
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, err2.NewDecodeError(typeName(v), "%v", err)
	}
	return d, nil
}

// AppendNumeric encodes a decimal in the NUMERIC wire format.
func AppendNumeric(buf []byte, d *apd.Decimal) ([]byte, bool, error) {
	n, err := NumericFromDecimal(d)
	if err != nil {
		return buf, false, err
	}
	buf, err = n.append(buf)
	return buf, false, err
}
