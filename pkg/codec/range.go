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
	"fmt"
	"strings"

	err2 "github.com/cectc/pgpack/pkg/errors"
	"github.com/cectc/pgpack/pkg/misc"
	"github.com/cectc/pgpack/pkg/proto"
	"github.com/cectc/pgpack/pkg/types"
)

// Range wire flags.
// https://github.com/postgres/postgres/blob/2f48ede080f42b97b594fb14102c82ca1001b80c/src/include/utils/rangetypes.h#L35-L44
const (
	rangeEmpty        = 0x01
	rangeLowerInc     = 0x02
	rangeUpperInc     = 0x04
	rangeLowerInf     = 0x08
	rangeUpperInf     = 0x10
	rangeLowerNull    = 0x20 // not used
	rangeUpperNull    = 0x40 // not used
	rangeContainEmpty = 0x80 // internal
)

// BoundKind tells how one end of a range is delimited.
type BoundKind uint8

const (
	BoundUnbounded BoundKind = iota
	BoundIncluded
	BoundExcluded
)

// Bound is one end of a range. Value is nil for an unbounded end and
// otherwise holds the decoded element value.
type Bound struct {
	Kind  BoundKind
	Value interface{}
}

func Included(v interface{}) Bound { return Bound{Kind: BoundIncluded, Value: v} }
func Excluded(v interface{}) Bound { return Bound{Kind: BoundExcluded, Value: v} }
func Unbounded() Bound             { return Bound{Kind: BoundUnbounded} }

// Range is a range value over some element type. Empty marks the
// canonical empty range, which has no bounds at all; it is distinct
// from the unbounded-both-ends range.
type Range struct {
	Empty bool
	Lower Bound
	Upper Bound
}

func (r Range) String() string {
	if r.Empty {
		return "empty"
	}
	var b strings.Builder
	switch r.Lower.Kind {
	case BoundIncluded:
		fmt.Fprintf(&b, "[%v,", r.Lower.Value)
	case BoundExcluded:
		fmt.Fprintf(&b, "(%v,", r.Lower.Value)
	default:
		b.WriteString("(,")
	}
	switch r.Upper.Kind {
	case BoundIncluded:
		fmt.Fprintf(&b, "%v]", r.Upper.Value)
	case BoundExcluded:
		fmt.Fprintf(&b, "%v)", r.Upper.Value)
	default:
		b.WriteString(")")
	}
	return b.String()
}

// rangeElement finds the element type of a range TypeInfo.
func rangeElement(info *types.TypeInfo) (*types.TypeInfo, bool) {
	if info == nil {
		return nil, false
	}
	kind, ok := info.TryKind()
	if !ok || kind == nil || kind.Kind != types.KindRange {
		return nil, false
	}
	return kind.Elem, true
}

// DecodeRange reads a range value of any element type. The element
// type comes from the range's own TypeInfo, so the value must carry a
// resolved range type.
func DecodeRange(v proto.ValueRef) (Range, error) {
	elem, ok := rangeElement(v.TypeInfo)
	if !ok {
		name := "unknown"
		if v.TypeInfo != nil {
			name = v.TypeInfo.DisplayName()
		}
		return Range{}, err2.NewDecodeError(typeName(v), "unexpected non-range type %s", name)
	}

	if v.Format == proto.FormatBinary {
		return decodeRangeBinary(v, elem)
	}
	return decodeRangeText(v, elem)
}

func decodeRangeBinary(v proto.ValueRef, elem *types.TypeInfo) (Range, error) {
	raw, err := v.Bytes()
	if err != nil {
		return Range{}, err
	}
	flags, pos, ok := misc.ReadByte(raw, 0)
	if !ok {
		return Range{}, err2.NewDecodeError(typeName(v), "missing range flags byte")
	}
	if flags&rangeEmpty != 0 {
		return Range{Empty: true}, nil
	}

	out := Range{Lower: Unbounded(), Upper: Unbounded()}
	if flags&rangeLowerInf == 0 {
		value, next, ok := proto.ReadValueRef(raw, pos, v.Format, elem)
		if !ok {
			return Range{}, err2.NewDecodeError(typeName(v), "buffer too short for the lower bound")
		}
		pos = next
		decoded, err := Decode(value)
		if err != nil {
			return Range{}, err
		}
		if flags&rangeLowerInc != 0 {
			out.Lower = Included(decoded)
		} else {
			out.Lower = Excluded(decoded)
		}
	}
	if flags&rangeUpperInf == 0 {
		value, _, ok := proto.ReadValueRef(raw, pos, v.Format, elem)
		if !ok {
			return Range{}, err2.NewDecodeError(typeName(v), "buffer too short for the upper bound")
		}
		decoded, err := Decode(value)
		if err != nil {
			return Range{}, err
		}
		if flags&rangeUpperInc != 0 {
			out.Upper = Included(decoded)
		} else {
			out.Upper = Excluded(decoded)
		}
	}
	return out, nil
}

// decodeRangeText parses the text literal form, e.g. [1,10) or
// ["a b",). Elements may be double quoted, with doubled quotes and
// backslash escapes inside.
// https://github.com/postgres/postgres/blob/2f48ede080f42b97b594fb14102c82ca1001b80c/src/backend/utils/adt/rangetypes.c#L2046
func decodeRangeText(v proto.ValueRef, elem *types.TypeInfo) (Range, error) {
	s, err := v.Text()
	if err != nil {
		return Range{}, err
	}
	if s == "empty" {
		return Range{Empty: true}, nil
	}
	if len(s) < 2 {
		return Range{}, err2.NewDecodeError(typeName(v), "range literal %q is too short", s)
	}

	lowerDelim := s[0]
	upperDelim := s[len(s)-1]
	body := s[1 : len(s)-1]

	var lower, upper interface{}
	var haveLower, haveUpper bool

	var element strings.Builder
	count := 0
	quoted := false
	inQuotes := false
	inEscape := false
	var prev rune

	flush := func() error {
		count++
		if element.Len() == 0 && !quoted {
			return nil
		}
		decoded, err := Decode(proto.NewValueRef([]byte(element.String()), proto.FormatText, elem))
		if err != nil {
			return err
		}
		switch count {
		case 1:
			lower, haveLower = decoded, true
		case 2:
			upper, haveUpper = decoded, true
		default:
			return err2.NewDecodeError(typeName(v), "more than 2 elements found in a range")
		}
		return nil
	}

	for _, ch := range body {
		switch {
		case inEscape:
			element.WriteRune(ch)
			inEscape = false
		case ch == '"' && inQuotes:
			inQuotes = false
		case ch == '"':
			inQuotes = true
			quoted = true
			if prev == '"' {
				element.WriteRune('"')
			}
		case ch == '\\':
			inEscape = true
		case ch == ',' && !inQuotes:
			if err := flush(); err != nil {
				return Range{}, err
			}
			element.Reset()
			quoted = false
		default:
			element.WriteRune(ch)
		}
		prev = ch
	}
	if err := flush(); err != nil {
		return Range{}, err
	}

	out := Range{Lower: Unbounded(), Upper: Unbounded()}
	out.Lower, err = parseBound(v, lowerDelim, lower, haveLower)
	if err != nil {
		return Range{}, err
	}
	out.Upper, err = parseBound(v, upperDelim, upper, haveUpper)
	if err != nil {
		return Range{}, err
	}
	return out, nil
}

func parseBound(v proto.ValueRef, delim byte, value interface{}, have bool) (Bound, error) {
	if !have {
		return Unbounded(), nil
	}
	switch delim {
	case '(', ')':
		return Excluded(value), nil
	case '[', ']':
		return Included(value), nil
	}
	return Bound{}, err2.NewDecodeError(typeName(v),
		"expected `(`, `)`, `[`, or `]` but found `%c` for range literal", delim)
}

// AppendRange encodes a range in the binary format: the flags byte,
// then each present bound as a length-prefixed element. info supplies
// the element type; with a nil info elements encode by Go type alone.
func AppendRange(buf []byte, info *types.TypeInfo, r Range) ([]byte, bool, error) {
	var elem *types.TypeInfo
	if e, ok := rangeElement(info); ok {
		elem = e
	}

	if r.Empty {
		return append(buf, rangeEmpty), false, nil
	}

	var flags byte
	switch r.Lower.Kind {
	case BoundIncluded:
		flags |= rangeLowerInc
	case BoundUnbounded:
		flags |= rangeLowerInf
	}
	switch r.Upper.Kind {
	case BoundIncluded:
		flags |= rangeUpperInc
	case BoundUnbounded:
		flags |= rangeUpperInf
	}
	buf = append(buf, flags)

	var err error
	if buf, err = appendRangeBound(buf, info, elem, r.Lower); err != nil {
		return buf, false, err
	}
	if buf, err = appendRangeBound(buf, info, elem, r.Upper); err != nil {
		return buf, false, err
	}
	return buf, false, nil
}

func appendRangeBound(buf []byte, info, elem *types.TypeInfo, b Bound) ([]byte, error) {
	if b.Kind == BoundUnbounded {
		return buf, nil
	}
	if b.Value == nil {
		return buf, err2.NewEncodeError(inferName(info), "range bound must not be null")
	}
	buf, offset := misc.BeginLengthPrefix(buf)
	buf, isNull, err := Encode(buf, elem, b.Value)
	if err != nil {
		return buf, err
	}
	if isNull {
		return buf, err2.NewEncodeError(inferName(info), "range bound must not be null")
	}
	return misc.EndLengthPrefix(buf, offset), nil
}
