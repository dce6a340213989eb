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

package proto

import (
	err2 "github.com/cectc/pgpack/pkg/errors"
	"github.com/cectc/pgpack/pkg/misc"
	"github.com/cectc/pgpack/pkg/types"
)

// Format tags how a wire value is rendered.
type Format byte

const (
	FormatText   Format = 0
	FormatBinary Format = 1
)

func (f Format) String() string {
	if f == FormatBinary {
		return "binary"
	}
	return "text"
}

type (
	// Value is a wire value that owns its bytes and can outlive the
	// row buffer it was read from. Raw == nil means SQL NULL.
	Value struct {
		TypeInfo *types.TypeInfo
		Format   Format
		Raw      []byte
	}

	// ValueRef is a wire value borrowing its bytes from a row
	// buffer. It is constructed per column access and must not be
	// held across reads of the same connection; call ToOwned to keep
	// it.
	ValueRef struct {
		TypeInfo *types.TypeInfo
		Format   Format
		Raw      []byte
	}

	// Field describes one column of a row description.
	Field struct {
		Name         string
		TableOid     uint32
		AttrNum      int16
		TypeInfo     *types.TypeInfo
		TypeSize     int16
		TypeModifier int32
		Format       Format
	}
)

// NewValueRef wraps raw column bytes. raw == nil denotes SQL NULL.
func NewValueRef(raw []byte, format Format, typeInfo *types.TypeInfo) ValueRef {
	return ValueRef{TypeInfo: typeInfo, Format: format, Raw: raw}
}

func (v ValueRef) IsNull() bool {
	return v.Raw == nil
}

// Bytes returns the raw bytes, or ErrUnexpectedNull for SQL NULL.
func (v ValueRef) Bytes() ([]byte, error) {
	if v.Raw == nil {
		return nil, err2.ErrUnexpectedNull
	}
	return v.Raw, nil
}

// Text returns the raw bytes as a string, or ErrUnexpectedNull for
// SQL NULL.
func (v ValueRef) Text() (string, error) {
	if v.Raw == nil {
		return "", err2.ErrUnexpectedNull
	}
	return string(v.Raw), nil
}

// ToOwned copies the borrowed bytes into a Value that can be stored
// beyond the lifetime of the row buffer.
func (v ValueRef) ToOwned() Value {
	owned := Value{TypeInfo: v.TypeInfo, Format: v.Format}
	if v.Raw != nil {
		owned.Raw = make([]byte, len(v.Raw))
		copy(owned.Raw, v.Raw)
	}
	return owned
}

func (v Value) IsNull() bool {
	return v.Raw == nil
}

// Ref borrows the owned bytes without copying.
func (v Value) Ref() ValueRef {
	return ValueRef{TypeInfo: v.TypeInfo, Format: v.Format, Raw: v.Raw}
}

// ReadValueRef reads one length-prefixed column value from data at
// pos. A length of -1 denotes SQL NULL, yielding a nil Raw slice that
// still carries the type info and format.
func ReadValueRef(data []byte, pos int, format Format, typeInfo *types.TypeInfo) (ValueRef, int, bool) {
	length, pos, ok := misc.ReadInt32(data, pos)
	if !ok {
		return ValueRef{}, 0, false
	}
	if length < 0 {
		return NewValueRef(nil, format, typeInfo), pos, true
	}
	raw, pos, ok := misc.ReadBytes(data, pos, int(length))
	if !ok {
		return ValueRef{}, 0, false
	}
	return NewValueRef(raw, format, typeInfo), pos, true
}
