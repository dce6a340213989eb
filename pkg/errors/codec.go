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

package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnexpectedNull is returned when a SQL NULL arrives at a decoder
// that has no way to represent it.
var ErrUnexpectedNull = errors.New("unexpected null; try decoding into a nullable type")

// DecodeError reports a wire value that is malformed or out of the
// domain of the requested type. Type names the SQL type being decoded.
type DecodeError struct {
	Type    string
	Message string
}

func NewDecodeError(typ string, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Type: typ, Message: fmt.Sprintf(format, args...)}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding %s: %s", e.Type, e.Message)
}

// EncodeError reports a Go value that cannot be represented in the
// wire format of its SQL type.
type EncodeError struct {
	Type    string
	Message string
}

func NewEncodeError(typ string, format string, args ...interface{}) *EncodeError {
	return &EncodeError{Type: typ, Message: fmt.Sprintf(format, args...)}
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("error encoding %s: %s", e.Type, e.Message)
}

// TypeMismatchError reports a column whose declared SQL type is not
// compatible with the requested Go destination.
type TypeMismatchError struct {
	GoType   string
	Expected string
	Actual   string
}

func NewTypeMismatchError(goType, expected, actual string) *TypeMismatchError {
	return &TypeMismatchError{GoType: goType, Expected: expected, Actual: actual}
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("mismatched types; Go type %s expects SQL type %s but found %s",
		e.GoType, e.Expected, e.Actual)
}
