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
	"github.com/pkg/errors"

	"github.com/cectc/pgpack/pkg/proto"
)

var (
	_ proto.Result = (*Result)(nil)
	_ proto.Row    = (*Row)(nil)
)

// Result is the fully collected outcome of one executed command. Its
// values own their bytes and stay valid after the connection moves on.
type Result struct {
	fields       []proto.Field
	rows         []proto.Row
	rowsAffected uint64
}

func (r *Result) Fields() []proto.Field {
	return r.fields
}

func (r *Result) Rows() []proto.Row {
	return r.rows
}

// RowsAffected reports the count parsed from the command completion
// tag. A query string with several statements reports their sum.
func (r *Result) RowsAffected() uint64 {
	return r.rowsAffected
}

// Row is one decoded data row.
type Row struct {
	fields []proto.Field
	values []proto.Value
}

func (r *Row) Fields() []proto.Field {
	return r.fields
}

// Value borrows the i'th column. ToOwned the result to keep it.
func (r *Row) Value(i int) (proto.ValueRef, error) {
	if i < 0 || i >= len(r.values) {
		return proto.ValueRef{}, errors.Errorf("column index %d out of range, the row has %d columns", i, len(r.values))
	}
	return r.values[i].Ref(), nil
}
