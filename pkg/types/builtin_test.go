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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cectc/pgpack/pkg/constant"
)

func TestByOid(t *testing.T) {
	info, ok := ByOid(constant.NumericOid)
	assert.True(t, ok)
	assert.Same(t, Numeric, info)

	info, ok = ByOid(constant.UnknownOid)
	assert.True(t, ok)
	assert.Same(t, Unknown, info)

	// Extension oids are assigned at CREATE EXTENSION time and are
	// never in the static table.
	_, ok = ByOid(16384)
	assert.False(t, ok)
}

func TestBuiltinTableIntegrity(t *testing.T) {
	assert.Len(t, builtinByOid, 92)
	assert.Len(t, builtinByName, 92)

	for oid, info := range builtinByOid {
		resolved, ok := info.TryOid()
		assert.True(t, ok)
		assert.Equal(t, oid, resolved)

		byName, ok := ByName(info.Name())
		assert.True(t, ok, "name %q", info.Name())
		assert.Same(t, info, byName)

		// Every array entry follows the `_elem` naming convention
		// and resolves its element through the kind.
		if elem, ok := info.TryArrayElement(); ok {
			assert.Equal(t, "_"+elem.Name(), info.Name())
		}
	}
}

func TestRangeElementTypes(t *testing.T) {
	expected := map[*TypeInfo]*TypeInfo{
		Int4Range: Int4,
		NumRange:  Numeric,
		TsRange:   Timestamp,
		TstzRange: Timestamptz,
		DateRange: Date,
		Int8Range: Int8,
	}

	for rangeType, elem := range expected {
		kind := rangeType.Kind()
		assert.Equal(t, KindRange, kind.Kind)
		assert.Same(t, elem, kind.Elem, "range %s", rangeType)
	}
}
