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
)

func TestNameEqual(t *testing.T) {
	testCases := []struct {
		left     string
		right    string
		expected bool
	}{
		{"foo", "foo", true},
		{"foo", "Foo", true},
		{"foo", "FOO", true},
		{"foo", `"foo"`, true},
		{"foo", `"Foo"`, false},
		{"foo", "foo.foo", false},
		{"foo.foo", "foo.foo", true},
		{"foo.foo", "foo.Foo", true},
		{"foo.foo", "foo.FOO", true},
		{"foo.foo", "Foo.foo", true},
		{"foo.foo", "Foo.Foo", true},
		{"foo.foo", "FOO.FOO", true},
		{"foo.foo", "foo", false},
		{"foo.foo", `foo."foo"`, true},
		{"foo.foo", `foo."Foo"`, false},
		{"foo.foo", `foo."FOO"`, false},
		{`U&"foo"`, `U&"foo"`, true},
		{`U&"foo"`, "foo", false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, nameEqual(tc.left, tc.right),
			"nameEqual(%q, %q)", tc.left, tc.right)
		assert.Equal(t, tc.expected, nameEqual(tc.right, tc.left),
			"nameEqual(%q, %q)", tc.right, tc.left)
	}
}

func TestNameEqualEscapedQuote(t *testing.T) {
	// A doubled quotation mark inside a quoted segment is a literal
	// quote character and stays case sensitive.
	assert.True(t, nameEqual(`"a""b"`, `"a""b"`))
	assert.False(t, nameEqual(`"a""b"`, `"A""b"`))
	assert.False(t, nameEqual(`"a""b"`, "ab"))
}
