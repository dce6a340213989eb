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

// Package types models the identity of server-side data types. A type
// is known either statically (built-in catalog entries, or an
// extension type realized through a catalog lookup) or only by a
// declaration that a live connection has yet to resolve.
package types

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/cectc/pgpack/pkg/constant"
)

type declKind uint8

const (
	declRealized declKind = iota // built-in, or resolved against the catalog
	declWithOid                  // object id known, definition unresolved
	declWithName                 // known only by catalog name
	declArrayOf                  // array over a named element type
)

// TypeInfo identifies a server-side type. Values are immutable after
// construction; resolving a declaration produces a new, semantically
// distinct TypeInfo rather than mutating the declaration in place.
type TypeInfo struct {
	decl     declKind
	oid      constant.Oid
	name     string
	display  string
	elemName string
	kind     *TypeKind
}

// WithOid declares a type by object id alone. The id is not checked
// against the built-in catalog; use ByOid for that. Note that ids of
// extension types depend on the order extensions were created in and
// are not stable across databases.
func WithOid(oid constant.Oid) *TypeInfo {
	return &TypeInfo{decl: declWithOid, oid: oid}
}

// WithName declares a type by its catalog name. The object id is
// fetched from the server on first use and cached per connection.
func WithName(name string) *TypeInfo {
	return &TypeInfo{decl: declWithName, name: name}
}

// ArrayOf declares an array type by the name of its element type.
func ArrayOf(elemName string) *TypeInfo {
	return &TypeInfo{decl: declArrayOf, name: elemName + "[]", elemName: elemName}
}

// NewCustom realizes an extension type from a catalog lookup result.
func NewCustom(oid constant.Oid, name string, kind *TypeKind) *TypeInfo {
	return &TypeInfo{decl: declRealized, oid: oid, name: name, kind: kind}
}

// TryOid returns the object id if it is statically known. It is not
// known for by-name and array-of-name declarations.
func (t *TypeInfo) TryOid() (constant.Oid, bool) {
	switch t.decl {
	case declRealized, declWithOid:
		return t.oid, true
	default:
		return 0, false
	}
}

// Name returns the catalog name of the type, or "?" when only the
// object id is known.
func (t *TypeInfo) Name() string {
	if t.decl == declWithOid {
		return "?"
	}
	return t.name
}

// DisplayName returns the SQL-facing spelling of the type name.
func (t *TypeInfo) DisplayName() string {
	if t.display != "" {
		return t.display
	}
	return t.Name()
}

func (t *TypeInfo) String() string {
	return t.DisplayName()
}

// IsVoid reports whether this is the void pseudo type.
func (t *TypeInfo) IsVoid() bool {
	return t.decl == declRealized && t.oid == constant.VoidOid
}

// Kind returns the definition of this type. Calling it on an
// unresolved declaration is a programming bug and panics.
func (t *TypeInfo) Kind() *TypeKind {
	switch t.decl {
	case declRealized:
		return t.kind
	case declWithOid:
		panic(errors.Errorf("(bug) use of unresolved type declaration [oid=%d]", t.oid))
	case declWithName:
		panic(errors.Errorf("(bug) use of unresolved type declaration [name=%s]", t.name))
	default:
		panic(errors.Errorf("(bug) use of unresolved type declaration [array of=%s]", t.elemName))
	}
}

// TryKind returns the definition of this type if the declaration has
// been realized.
func (t *TypeInfo) TryKind() (*TypeKind, bool) {
	if t.decl != declRealized {
		return nil, false
	}
	return t.kind, true
}

// TryArrayElement returns the element type if this is an array type.
func (t *TypeInfo) TryArrayElement() (*TypeInfo, bool) {
	switch t.decl {
	case declRealized:
		if t.kind != nil && t.kind.Kind == KindArray {
			return t.kind.Elem, true
		}
		return nil, false
	case declWithName:
		// LEGACY: infer the array element name from a `_` prefix.
		if strings.HasPrefix(t.name, "_") {
			return WithName(t.name[1:]), true
		}
		return nil, false
	case declArrayOf:
		return WithName(t.elemName), true
	default:
		return nil, false
	}
}

// Equal compares two types leniently: if exactly one side is an
// unresolved by-id declaration the two cannot be compared at all, and
// Equal treats them as compatible. Text-protocol paths depend on this
// relaxation because they cannot resolve object ids before comparing.
func (t *TypeInfo) Equal(other *TypeInfo) bool {
	return t.eqImpl(other, true)
}

// TypeEqual compares two types exactly, without the by-id relaxation
// applied by Equal.
func (t *TypeInfo) TypeEqual(other *TypeInfo) bool {
	return t.eqImpl(other, false)
}

// eqImpl compares first by object id, then by array element, then by
// name.
func (t *TypeInfo) eqImpl(other *TypeInfo, soft bool) bool {
	a, okA := t.TryOid()
	b, okB := other.TryOid()
	if okA && okB {
		return a == b
	}

	if soft && (t.decl == declWithOid || other.decl == declWithOid) {
		// One side is known only by object id, the other only by
		// name, so there is nothing to compare them on. Opt out of
		// type checking.
		return true
	}

	if elemA, ok := t.TryArrayElement(); ok {
		if elemB, ok := other.TryArrayElement(); ok {
			return elemA.Equal(elemB)
		}
	}

	return nameEqual(t.Name(), other.Name())
}
