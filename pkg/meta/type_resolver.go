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

// Package meta resolves type declarations against the catalog of a
// live connection. Built-in types never hit the wire; extension types
// (hstore, citext, user-defined enums and composites) are fetched from
// pg_type once and cached per resolver.
package meta

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/cectc/pgpack/pkg/codec"
	"github.com/cectc/pgpack/pkg/constant"
	"github.com/cectc/pgpack/pkg/log"
	"github.com/cectc/pgpack/pkg/proto"
	"github.com/cectc/pgpack/pkg/types"
)

var ExpireTime = 15 * time.Minute

// maxDepth bounds recursion through element, base and field types. A
// deeper chain than this in a real catalog means a definition cycle.
const maxDepth = 8

const typeQuery = `SELECT t.oid, t.typname, t.typtype, t.typcategory, t.typbasetype, t.typelem, t.typrelid, r.rngsubtype ` +
	`FROM pg_catalog.pg_type t LEFT JOIN pg_catalog.pg_range r ON r.rngtypid = t.oid WHERE %s`

// Resolver realizes type declarations through one connection. A
// Resolver is bound to its connection because extension type oids are
// assigned per database and are only meaningful there.
type Resolver struct {
	conn proto.Conn

	// typeCache holds realized TypeInfos under both "name:" and
	// "oid:" keys.
	typeCache *cache.Cache
}

func NewResolver(conn proto.Conn) *Resolver {
	return &Resolver{
		conn:      conn,
		typeCache: cache.New(ExpireTime, 10*ExpireTime),
	}
}

// TypeInfoByName resolves a type by catalog name: built-in table
// first, then the cache, then a catalog lookup.
func (r *Resolver) TypeInfoByName(ctx context.Context, name string) (*types.TypeInfo, error) {
	if info, ok := types.ByName(name); ok {
		return info, nil
	}
	if cached, ok := r.typeCache.Get(nameKey(name)); ok {
		return cached.(*types.TypeInfo), nil
	}
	info, err := r.fetch(ctx, fmt.Sprintf("t.typname = %s", quoteLiteral(name)), 0)
	if err != nil {
		return nil, err
	}
	r.store(info)
	return info, nil
}

// TypeInfoByOid resolves a type by object id.
func (r *Resolver) TypeInfoByOid(ctx context.Context, oid constant.Oid) (*types.TypeInfo, error) {
	if info, ok := types.ByOid(oid); ok {
		return info, nil
	}
	if cached, ok := r.typeCache.Get(oidKey(oid)); ok {
		return cached.(*types.TypeInfo), nil
	}
	info, err := r.fetch(ctx, fmt.Sprintf("t.oid = %d", oid), 0)
	if err != nil {
		return nil, err
	}
	r.store(info)
	return info, nil
}

// Resolve realizes a type declaration. Already realized declarations
// come back unchanged; by-oid, by-name and array-of-name declarations
// are looked up.
func (r *Resolver) Resolve(ctx context.Context, info *types.TypeInfo) (*types.TypeInfo, error) {
	if _, ok := info.TryKind(); ok {
		return info, nil
	}
	if oid, ok := info.TryOid(); ok {
		return r.TypeInfoByOid(ctx, oid)
	}
	if elem, ok := info.TryArrayElement(); ok {
		// Arrays are cataloged under the underscore spelling of
		// their element name.
		return r.TypeInfoByName(ctx, "_"+elem.Name())
	}
	return r.TypeInfoByName(ctx, info.Name())
}

// Refresh re-fetches a type by name, bypassing and then replacing the
// cache. It reports whether the definition differs from what the
// cache held, which happens after DROP TYPE / CREATE TYPE cycles
// while oids get reassigned.
func (r *Resolver) Refresh(ctx context.Context, name string) (info *types.TypeInfo, changed bool, err error) {
	fresh, err := r.fetch(ctx, fmt.Sprintf("t.typname = %s", quoteLiteral(name)), 0)
	if err != nil {
		return nil, false, err
	}
	if cached, ok := r.typeCache.Get(nameKey(name)); ok {
		changed = !cmp.Equal(cached.(*types.TypeInfo), fresh,
			cmp.AllowUnexported(types.TypeInfo{}))
		if changed {
			log.Infof("definition of type %q changed since it was cached", name)
		}
	}
	r.store(fresh)
	return fresh, changed, nil
}

func (r *Resolver) store(info *types.TypeInfo) {
	r.typeCache.Set(nameKey(info.Name()), info, cache.DefaultExpiration)
	if oid, ok := info.TryOid(); ok {
		r.typeCache.Set(oidKey(oid), info, cache.DefaultExpiration)
	}
}

func nameKey(name string) string {
	return "name:" + name
}

func oidKey(oid constant.Oid) string {
	return "oid:" + strconv.FormatUint(uint64(oid), 10)
}

// fetch runs one pg_type lookup and realizes the resulting row,
// recursing into element, base and field types as the definition
// demands.
func (r *Resolver) fetch(ctx context.Context, where string, depth int) (*types.TypeInfo, error) {
	if depth > maxDepth {
		return nil, errors.Errorf("type definition nests deeper than %d levels", maxDepth)
	}
	result, err := r.conn.Execute(ctx, fmt.Sprintf(typeQuery, where))
	if err != nil {
		return nil, err
	}
	rows := result.Rows()
	if len(rows) == 0 {
		return nil, errors.Errorf("no type in pg_type where %s", where)
	}
	if len(rows) > 1 {
		return nil, errors.Errorf("%d types in pg_type where %s; qualify the name", len(rows), where)
	}
	row := rows[0]

	oid, err := columnOid(row, 0)
	if err != nil {
		return nil, err
	}
	name, err := columnString(row, 1)
	if err != nil {
		return nil, err
	}
	typtype, err := columnChar(row, 2)
	if err != nil {
		return nil, err
	}
	typcategory, err := columnChar(row, 3)
	if err != nil {
		return nil, err
	}

	kind, err := r.realizeKind(ctx, row, typtype, typcategory, depth)
	if err != nil {
		return nil, errors.Wrapf(err, "realize type %q", name)
	}
	return types.NewCustom(oid, name, kind), nil
}

// realizeKind maps a pg_type row onto a TypeKind. typtype selects the
// definition family; arrays hide inside the base family and are told
// apart by category.
func (r *Resolver) realizeKind(ctx context.Context, row proto.Row, typtype, typcategory byte, depth int) (*types.TypeKind, error) {
	switch typtype {
	case 'b':
		typelem, err := columnOid(row, 5)
		if err != nil {
			return nil, err
		}
		if typcategory == 'A' && typelem != 0 {
			elem, err := r.elementType(ctx, typelem, depth)
			if err != nil {
				return nil, err
			}
			return types.ArrayKind(elem), nil
		}
		return types.SimpleKind(), nil

	case 'p':
		return types.PseudoKind(), nil

	case 'd':
		typbasetype, err := columnOid(row, 4)
		if err != nil {
			return nil, err
		}
		base, err := r.elementType(ctx, typbasetype, depth)
		if err != nil {
			return nil, err
		}
		return types.DomainKind(base), nil

	case 'e':
		oid, err := columnOid(row, 0)
		if err != nil {
			return nil, err
		}
		labels, err := r.enumLabels(ctx, oid)
		if err != nil {
			return nil, err
		}
		return types.EnumKind(labels), nil

	case 'r':
		subtype, err := columnOid(row, 7)
		if err != nil {
			return nil, err
		}
		elem, err := r.elementType(ctx, subtype, depth)
		if err != nil {
			return nil, err
		}
		return types.RangeKind(elem), nil

	case 'c':
		typrelid, err := columnOid(row, 6)
		if err != nil {
			return nil, err
		}
		fields, err := r.compositeFields(ctx, typrelid, depth)
		if err != nil {
			return nil, err
		}
		return types.CompositeKind(fields), nil

	default:
		return nil, errors.Errorf("unhandled typtype %q", typtype)
	}
}

func (r *Resolver) elementType(ctx context.Context, oid constant.Oid, depth int) (*types.TypeInfo, error) {
	if info, ok := types.ByOid(oid); ok {
		return info, nil
	}
	if cached, ok := r.typeCache.Get(oidKey(oid)); ok {
		return cached.(*types.TypeInfo), nil
	}
	info, err := r.fetch(ctx, fmt.Sprintf("t.oid = %d", oid), depth+1)
	if err != nil {
		return nil, err
	}
	r.store(info)
	return info, nil
}

func (r *Resolver) enumLabels(ctx context.Context, enumOid constant.Oid) ([]string, error) {
	result, err := r.conn.Execute(ctx, fmt.Sprintf(
		"SELECT enumlabel FROM pg_catalog.pg_enum WHERE enumtypid = %d ORDER BY enumsortorder", enumOid))
	if err != nil {
		return nil, err
	}
	rows := result.Rows()
	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		label, err := columnString(row, 0)
		if err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, nil
}

func (r *Resolver) compositeFields(ctx context.Context, relid constant.Oid, depth int) ([]types.CompositeField, error) {
	result, err := r.conn.Execute(ctx, fmt.Sprintf(
		"SELECT attname, atttypid FROM pg_catalog.pg_attribute WHERE attrelid = %d AND attnum > 0 AND NOT attisdropped ORDER BY attnum", relid))
	if err != nil {
		return nil, err
	}
	rows := result.Rows()
	fields := make([]types.CompositeField, 0, len(rows))
	for _, row := range rows {
		name, err := columnString(row, 0)
		if err != nil {
			return nil, err
		}
		typeOid, err := columnOid(row, 1)
		if err != nil {
			return nil, err
		}
		fieldType, err := r.elementType(ctx, typeOid, depth)
		if err != nil {
			return nil, err
		}
		fields = append(fields, types.CompositeField{Name: name, Type: fieldType})
	}
	return fields, nil
}

func columnOid(row proto.Row, i int) (constant.Oid, error) {
	ref, err := row.Value(i)
	if err != nil {
		return 0, err
	}
	if ref.IsNull() {
		return 0, nil
	}
	return codec.DecodeOid(ref)
}

func columnString(row proto.Row, i int) (string, error) {
	ref, err := row.Value(i)
	if err != nil {
		return "", err
	}
	return codec.DecodeString(ref)
}

func columnChar(row proto.Row, i int) (byte, error) {
	ref, err := row.Value(i)
	if err != nil {
		return 0, err
	}
	ch, err := codec.DecodeInt8(ref)
	if err != nil {
		return 0, err
	}
	return byte(ch), nil
}

// quoteLiteral renders a string as a SQL literal for the catalog
// queries, which go through the simple query protocol and cannot use
// bind parameters.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
