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
	"github.com/cectc/pgpack/pkg/constant"
)

// The types of the default pg_type catalog, keyed both ways. Extension
// types (hstore, citext, ...) are not here; they are declared by name
// and realized through a catalog lookup at runtime.
var (
	builtinByOid  = make(map[constant.Oid]*TypeInfo)
	builtinByName = make(map[string]*TypeInfo)
)

// ByOid returns the built-in type for oid, if the default catalog
// assigns it.
func ByOid(oid constant.Oid) (*TypeInfo, bool) {
	t, ok := builtinByOid[oid]
	return t, ok
}

// ByName returns the built-in type with the given catalog name.
func ByName(name string) (*TypeInfo, bool) {
	t, ok := builtinByName[name]
	return t, ok
}

var (
	Bool      = simple(constant.BoolOid, "bool", "BOOL")
	BoolArray = array(constant.BoolArrayOid, "_bool", "BOOL[]", Bool)

	Bytea      = simple(constant.ByteaOid, "bytea", "BYTEA")
	ByteaArray = array(constant.ByteaArrayOid, "_bytea", "BYTEA[]", Bytea)

	Char      = simple(constant.CharOid, "char", `"CHAR"`)
	CharArray = array(constant.CharArrayOid, "_char", `"CHAR"[]`, Char)

	Name      = simple(constant.NameOid, "name", "NAME")
	NameArray = array(constant.NameArrayOid, "_name", "NAME[]", Name)

	Int8      = simple(constant.Int8Oid, "int8", "INT8")
	Int8Array = array(constant.Int8ArrayOid, "_int8", "INT8[]", Int8)

	Int2      = simple(constant.Int2Oid, "int2", "INT2")
	Int2Array = array(constant.Int2ArrayOid, "_int2", "INT2[]", Int2)

	Int4      = simple(constant.Int4Oid, "int4", "INT4")
	Int4Array = array(constant.Int4ArrayOid, "_int4", "INT4[]", Int4)

	Text      = simple(constant.TextOid, "text", "TEXT")
	TextArray = array(constant.TextArrayOid, "_text", "TEXT[]", Text)

	Oid      = simple(constant.OidOid, "oid", "OID")
	OidArray = array(constant.OidArrayOid, "_oid", "OID[]", Oid)

	Json      = simple(constant.JsonOid, "json", "JSON")
	JsonArray = array(constant.JsonArrayOid, "_json", "JSON[]", Json)

	Jsonb      = simple(constant.JsonbOid, "jsonb", "JSONB")
	JsonbArray = array(constant.JsonbArrayOid, "_jsonb", "JSONB[]", Jsonb)

	Jsonpath      = simple(constant.JsonpathOid, "jsonpath", "JSONPATH")
	JsonpathArray = array(constant.JsonpathArrayOid, "_jsonpath", "JSONPATH[]", Jsonpath)

	Point      = simple(constant.PointOid, "point", "POINT")
	PointArray = array(constant.PointArrayOid, "_point", "POINT[]", Point)

	Lseg      = simple(constant.LsegOid, "lseg", "LSEG")
	LsegArray = array(constant.LsegArrayOid, "_lseg", "LSEG[]", Lseg)

	Path      = simple(constant.PathOid, "path", "PATH")
	PathArray = array(constant.PathArrayOid, "_path", "PATH[]", Path)

	Box      = simple(constant.BoxOid, "box", "BOX")
	BoxArray = array(constant.BoxArrayOid, "_box", "BOX[]", Box)

	Polygon      = simple(constant.PolygonOid, "polygon", "POLYGON")
	PolygonArray = array(constant.PolygonArrayOid, "_polygon", "POLYGON[]", Polygon)

	Line      = simple(constant.LineOid, "line", "LINE")
	LineArray = array(constant.LineArrayOid, "_line", "LINE[]", Line)

	Cidr      = simple(constant.CidrOid, "cidr", "CIDR")
	CidrArray = array(constant.CidrArrayOid, "_cidr", "CIDR[]", Cidr)

	Float4      = simple(constant.Float4Oid, "float4", "FLOAT4")
	Float4Array = array(constant.Float4ArrayOid, "_float4", "FLOAT4[]", Float4)

	Float8      = simple(constant.Float8Oid, "float8", "FLOAT8")
	Float8Array = array(constant.Float8ArrayOid, "_float8", "FLOAT8[]", Float8)

	Unknown = simple(constant.UnknownOid, "unknown", "UNKNOWN")

	Circle      = simple(constant.CircleOid, "circle", "CIRCLE")
	CircleArray = array(constant.CircleArrayOid, "_circle", "CIRCLE[]", Circle)

	Macaddr8      = simple(constant.Macaddr8Oid, "macaddr8", "MACADDR8")
	Macaddr8Array = array(constant.Macaddr8ArrayOid, "_macaddr8", "MACADDR8[]", Macaddr8)

	Macaddr      = simple(constant.MacaddrOid, "macaddr", "MACADDR")
	MacaddrArray = array(constant.MacaddrArrayOid, "_macaddr", "MACADDR[]", Macaddr)

	Inet      = simple(constant.InetOid, "inet", "INET")
	InetArray = array(constant.InetArrayOid, "_inet", "INET[]", Inet)

	Money      = simple(constant.MoneyOid, "money", "MONEY")
	MoneyArray = array(constant.MoneyArrayOid, "_money", "MONEY[]", Money)

	Bpchar      = simple(constant.BpcharOid, "bpchar", "CHAR")
	BpcharArray = array(constant.BpcharArrayOid, "_bpchar", "CHAR[]", Bpchar)

	Varchar      = simple(constant.VarcharOid, "varchar", "VARCHAR")
	VarcharArray = array(constant.VarcharArrayOid, "_varchar", "VARCHAR[]", Varchar)

	Date      = simple(constant.DateOid, "date", "DATE")
	DateArray = array(constant.DateArrayOid, "_date", "DATE[]", Date)

	Time      = simple(constant.TimeOid, "time", "TIME")
	TimeArray = array(constant.TimeArrayOid, "_time", "TIME[]", Time)

	Timestamp      = simple(constant.TimestampOid, "timestamp", "TIMESTAMP")
	TimestampArray = array(constant.TimestampArrayOid, "_timestamp", "TIMESTAMP[]", Timestamp)

	Timestamptz      = simple(constant.TimestamptzOid, "timestamptz", "TIMESTAMPTZ")
	TimestamptzArray = array(constant.TimestamptzArrayOid, "_timestamptz", "TIMESTAMPTZ[]", Timestamptz)

	Interval      = simple(constant.IntervalOid, "interval", "INTERVAL")
	IntervalArray = array(constant.IntervalArrayOid, "_interval", "INTERVAL[]", Interval)

	Numeric      = simple(constant.NumericOid, "numeric", "NUMERIC")
	NumericArray = array(constant.NumericArrayOid, "_numeric", "NUMERIC[]", Numeric)

	Timetz      = simple(constant.TimetzOid, "timetz", "TIMETZ")
	TimetzArray = array(constant.TimetzArrayOid, "_timetz", "TIMETZ[]", Timetz)

	Bit      = simple(constant.BitOid, "bit", "BIT")
	BitArray = array(constant.BitArrayOid, "_bit", "BIT[]", Bit)

	Varbit      = simple(constant.VarbitOid, "varbit", "VARBIT")
	VarbitArray = array(constant.VarbitArrayOid, "_varbit", "VARBIT[]", Varbit)

	Record      = simple(constant.RecordOid, "record", "RECORD")
	RecordArray = array(constant.RecordArrayOid, "_record", "RECORD[]", Record)

	Uuid      = simple(constant.UuidOid, "uuid", "UUID")
	UuidArray = array(constant.UuidArrayOid, "_uuid", "UUID[]", Uuid)

	Int4Range      = rangeOf(constant.Int4RangeOid, "int4range", "INT4RANGE", Int4)
	Int4RangeArray = array(constant.Int4RangeArrayOid, "_int4range", "INT4RANGE[]", Int4Range)

	NumRange      = rangeOf(constant.NumRangeOid, "numrange", "NUMRANGE", Numeric)
	NumRangeArray = array(constant.NumRangeArrayOid, "_numrange", "NUMRANGE[]", NumRange)

	TsRange      = rangeOf(constant.TsRangeOid, "tsrange", "TSRANGE", Timestamp)
	TsRangeArray = array(constant.TsRangeArrayOid, "_tsrange", "TSRANGE[]", TsRange)

	TstzRange      = rangeOf(constant.TstzRangeOid, "tstzrange", "TSTZRANGE", Timestamptz)
	TstzRangeArray = array(constant.TstzRangeArrayOid, "_tstzrange", "TSTZRANGE[]", TstzRange)

	DateRange      = rangeOf(constant.DateRangeOid, "daterange", "DATERANGE", Date)
	DateRangeArray = array(constant.DateRangeArrayOid, "_daterange", "DATERANGE[]", DateRange)

	Int8Range      = rangeOf(constant.Int8RangeOid, "int8range", "INT8RANGE", Int8)
	Int8RangeArray = array(constant.Int8RangeArrayOid, "_int8range", "INT8RANGE[]", Int8Range)

	Void = pseudo(constant.VoidOid, "void", "VOID")
)

func simple(oid constant.Oid, name, display string) *TypeInfo {
	return register(&TypeInfo{
		decl:    declRealized,
		oid:     oid,
		name:    name,
		display: display,
		kind:    SimpleKind(),
	})
}

func pseudo(oid constant.Oid, name, display string) *TypeInfo {
	return register(&TypeInfo{
		decl:    declRealized,
		oid:     oid,
		name:    name,
		display: display,
		kind:    PseudoKind(),
	})
}

func array(oid constant.Oid, name, display string, elem *TypeInfo) *TypeInfo {
	return register(&TypeInfo{
		decl:    declRealized,
		oid:     oid,
		name:    name,
		display: display,
		kind:    ArrayKind(elem),
	})
}

func rangeOf(oid constant.Oid, name, display string, elem *TypeInfo) *TypeInfo {
	return register(&TypeInfo{
		decl:    declRealized,
		oid:     oid,
		name:    name,
		display: display,
		kind:    RangeKind(elem),
	})
}

func register(t *TypeInfo) *TypeInfo {
	builtinByOid[t.oid] = t
	builtinByName[t.name] = t
	return t
}
