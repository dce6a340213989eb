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

package constant

import "strconv"

// https://www.postgresql.org/docs/current/catalog-pg-type.html
type Oid uint32

// Object ids of the built-in types, as assigned in pg_type.dat.
const (
	BoolOid             Oid = 16
	ByteaOid            Oid = 17
	CharOid             Oid = 18
	NameOid             Oid = 19
	Int8Oid             Oid = 20
	Int2Oid             Oid = 21
	Int4Oid             Oid = 23
	TextOid             Oid = 25
	OidOid              Oid = 26
	JsonOid             Oid = 114
	JsonArrayOid        Oid = 199
	PointOid            Oid = 600
	LsegOid             Oid = 601
	PathOid             Oid = 602
	BoxOid              Oid = 603
	PolygonOid          Oid = 604
	LineOid             Oid = 628
	LineArrayOid        Oid = 629
	CidrOid             Oid = 650
	CidrArrayOid        Oid = 651
	Float4Oid           Oid = 700
	Float8Oid           Oid = 701
	UnknownOid          Oid = 705
	CircleOid           Oid = 718
	CircleArrayOid      Oid = 719
	Macaddr8Oid         Oid = 774
	Macaddr8ArrayOid    Oid = 775
	MoneyOid            Oid = 790
	MoneyArrayOid       Oid = 791
	MacaddrOid          Oid = 829
	InetOid             Oid = 869
	BoolArrayOid        Oid = 1000
	ByteaArrayOid       Oid = 1001
	CharArrayOid        Oid = 1002
	NameArrayOid        Oid = 1003
	Int2ArrayOid        Oid = 1005
	Int4ArrayOid        Oid = 1007
	TextArrayOid        Oid = 1009
	BpcharArrayOid      Oid = 1014
	VarcharArrayOid     Oid = 1015
	Int8ArrayOid        Oid = 1016
	PointArrayOid       Oid = 1017
	LsegArrayOid        Oid = 1018
	PathArrayOid        Oid = 1019
	BoxArrayOid         Oid = 1020
	Float4ArrayOid      Oid = 1021
	Float8ArrayOid      Oid = 1022
	PolygonArrayOid     Oid = 1027
	OidArrayOid         Oid = 1028
	MacaddrArrayOid     Oid = 1040
	InetArrayOid        Oid = 1041
	BpcharOid           Oid = 1042
	VarcharOid          Oid = 1043
	DateOid             Oid = 1082
	TimeOid             Oid = 1083
	TimestampOid        Oid = 1114
	TimestampArrayOid   Oid = 1115
	DateArrayOid        Oid = 1182
	TimeArrayOid        Oid = 1183
	TimestamptzOid      Oid = 1184
	TimestamptzArrayOid Oid = 1185
	IntervalOid         Oid = 1186
	IntervalArrayOid    Oid = 1187
	NumericArrayOid     Oid = 1231
	TimetzOid           Oid = 1266
	TimetzArrayOid      Oid = 1270
	BitOid              Oid = 1560
	BitArrayOid         Oid = 1561
	VarbitOid           Oid = 1562
	VarbitArrayOid      Oid = 1563
	NumericOid          Oid = 1700
	RecordOid           Oid = 2249
	VoidOid             Oid = 2278
	RecordArrayOid      Oid = 2287
	UuidOid             Oid = 2950
	UuidArrayOid        Oid = 2951
	JsonbOid            Oid = 3802
	JsonbArrayOid       Oid = 3807
	Int4RangeOid        Oid = 3904
	Int4RangeArrayOid   Oid = 3905
	NumRangeOid         Oid = 3906
	NumRangeArrayOid    Oid = 3907
	TsRangeOid          Oid = 3908
	TsRangeArrayOid     Oid = 3909
	TstzRangeOid        Oid = 3910
	TstzRangeArrayOid   Oid = 3911
	DateRangeOid        Oid = 3912
	DateRangeArrayOid   Oid = 3913
	Int8RangeOid        Oid = 3926
	Int8RangeArrayOid   Oid = 3927
	JsonpathOid         Oid = 4072
	JsonpathArrayOid    Oid = 4073
)

func (o Oid) String() string {
	return strconv.FormatUint(uint64(o), 10)
}
