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

// Kind tags how a type is defined in the catalog.
type Kind uint8

const (
	KindSimple Kind = iota
	KindPseudo
	KindDomain
	KindComposite
	KindArray
	KindEnum
	KindRange
)

// TypeKind describes the definition of a type: simple scalar, pseudo
// type, domain over a base type, composite of named fields, array of
// an element type, enum of labels, or range over a subtype.
type TypeKind struct {
	Kind   Kind
	Elem   *TypeInfo        // set for Domain, Array and Range
	Fields []CompositeField // set for Composite, in attribute order
	Labels []string         // set for Enum, in sort order
}

type CompositeField struct {
	Name string
	Type *TypeInfo
}

func SimpleKind() *TypeKind {
	return &TypeKind{Kind: KindSimple}
}

func PseudoKind() *TypeKind {
	return &TypeKind{Kind: KindPseudo}
}

func DomainKind(base *TypeInfo) *TypeKind {
	return &TypeKind{Kind: KindDomain, Elem: base}
}

func CompositeKind(fields []CompositeField) *TypeKind {
	return &TypeKind{Kind: KindComposite, Fields: fields}
}

func ArrayKind(elem *TypeInfo) *TypeKind {
	return &TypeKind{Kind: KindArray, Elem: elem}
}

func EnumKind(labels []string) *TypeKind {
	return &TypeKind{Kind: KindEnum, Labels: labels}
}

func RangeKind(elem *TypeInfo) *TypeKind {
	return &TypeKind{Kind: KindRange, Elem: elem}
}
