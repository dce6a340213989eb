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
	"strings"
	"unicode/utf8"
)

// nameEqual checks type names for equality, respecting the case
// sensitivity rules for SQL identifiers: unquoted segments compare
// case-insensitively, double-quoted segments compare exactly.
//
// https://www.postgresql.org/docs/current/sql-syntax-lexical.html#SQL-SYNTAX-IDENTIFIERS
func nameEqual(name1, name2 string) bool {
	// Unicode-escaped identifiers are not decoded; they compare by
	// plain string equality only.
	if strings.HasPrefix(name1, "U&") {
		return name1 == name2
	}

	chars1 := identifierChars{rest: name1}
	chars2 := identifierChars{rest: name2}
	for {
		a, ok1 := chars1.next()
		b, ok2 := chars2.next()
		if !ok1 || !ok2 {
			break
		}
		if !a.eq(b) {
			return false
		}
	}

	_, more1 := chars1.next()
	_, more2 := chars2.next()
	return !more1 && !more2
}

type identifierChar struct {
	ch            rune
	caseSensitive bool
}

func (a identifierChar) eq(b identifierChar) bool {
	if a.caseSensitive || b.caseSensitive {
		return a.ch == b.ch
	}
	return lowerASCII(a.ch) == lowerASCII(b.ch)
}

func lowerASCII(ch rune) rune {
	if ch >= 'A' && ch <= 'Z' {
		return ch + ('a' - 'A')
	}
	return ch
}

// identifierChars iterates over the significant characters of an
// identifier. Non-escaped quotation marks are skipped; they toggle
// case sensitivity for the characters that follow, and a doubled
// quotation mark inside a quoted segment yields a literal quote.
type identifierChars struct {
	rest          string
	caseSensitive bool
	lastCharQuote bool
}

func (it *identifierChars) next() (identifierChar, bool) {
	for len(it.rest) > 0 {
		ch, size := utf8.DecodeRuneInString(it.rest)
		it.rest = it.rest[size:]

		if ch == '"' {
			if it.lastCharQuote {
				it.lastCharQuote = false
			} else {
				it.lastCharQuote = true
				continue
			}
		} else if it.lastCharQuote {
			it.lastCharQuote = false
			it.caseSensitive = !it.caseSensitive
		}

		return identifierChar{ch: ch, caseSensitive: it.caseSensitive}, true
	}
	return identifierChar{}, false
}
