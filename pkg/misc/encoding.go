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

/*
 * Copyright 2019 The Vitess Authors.
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

package misc

import (
	"bytes"
	"encoding/binary"
)

// This file contains the wire encoding and decoding functions. All
// multi-byte integers are in network byte order.

//
// Encoding methods.
//
// The same assumptions are made for all the encoding functions:
// - there is enough space to write the content in the buffer. If not, we
// will panic with out of bounds.
// - all functions start writing at 'pos' in the buffer, and return the next position.

func WriteByte(data []byte, pos int, value byte) int {
	data[pos] = value
	return pos + 1
}

func WriteUint16(data []byte, pos int, value uint16) int {
	binary.BigEndian.PutUint16(data[pos:], value)
	return pos + 2
}

func WriteUint32(data []byte, pos int, value uint32) int {
	binary.BigEndian.PutUint32(data[pos:], value)
	return pos + 4
}

func WriteUint64(data []byte, pos int, value uint64) int {
	binary.BigEndian.PutUint64(data[pos:], value)
	return pos + 8
}

func WriteInt16(data []byte, pos int, value int16) int {
	return WriteUint16(data, pos, uint16(value))
}

func WriteInt32(data []byte, pos int, value int32) int {
	return WriteUint32(data, pos, uint32(value))
}

func WriteInt64(data []byte, pos int, value int64) int {
	return WriteUint64(data, pos, uint64(value))
}

// WriteNullString writes a C-style string terminated by a zero byte.
func WriteNullString(data []byte, pos int, value string) int {
	pos += copy(data[pos:], value)
	data[pos] = 0
	return pos + 1
}

func WriteEOFString(data []byte, pos int, value string) int {
	return pos + copy(data[pos:], value)
}

func WriteZeroes(data []byte, pos int, len int) int {
	for i := 0; i < len; i++ {
		data[pos+i] = 0
	}
	return pos + len
}

//
// Decoding methods.
//
// The same assumptions are made for all the decoding functions:
// - they return the decoded value, the new position to read from, and
// an 'ok' boolean that is false if the buffer is too short.

func ReadByte(data []byte, pos int) (byte, int, bool) {
	if pos >= len(data) {
		return 0, 0, false
	}
	return data[pos], pos + 1, true
}

func ReadBytes(data []byte, pos int, size int) ([]byte, int, bool) {
	if pos+size > len(data) {
		return nil, 0, false
	}
	return data[pos : pos+size], pos + size, true
}

// ReadBytesCopy returns a copy of the bytes in the packet.
// Useful in the case where the packet is reused for the next read.
func ReadBytesCopy(data []byte, pos int, size int) ([]byte, int, bool) {
	if pos+size > len(data) {
		return nil, 0, false
	}
	result := make([]byte, size)
	copy(result, data[pos:pos+size])
	return result, pos + size, true
}

// ReadNullString reads a C-style string terminated by a zero byte.
func ReadNullString(data []byte, pos int) (string, int, bool) {
	end := bytes.IndexByte(data[pos:], 0)
	if end == -1 {
		return "", 0, false
	}
	return string(data[pos : pos+end]), pos + end + 1, true
}

func ReadEOFString(data []byte, pos int) (string, int, bool) {
	return string(data[pos:]), len(data), true
}

func ReadUint16(data []byte, pos int) (uint16, int, bool) {
	if pos+2 > len(data) {
		return 0, 0, false
	}
	return binary.BigEndian.Uint16(data[pos:]), pos + 2, true
}

func ReadUint32(data []byte, pos int) (uint32, int, bool) {
	if pos+4 > len(data) {
		return 0, 0, false
	}
	return binary.BigEndian.Uint32(data[pos:]), pos + 4, true
}

func ReadUint64(data []byte, pos int) (uint64, int, bool) {
	if pos+8 > len(data) {
		return 0, 0, false
	}
	return binary.BigEndian.Uint64(data[pos:]), pos + 8, true
}

func ReadInt16(data []byte, pos int) (int16, int, bool) {
	value, newPos, ok := ReadUint16(data, pos)
	return int16(value), newPos, ok
}

func ReadInt32(data []byte, pos int) (int32, int, bool) {
	value, newPos, ok := ReadUint32(data, pos)
	return int32(value), newPos, ok
}

func ReadInt64(data []byte, pos int) (int64, int, bool) {
	value, newPos, ok := ReadUint64(data, pos)
	return int64(value), newPos, ok
}

//
// Appending methods.
//
// The append functions grow the buffer as needed and are used by the
// value codecs, where the final size is not known up front.

func AppendUint16(data []byte, value uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], value)
	return append(data, b[:]...)
}

func AppendUint32(data []byte, value uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], value)
	return append(data, b[:]...)
}

func AppendUint64(data []byte, value uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], value)
	return append(data, b[:]...)
}

func AppendInt16(data []byte, value int16) []byte {
	return AppendUint16(data, uint16(value))
}

func AppendInt32(data []byte, value int32) []byte {
	return AppendUint32(data, uint32(value))
}

func AppendInt64(data []byte, value int64) []byte {
	return AppendUint64(data, uint64(value))
}

// BeginLengthPrefix reserves a 4-byte length slot and returns its
// offset, to be patched by EndLengthPrefix once the payload is known.
func BeginLengthPrefix(data []byte) ([]byte, int) {
	offset := len(data)
	return append(data, 0, 0, 0, 0), offset
}

// EndLengthPrefix patches the length slot reserved at offset with the
// number of bytes appended since.
func EndLengthPrefix(data []byte, offset int) []byte {
	binary.BigEndian.PutUint32(data[offset:], uint32(len(data)-offset-4))
	return data
}

// AppendNullLength appends the length marker of a SQL NULL value.
func AppendNullLength(data []byte) []byte {
	return AppendInt32(data, -1)
}
