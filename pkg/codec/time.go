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

package codec

import (
	"fmt"
	"math"
	"strings"
	"time"

	err2 "github.com/cectc/pgpack/pkg/errors"
	"github.com/cectc/pgpack/pkg/misc"
	"github.com/cectc/pgpack/pkg/proto"
	"github.com/cectc/pgpack/pkg/types"
)

// The wire epoch is 2000-01-01T00:00:00Z. Dates travel as day counts
// from it, timestamps as microsecond counts. Offsets are computed in
// integer seconds so the far ends of the range stay exact.
const (
	epochUnixSeconds = 946684800
	epochUnixDays    = epochUnixSeconds / secondsPerDay

	secondsPerDay      = 86400
	microsPerSecond    = 1000000
	maxTimestampSecond = (math.MaxInt64 - (microsPerSecond - 1)) / microsPerSecond
	minTimestampSecond = math.MinInt64 / microsPerSecond
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
	timeLayout      = "15:04:05"
)

// Fractional seconds are accepted implicitly by time.Parse, so the
// zone-bearing layouts only vary in the offset shape.
var zonedTimestampLayouts = []string{
	timestampLayout + "-07:00",
	timestampLayout + "-07",
	timestampLayout + "-0700",
}

// DecodeDate reads a DATE value. Binary is the signed day count from
// the epoch; the result sits at midnight UTC.
func DecodeDate(v proto.ValueRef) (time.Time, error) {
	if err := compatible(v, "time.Time", types.Date); err != nil {
		return time.Time{}, err
	}
	if v.Format == proto.FormatBinary {
		raw, err := v.Bytes()
		if err != nil {
			return time.Time{}, err
		}
		days, _, ok := misc.ReadInt32(raw, 0)
		if !ok {
			return time.Time{}, err2.NewDecodeError(typeName(v), "expected 4 bytes, got %d", len(raw))
		}
		return time.Unix(epochUnixSeconds+int64(days)*secondsPerDay, 0).UTC(), nil
	}

	s, err := v.Text()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err2.NewDecodeError(typeName(v), "%v", err)
	}
	return t, nil
}

// AppendDate encodes the UTC calendar day of t.
func AppendDate(buf []byte, t time.Time) ([]byte, bool, error) {
	year, month, day := t.UTC().Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	days := midnight.Unix()/secondsPerDay - epochUnixDays
	if days < math.MinInt32 || days > math.MaxInt32 {
		return buf, false, err2.NewEncodeError("date", "date %s out of range", t.Format(dateLayout))
	}
	return misc.AppendInt32(buf, int32(days)), false, nil
}

// DecodeTimestamp reads a TIMESTAMP, a wall clock reading with no
// zone. The result is expressed in UTC. Text values occasionally
// arrive with an offset suffix; the clock reading is kept as written.
func DecodeTimestamp(v proto.ValueRef) (time.Time, error) {
	if err := compatible(v, "time.Time", types.Timestamp); err != nil {
		return time.Time{}, err
	}
	if v.Format == proto.FormatBinary {
		return decodeTimestampBinary(v)
	}

	s, err := v.Text()
	if err != nil {
		return time.Time{}, err
	}
	if strings.Contains(s, "+") {
		t, err := parseZonedTimestamp(s)
		if err != nil {
			return time.Time{}, err2.NewDecodeError(typeName(v), "%v", err)
		}
		year, month, day := t.Date()
		hour, min, sec := t.Clock()
		return time.Date(year, month, day, hour, min, sec, t.Nanosecond(), time.UTC), nil
	}
	t, err := time.ParseInLocation(timestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err2.NewDecodeError(typeName(v), "%v", err)
	}
	return t, nil
}

// DecodeTimestamptz reads a TIMESTAMPTZ, an absolute instant. Text
// values always carry an offset; the result is normalized to UTC.
func DecodeTimestamptz(v proto.ValueRef) (time.Time, error) {
	if err := compatible(v, "time.Time", types.Timestamptz); err != nil {
		return time.Time{}, err
	}
	if v.Format == proto.FormatBinary {
		return decodeTimestampBinary(v)
	}

	s, err := v.Text()
	if err != nil {
		return time.Time{}, err
	}
	t, err := parseZonedTimestamp(s)
	if err != nil {
		return time.Time{}, err2.NewDecodeError(typeName(v), "%v", err)
	}
	return t.UTC(), nil
}

func decodeTimestampBinary(v proto.ValueRef) (time.Time, error) {
	raw, err := v.Bytes()
	if err != nil {
		return time.Time{}, err
	}
	us, _, ok := misc.ReadInt64(raw, 0)
	if !ok {
		return time.Time{}, err2.NewDecodeError(typeName(v), "expected 8 bytes, got %d", len(raw))
	}
	sec, rem := us/microsPerSecond, us%microsPerSecond
	if rem < 0 {
		sec--
		rem += microsPerSecond
	}
	return time.Unix(epochUnixSeconds+sec, rem*1000).UTC(), nil
}

func parseZonedTimestamp(s string) (time.Time, error) {
	var first error
	for _, layout := range zonedTimestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if first == nil {
			first = err
		}
	}
	return time.Time{}, first
}

// AppendTimestamp encodes the instant of t as microseconds from the
// epoch. Sub-microsecond precision is dropped.
func AppendTimestamp(buf []byte, t time.Time) ([]byte, bool, error) {
	sec := t.Unix() - epochUnixSeconds
	if sec > maxTimestampSecond || sec < minTimestampSecond {
		return buf, false, err2.NewEncodeError("timestamp", "timestamp %s out of range", t)
	}
	us := sec*microsPerSecond + int64(t.Nanosecond()/1000)
	return misc.AppendInt64(buf, us), false, nil
}

// TimeOfDay is a TIME value, a clock reading with no date attached,
// stored as microseconds since midnight.
type TimeOfDay struct {
	Microseconds int64
}

// TimeOfDayAt builds a TimeOfDay from clock components.
func TimeOfDayAt(hour, min, sec, micro int) TimeOfDay {
	us := ((int64(hour)*60+int64(min))*60+int64(sec))*microsPerSecond + int64(micro)
	return TimeOfDay{Microseconds: us}
}

// Clock splits the reading into hour, minute and second.
func (t TimeOfDay) Clock() (hour, min, sec int) {
	total := t.Microseconds / microsPerSecond
	return int(total / 3600), int(total / 60 % 60), int(total % 60)
}

func (t TimeOfDay) String() string {
	hour, min, sec := t.Clock()
	out := fmt.Sprintf("%02d:%02d:%02d", hour, min, sec)
	if frac := t.Microseconds % microsPerSecond; frac != 0 {
		out += strings.TrimRight(fmt.Sprintf(".%06d", frac), "0")
	}
	return out
}

// DecodeTimeOfDay reads a TIME value.
func DecodeTimeOfDay(v proto.ValueRef) (TimeOfDay, error) {
	if err := compatible(v, "codec.TimeOfDay", types.Time); err != nil {
		return TimeOfDay{}, err
	}
	if v.Format == proto.FormatBinary {
		raw, err := v.Bytes()
		if err != nil {
			return TimeOfDay{}, err
		}
		us, _, ok := misc.ReadInt64(raw, 0)
		if !ok {
			return TimeOfDay{}, err2.NewDecodeError(typeName(v), "expected 8 bytes, got %d", len(raw))
		}
		return TimeOfDay{Microseconds: us}, nil
	}

	s, err := v.Text()
	if err != nil {
		return TimeOfDay{}, err
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return TimeOfDay{}, err2.NewDecodeError(typeName(v), "%v", err)
	}
	hour, min, sec := t.Clock()
	return TimeOfDayAt(hour, min, sec, t.Nanosecond()/1000), nil
}

func AppendTimeOfDay(buf []byte, t TimeOfDay) []byte {
	return misc.AppendInt64(buf, t.Microseconds)
}

// Interval is an INTERVAL value. The three components do not reduce
// into each other; a month is not a fixed number of days.
type Interval struct {
	Months       int32
	Days         int32
	Microseconds int64
}

// IntervalFromDuration converts an elapsed duration into an interval
// carrying only microseconds. The duration must not have a
// sub-microsecond component.
func IntervalFromDuration(d time.Duration) (Interval, error) {
	if d%time.Microsecond != 0 {
		return Interval{}, err2.NewEncodeError("interval", "interval does not support nanosecond precision")
	}
	return Interval{Microseconds: d.Microseconds()}, nil
}

// DecodeInterval reads an INTERVAL value. The text format depends on
// the server's IntervalStyle and is not supported.
func DecodeInterval(v proto.ValueRef) (Interval, error) {
	if err := compatible(v, "codec.Interval", types.Interval); err != nil {
		return Interval{}, err
	}
	if v.Format == proto.FormatText {
		return Interval{}, err2.NewDecodeError(typeName(v), "decoding an interval in text format is not supported")
	}

	raw, err := v.Bytes()
	if err != nil {
		return Interval{}, err
	}
	us, pos, ok := misc.ReadInt64(raw, 0)
	if !ok {
		return Interval{}, err2.NewDecodeError(typeName(v), "expected 16 bytes, got %d", len(raw))
	}
	days, pos, ok := misc.ReadInt32(raw, pos)
	if !ok {
		return Interval{}, err2.NewDecodeError(typeName(v), "expected 16 bytes, got %d", len(raw))
	}
	months, _, ok := misc.ReadInt32(raw, pos)
	if !ok {
		return Interval{}, err2.NewDecodeError(typeName(v), "expected 16 bytes, got %d", len(raw))
	}
	return Interval{Months: months, Days: days, Microseconds: us}, nil
}

func AppendInterval(buf []byte, iv Interval) []byte {
	buf = misc.AppendInt64(buf, iv.Microseconds)
	buf = misc.AppendInt32(buf, iv.Days)
	return misc.AppendInt32(buf, iv.Months)
}
