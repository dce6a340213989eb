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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cectc/pgpack/pkg/misc"
	"github.com/cectc/pgpack/pkg/proto"
	"github.com/cectc/pgpack/pkg/types"
)

func TestDecodeDateBinary(t *testing.T) {
	cases := map[string]struct {
		days int32
		want time.Time
	}{
		"epoch":            {0, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)},
		"leap year range":  {60, time.Date(2000, 3, 1, 0, 0, 0, 0, time.UTC)},
		"day before epoch": {-1, time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)},
		"far future":       {2921939, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			raw := misc.AppendInt32(nil, tc.days)
			got, err := DecodeDate(proto.NewValueRef(raw, proto.FormatBinary, types.Date))
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestDecodeDateText(t *testing.T) {
	got, err := DecodeDate(proto.NewValueRef([]byte("1999-01-08"), proto.FormatText, types.Date))
	require.NoError(t, err)
	assert.Equal(t, time.Date(1999, 1, 8, 0, 0, 0, 0, time.UTC), got)

	_, err = DecodeDate(proto.NewValueRef([]byte("January 8, 1999"), proto.FormatText, types.Date))
	require.Error(t, err)
}

func TestAppendDate(t *testing.T) {
	cases := map[string]struct {
		in   time.Time
		want int32
	}{
		"epoch":       {time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), 0},
		"before":      {time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC), -1},
		"unix epoch":  {time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), -10957},
		"non-utc day": {time.Date(2000, 1, 1, 23, 30, 0, 0, time.FixedZone("", -3600)), 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			buf, isNull, err := AppendDate(nil, tc.in)
			require.NoError(t, err)
			assert.False(t, isNull)
			assert.Equal(t, misc.AppendInt32(nil, tc.want), buf)
		})
	}
}

func TestDecodeTimestampBinary(t *testing.T) {
	cases := map[string]struct {
		micros int64
		want   time.Time
	}{
		"epoch":          {0, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)},
		"one micro":      {1, time.Date(2000, 1, 1, 0, 0, 0, 1000, time.UTC)},
		"negative micro": {-1, time.Date(1999, 12, 31, 23, 59, 59, 999999000, time.UTC)},
		"one second":     {microsPerSecond, time.Date(2000, 1, 1, 0, 0, 1, 0, time.UTC)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			raw := misc.AppendInt64(nil, tc.micros)
			got, err := DecodeTimestamp(proto.NewValueRef(raw, proto.FormatBinary, types.Timestamp))
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}

	_, err := DecodeTimestamp(proto.NewValueRef([]byte{1, 2}, proto.FormatBinary, types.Timestamp))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 8 bytes, got 2")
}

func TestDecodeTimestampText(t *testing.T) {
	cases := map[string]struct {
		in   string
		want time.Time
	}{
		"plain":      {"2004-10-19 10:23:54", time.Date(2004, 10, 19, 10, 23, 54, 0, time.UTC)},
		"fractional": {"2004-10-19 10:23:54.0007", time.Date(2004, 10, 19, 10, 23, 54, 700000, time.UTC)},
		// An offset suffix is dropped, the clock reading stays as written.
		"offset kept as wall clock": {"2004-10-19 10:23:54+02", time.Date(2004, 10, 19, 10, 23, 54, 0, time.UTC)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeTimestamp(proto.NewValueRef([]byte(tc.in), proto.FormatText, types.Timestamp))
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestDecodeTimestamptzText(t *testing.T) {
	cases := map[string]struct {
		in   string
		want time.Time
	}{
		"short offset": {"2004-10-19 10:23:54+02", time.Date(2004, 10, 19, 8, 23, 54, 0, time.UTC)},
		"full offset":  {"2004-10-19 10:23:54+02:00", time.Date(2004, 10, 19, 8, 23, 54, 0, time.UTC)},
		"fractional":   {"2004-10-19 10:23:54.499+02", time.Date(2004, 10, 19, 8, 23, 54, 499000000, time.UTC)},
		"negative":     {"2004-10-19 10:23:54-05", time.Date(2004, 10, 19, 15, 23, 54, 0, time.UTC)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeTimestamptz(proto.NewValueRef([]byte(tc.in), proto.FormatText, types.Timestamptz))
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}

	_, err := DecodeTimestamptz(proto.NewValueRef([]byte("2004-10-19 10:23:54"), proto.FormatText, types.Timestamptz))
	require.Error(t, err)
}

func TestAppendTimestamp(t *testing.T) {
	cases := map[string]struct {
		in   time.Time
		want int64
	}{
		"epoch":       {time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), 0},
		"micros":      {time.Date(2000, 1, 1, 0, 0, 0, 1000, time.UTC), 1},
		"before":      {time.Date(1999, 12, 31, 23, 59, 59, 999999000, time.UTC), -1},
		"nanos drop":  {time.Date(2000, 1, 1, 0, 0, 0, 1500, time.UTC), 1},
		"other zones": {time.Date(2000, 1, 1, 2, 0, 0, 0, time.FixedZone("", 7200)), 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			buf, isNull, err := AppendTimestamp(nil, tc.in)
			require.NoError(t, err)
			assert.False(t, isNull)
			assert.Equal(t, misc.AppendInt64(nil, tc.want), buf)
		})
	}

	_, _, err := AppendTimestamp(nil, time.Date(300000, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, want := range []time.Time{
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2038, 1, 19, 3, 14, 7, 999999000, time.UTC),
		time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC),
	} {
		buf, _, err := AppendTimestamp(nil, want)
		require.NoError(t, err)
		got, err := DecodeTimestamptz(proto.NewValueRef(buf, proto.FormatBinary, types.Timestamptz))
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "want %s, got %s", want, got)
	}
}

func TestTimeOfDay(t *testing.T) {
	v := TimeOfDayAt(4, 5, 6, 700000)
	assert.Equal(t, int64(14706700000), v.Microseconds)
	assert.Equal(t, "04:05:06.7", v.String())

	hour, min, sec := v.Clock()
	assert.Equal(t, 4, hour)
	assert.Equal(t, 5, min)
	assert.Equal(t, 6, sec)

	assert.Equal(t, "23:59:59", TimeOfDayAt(23, 59, 59, 0).String())
}

func TestDecodeTimeOfDay(t *testing.T) {
	raw := misc.AppendInt64(nil, 14706700000)
	got, err := DecodeTimeOfDay(proto.NewValueRef(raw, proto.FormatBinary, types.Time))
	require.NoError(t, err)
	assert.Equal(t, TimeOfDayAt(4, 5, 6, 700000), got)

	got, err = DecodeTimeOfDay(proto.NewValueRef([]byte("04:05:06.789"), proto.FormatText, types.Time))
	require.NoError(t, err)
	assert.Equal(t, TimeOfDayAt(4, 5, 6, 789000), got)

	buf := AppendTimeOfDay(nil, got)
	assert.Equal(t, misc.AppendInt64(nil, got.Microseconds), buf)
}

func TestDecodeInterval(t *testing.T) {
	raw := misc.AppendInt64(nil, 3600*microsPerSecond)
	raw = misc.AppendInt32(raw, 14)
	raw = misc.AppendInt32(raw, -2)

	got, err := DecodeInterval(proto.NewValueRef(raw, proto.FormatBinary, types.Interval))
	require.NoError(t, err)
	assert.Equal(t, Interval{Months: -2, Days: 14, Microseconds: 3600 * microsPerSecond}, got)

	assert.Equal(t, raw, AppendInterval(nil, got))

	_, err = DecodeInterval(proto.NewValueRef([]byte("1 day"), proto.FormatText, types.Interval))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text format is not supported")

	_, err = DecodeInterval(proto.NewValueRef(raw[:10], proto.FormatBinary, types.Interval))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 16 bytes, got 10")
}

func TestIntervalFromDuration(t *testing.T) {
	iv, err := IntervalFromDuration(90 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, Interval{Microseconds: 5400 * microsPerSecond}, iv)

	_, err = IntervalFromDuration(10*time.Second + 5*time.Nanosecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nanosecond precision")
}
