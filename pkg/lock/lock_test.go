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

package lock

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cectc/pgpack/pkg/proto"
	"github.com/cectc/pgpack/pkg/types"
	"github.com/cectc/pgpack/testdata"
)

func boolValue(b bool) proto.Value {
	raw := []byte{0}
	if b {
		raw[0] = 1
	}
	return proto.Value{TypeInfo: types.Bool, Format: proto.FormatBinary, Raw: raw}
}

func TestDeriveKey(t *testing.T) {
	cases := map[string]struct {
		in   string
		want int64
	}{
		"example":        {"my first advisory lock!", 715653598052070605},
		"module name":    {"pgpack", 4906976093312816388},
		"empty string":   {"", 8433960950109662291},
		"job name":       {"orders:reconcile", -5754207123565022107},
		"close sibling":  {"my first advisory lock?", 5279009390836777653},
		"derived stable": {"my first advisory lock!", 715653598052070605},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			key := DeriveKey(tc.in)
			got, ok := key.BigInt()
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestKeyAccessors(t *testing.T) {
	big := BigIntKey(-42)
	v, ok := big.BigInt()
	assert.True(t, ok)
	assert.Equal(t, int64(-42), v)
	_, _, ok = big.IntPair()
	assert.False(t, ok)
	assert.Equal(t, "-42", big.String())

	pair := IntPairKey(7, -9)
	first, second, ok := pair.IntPair()
	assert.True(t, ok)
	assert.Equal(t, int32(7), first)
	assert.Equal(t, int32(-9), second)
	_, ok = pair.BigInt()
	assert.False(t, ok)
	assert.Equal(t, "(7, -9)", pair.String())
}

func TestAcquire(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := testdata.NewMockConn(ctrl)
	conn.EXPECT().Execute(gomock.Any(), "SELECT pg_advisory_lock(42)").Return(nil, nil)

	guard, err := WithKey(BigIntKey(42)).Acquire(context.Background(), conn)
	require.NoError(t, err)
	assert.Same(t, conn, guard.Conn())
}

func TestAcquireIntPair(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := testdata.NewMockConn(ctrl)
	conn.EXPECT().Execute(gomock.Any(), "SELECT pg_advisory_lock(1, 2)").Return(nil, nil)

	_, err := WithKey(IntPairKey(1, 2)).Acquire(context.Background(), conn)
	require.NoError(t, err)
}

func TestAcquireError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := testdata.NewMockConn(ctrl)
	conn.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	guard, err := WithKey(BigIntKey(42)).Acquire(context.Background(), conn)
	require.Error(t, err)
	assert.Nil(t, guard)
}

func TestTryAcquire(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := testdata.NewMockConn(ctrl)
	conn.EXPECT().QueryScalar(gomock.Any(), "SELECT pg_try_advisory_lock(42)").Return(boolValue(true), nil)

	guard, acquired, err := WithKey(BigIntKey(42)).TryAcquire(context.Background(), conn)
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NotNil(t, guard)
}

func TestTryAcquireContention(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := testdata.NewMockConn(ctrl)
	conn.EXPECT().QueryScalar(gomock.Any(), "SELECT pg_try_advisory_lock(42)").Return(boolValue(false), nil)

	guard, acquired, err := WithKey(BigIntKey(42)).TryAcquire(context.Background(), conn)
	require.NoError(t, err)
	assert.False(t, acquired)
	assert.Nil(t, guard)
}

func TestTryAcquireError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := testdata.NewMockConn(ctrl)
	conn.EXPECT().QueryScalar(gomock.Any(), gomock.Any()).Return(proto.Value{}, errors.New("connection reset"))

	guard, acquired, err := WithKey(BigIntKey(42)).TryAcquire(context.Background(), conn)
	require.Error(t, err)
	assert.False(t, acquired)
	assert.Nil(t, guard)
}

func TestGuardReleaseNow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := testdata.NewMockConn(ctrl)
	l := WithKey(BigIntKey(42))
	conn.EXPECT().Execute(gomock.Any(), "SELECT pg_advisory_lock(42)").Return(nil, nil)
	conn.EXPECT().QueryScalar(gomock.Any(), "SELECT pg_advisory_unlock(42)").Return(boolValue(true), nil)

	guard, err := l.Acquire(context.Background(), conn)
	require.NoError(t, err)

	got, err := guard.ReleaseNow(context.Background())
	require.NoError(t, err)
	assert.Same(t, conn, got)

	// The guard is consumed; Close must not queue anything.
	require.NoError(t, guard.Close())
}

func TestGuardReleaseNowNotHeld(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := testdata.NewMockConn(ctrl)
	l := WithKey(BigIntKey(42))
	conn.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, nil)
	conn.EXPECT().QueryScalar(gomock.Any(), "SELECT pg_advisory_unlock(42)").Return(boolValue(false), nil)

	guard, err := l.Acquire(context.Background(), conn)
	require.NoError(t, err)

	// Not held comes back as a logged warning, not an error.
	_, err = guard.ReleaseNow(context.Background())
	require.NoError(t, err)
}

func TestGuardClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := testdata.NewMockConn(ctrl)
	l := WithKey(BigIntKey(42))
	conn.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, nil)
	conn.EXPECT().QueueSimpleQuery("SELECT pg_advisory_unlock(42)").Return(nil).Times(1)

	guard, err := l.Acquire(context.Background(), conn)
	require.NoError(t, err)

	require.NoError(t, guard.Close())
	require.NoError(t, guard.Close())
}

func TestGuardLeak(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := testdata.NewMockConn(ctrl)
	l := WithKey(BigIntKey(42))
	conn.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, nil)

	guard, err := l.Acquire(context.Background(), conn)
	require.NoError(t, err)

	got := guard.Leak()
	assert.Same(t, conn, got)

	// Leaked: nothing gets queued.
	require.NoError(t, guard.Close())
}

func TestGuardConsumedPanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := testdata.NewMockConn(ctrl)
	l := WithKey(BigIntKey(42))
	conn.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, nil)

	guard, err := l.Acquire(context.Background(), conn)
	require.NoError(t, err)
	guard.Leak()

	assert.Panics(t, func() { guard.Conn() })
	assert.Panics(t, func() { guard.Leak() })
	assert.Panics(t, func() { _, _ = guard.ReleaseNow(context.Background()) })
}

// Locks are re-entrant per connection and the server counts holds; a
// single unlock only decrements the count by one. The server side is
// modeled with a counter.
func TestReentrantHoldCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := testdata.NewMockConn(ctrl)
	l := WithKey(BigIntKey(42))

	holds := 0
	conn.EXPECT().QueryScalar(gomock.Any(), "SELECT pg_try_advisory_lock(42)").
		DoAndReturn(func(context.Context, string) (proto.Value, error) {
			holds++
			return boolValue(true), nil
		}).Times(2)
	conn.EXPECT().QueryScalar(gomock.Any(), "SELECT pg_advisory_unlock(42)").
		DoAndReturn(func(context.Context, string) (proto.Value, error) {
			if holds > 0 {
				holds--
				return boolValue(true), nil
			}
			return boolValue(false), nil
		}).Times(3)

	ctx := context.Background()
	_, acquired, err := l.TryAcquire(ctx, conn)
	require.NoError(t, err)
	require.True(t, acquired)
	_, acquired, err = l.TryAcquire(ctx, conn)
	require.NoError(t, err)
	require.True(t, acquired)

	released, err := l.ForceRelease(ctx, conn)
	require.NoError(t, err)
	assert.True(t, released)
	assert.Equal(t, 1, holds, "one unlock decrements one hold")

	released, err = l.ForceRelease(ctx, conn)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = l.ForceRelease(ctx, conn)
	require.NoError(t, err)
	assert.False(t, released, "lock no longer held")
}
