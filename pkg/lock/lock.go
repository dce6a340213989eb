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

// Package lock provides session-scoped advisory locks: mutual
// exclusion tokens tracked by the server under application-defined
// keys, independent of any table or row.
//
// A lock acquired here stays held until it is explicitly released or
// the owning connection closes; it does not interact with transaction
// boundaries. Locks are re-entrant per connection, and the server
// counts holds: releases must pair up with acquisitions, which is the
// caller's responsibility.
package lock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/pingcap/errors"
	"golang.org/x/crypto/hkdf"

	"github.com/cectc/pgpack/pkg/codec"
	"github.com/cectc/pgpack/pkg/log"
	"github.com/cectc/pgpack/pkg/proto"
)

// keyInfo ties derived keys to this module so they cannot collide with
// another HKDF-based scheme. Changing it changes every derived key;
// it is pinned forever.
const keyInfo = "pgpack (Go) Postgres advisory lock"

// Key addresses one advisory lock. The server keeps two disjoint
// keyspaces, one addressed by a single 64-bit integer and one by a
// pair of 32-bit integers; a key belongs to exactly one of them.
type Key struct {
	pair   bool
	big    int64
	first  int32
	second int32
}

// BigIntKey returns a key in the single 64-bit integer keyspace.
func BigIntKey(key int64) Key {
	return Key{big: key}
}

// IntPairKey returns a key in the paired 32-bit integer keyspace.
func IntPairKey(first, second int32) Key {
	return Key{pair: true, first: first, second: second}
}

// DeriveKey maps an arbitrary string onto the 64-bit keyspace so
// callers can name locks instead of managing integers. The mapping is
// HKDF-SHA256 over the string with no salt and the fixed keyInfo
// context, truncated to 8 bytes read as a little-endian signed
// integer. It is deterministic across runs and versions.
func DeriveKey(keyString string) Key {
	kdf := hkdf.New(sha256.New, []byte(keyString), nil, []byte(keyInfo))
	var okm [8]byte
	if _, err := io.ReadFull(kdf, okm[:]); err != nil {
		// Expanding 8 bytes out of a 32-byte digest cannot fail.
		panic(errors.Errorf("(bug) hkdf expand: %v", err))
	}
	return BigIntKey(int64(binary.LittleEndian.Uint64(okm[:])))
}

// BigInt returns the key value if it is in the 64-bit keyspace.
func (k Key) BigInt() (int64, bool) {
	if k.pair {
		return 0, false
	}
	return k.big, true
}

// IntPair returns the key values if it is in the paired keyspace.
func (k Key) IntPair() (int32, int32, bool) {
	if !k.pair {
		return 0, 0, false
	}
	return k.first, k.second, true
}

func (k Key) String() string {
	if k.pair {
		return fmt.Sprintf("(%d, %d)", k.first, k.second)
	}
	return strconv.FormatInt(k.big, 10)
}

// args renders the key as the argument list of the server-side lock
// functions.
func (k Key) args() string {
	if k.pair {
		return fmt.Sprintf("%d, %d", k.first, k.second)
	}
	return strconv.FormatInt(k.big, 10)
}

// Lock is an acquirable advisory lock key. The zero value is not
// usable; construct with New or WithKey. A Lock carries no connection
// state and may be shared and reused across connections.
type Lock struct {
	key Key

	releaseOnce sync.Once
	release     string
}

// New builds a lock whose key is derived from keyString, see
// DeriveKey.
func New(keyString string) *Lock {
	key := DeriveKey(keyString)
	log.Debugf("derived advisory lock key %s from %q", key, keyString)
	return WithKey(key)
}

// WithKey builds a lock with an explicit key.
func WithKey(key Key) *Lock {
	return &Lock{key: key}
}

// Key returns the lock's key.
func (l *Lock) Key() Key {
	return l.key
}

// releaseQuery is the textual unlock command for this key, computed
// once and reused for every queued release.
func (l *Lock) releaseQuery() string {
	l.releaseOnce.Do(func() {
		l.release = fmt.Sprintf("SELECT pg_advisory_unlock(%s)", l.key.args())
	})
	return l.release
}

// Acquire takes the lock with pg_advisory_lock, blocking until the
// server grants it, and returns a guard bound to conn.
//
// If ctx is cancelled mid-request the server-side lock state is
// unknown; the only safe recovery is closing the connection.
func (l *Lock) Acquire(ctx context.Context, conn proto.Conn) (*Guard, error) {
	query := fmt.Sprintf("SELECT pg_advisory_lock(%s)", l.key.args())
	if _, err := conn.Execute(ctx, query); err != nil {
		return nil, err
	}
	return &Guard{lock: l, conn: conn}, nil
}

// TryAcquire takes the lock with pg_try_advisory_lock, returning
// immediately. Losing the race reports acquired=false with a nil
// error; contention is an expected outcome, not a failure, and the
// connection stays usable by the caller.
func (l *Lock) TryAcquire(ctx context.Context, conn proto.Conn) (guard *Guard, acquired bool, err error) {
	query := fmt.Sprintf("SELECT pg_try_advisory_lock(%s)", l.key.args())
	locked, err := queryBool(ctx, conn, query)
	if err != nil {
		return nil, false, err
	}
	if !locked {
		return nil, false, nil
	}
	return &Guard{lock: l, conn: conn}, true, nil
}

// ForceRelease runs pg_advisory_unlock for this key on conn, outside
// of any guard. It serves connections recovered with Guard.Leak. The
// returned boolean is the server's: false means the lock was not held
// by this connection, and the server has logged a warning of its own.
func (l *Lock) ForceRelease(ctx context.Context, conn proto.Conn) (bool, error) {
	return queryBool(ctx, conn, l.releaseQuery())
}

func queryBool(ctx context.Context, conn proto.Conn, query string) (bool, error) {
	value, err := conn.QueryScalar(ctx, query)
	if err != nil {
		return false, err
	}
	return codec.DecodeBool(value.Ref())
}

// Guard is a held advisory lock bound to the connection that acquired
// it. Exactly one of ReleaseNow, Leak or Close consumes it.
//
// Close queues the unlock command instead of sending it: the command
// goes out the next time the connection is used, so release latency is
// bounded by the next use, not by Close itself. Callers that need the
// lock released eagerly call ReleaseNow.
type Guard struct {
	lock *Lock
	conn proto.Conn
	done bool
}

// Conn exposes the guarded connection so it can keep running queries,
// including re-entrant acquisitions of the same lock, while the lock
// is held. Calling it on a consumed guard panics.
func (g *Guard) Conn() proto.Conn {
	if g.done {
		panic(errors.New("(bug) use of a consumed advisory lock guard"))
	}
	return g.conn
}

// ReleaseNow consumes the guard, releases the lock with a synchronous
// round-trip and hands the connection back. A server report that the
// lock was not held is logged and not treated as an error; it means
// the lock was already released behind the guard's back.
func (g *Guard) ReleaseNow(ctx context.Context) (proto.Conn, error) {
	conn := g.consume()
	released, err := g.lock.ForceRelease(ctx, conn)
	if err != nil {
		return conn, err
	}
	if !released {
		log.Warnf("advisory lock %s was not held by the guarded connection", g.lock.key)
	}
	return conn, nil
}

// Leak consumes the guard without releasing the lock. The lock stays
// held until the connection closes or a later ForceRelease pairs it
// off.
func (g *Guard) Leak() proto.Conn {
	return g.consume()
}

// Close queues the unlock command for the connection's next use. On a
// guard already consumed by ReleaseNow, Leak or an earlier Close it
// does nothing, so a deferred Close is safe alongside the explicit
// paths.
func (g *Guard) Close() error {
	if g.done {
		return nil
	}
	conn := g.consume()
	return conn.QueueSimpleQuery(g.lock.releaseQuery())
}

func (g *Guard) consume() proto.Conn {
	if g.done {
		panic(errors.New("(bug) use of a consumed advisory lock guard"))
	}
	g.done = true
	conn := g.conn
	g.conn = nil
	return conn
}
