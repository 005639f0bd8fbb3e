package xguard

//go:generate mockgen -destination=mock_lockable_test.go -package=xguard github.com/omeyang/xguard/pkg/sync/xlock Lockable

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xguard/pkg/sync/xlock"
	"github.com/omeyang/xguard/pkg/sync/xlockdiag"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type account struct {
	Balance int
}

func mustGuard[T any](t *testing.T, v T, opts ...Option) *Guard[T] {
	t.Helper()
	g, err := New(v, opts...)
	require.NoError(t, err)
	return g
}

// inGoroutine 在新 goroutine 中执行 fn 并等待其返回，用于模拟另一个持有者。
func inGoroutine[R any](fn func() R) R {
	ch := make(chan R, 1)
	go func() { ch <- fn() }()
	return <-ch
}

func TestNew_LockKinds(t *testing.T) {
	g := mustGuard(t, 1)
	_, ok := g.Lock().(*xlock.Mutex)
	assert.True(t, ok)

	g = mustGuard(t, 1, WithIntentLock(), WithLockOptions(xlock.WithName("n")), nil)
	l, ok := g.Lock().(*xlock.IntentLock)
	require.True(t, ok)
	assert.Equal(t, "n", l.Name())

	_, err := New(1, WithIntentLock(), WithLockOptions(xlock.WithWaitSlice(0)))
	assert.ErrorIs(t, err, xlock.ErrInvalidWaitSlice)

	assert.PanicsWithValue(t, "xguard: nil Lockable", func() { NewShared(1, nil) })
}

func TestDo_MutatesAndReleases(t *testing.T) {
	ctx := context.Background()
	g := mustGuard(t, account{Balance: 10})

	require.NoError(t, g.Use(ctx, func(a *account) error {
		a.Balance += 5
		return nil
	}))

	bal, err := Get(ctx, g, xlock.ReadOnly, func(a *account) (int, error) { return a.Balance, nil })
	require.NoError(t, err)
	assert.Equal(t, 15, bal)
	assert.False(t, g.Lock().(*xlock.Mutex).Locked())
}

func TestDo_ReturnsCallbackError(t *testing.T) {
	ctx := context.Background()
	g := mustGuard(t, account{}, WithIntentLock())
	boom := errors.New("boom")

	err := g.Read(ctx, func(*account) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, g.Lock().(*xlock.IntentLock).Locked())

	_, err = Get(ctx, g, xlock.Exclusive, func(*account) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, g.Lock().(*xlock.IntentLock).Locked())
}

func TestDo_ReleasesOnPanic(t *testing.T) {
	ctx := context.Background()
	g := mustGuard(t, account{}, WithIntentLock())

	assert.PanicsWithValue(t, "callback fault", func() {
		_ = g.Upgradable(ctx, func(*account) error { panic("callback fault") })
	})
	assert.False(t, g.Lock().(*xlock.IntentLock).Locked())

	assert.Panics(t, func() {
		_, _ = g.TryUse(ctx, xlock.NoWait, func(*account) error { panic("again") })
	})
	assert.Panics(t, func() {
		_, _, _ = TryGet(ctx, g, xlock.ReadOnly, xlock.NoWait, 0, func(*account) (int, error) { panic("get") })
	})
	assert.False(t, g.Lock().(*xlock.IntentLock).Locked())

	// 锁可继续使用
	ok, err := g.TryUse(ctx, xlock.NoWait, func(*account) error { return nil })
	assert.True(t, ok)
	assert.NoError(t, err)
}

func TestTryDo_Contended(t *testing.T) {
	ctx := context.Background()
	g := mustGuard(t, account{Balance: 1}, WithIntentLock())

	g.Acquire(ctx, xlock.Exclusive)
	var ran atomic.Bool
	ok, err := inGoroutine(func() tryResult {
		ok, err := g.TryRead(ctx, 10*time.Millisecond, func(*account) error {
			ran.Store(true)
			return nil
		})
		return tryResult{ok, err}
	}).unpack()
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.False(t, ran.Load())

	v, got, err := inGoroutine(func() getResult {
		v, got, err := TryGet(ctx, g, xlock.ReadOnly, xlock.NoWait, -1, func(a *account) (int, error) { return a.Balance, nil })
		return getResult{v, got, err}
	}).unpack()
	assert.Equal(t, -1, v)
	assert.False(t, got)
	assert.NoError(t, err)

	g.Release(ctx, xlock.Exclusive)

	v, got, err = TryGet(ctx, g, xlock.ReadOnly, xlock.NoWait, -1, func(a *account) (int, error) { return a.Balance, nil })
	assert.Equal(t, 1, v)
	assert.True(t, got)
	assert.NoError(t, err)
}

type getResult struct {
	v   int
	ok  bool
	err error
}

func (r getResult) unpack() (int, bool, error) { return r.v, r.ok, r.err }

func TestReadersConcurrent(t *testing.T) {
	ctx := context.Background()
	g := mustGuard(t, account{Balance: 3}, WithIntentLock())

	const readers = 6
	var inside atomic.Int32
	var peak atomic.Int32
	all := make(chan struct{})

	var eg errgroup.Group
	for range readers {
		eg.Go(func() error {
			return g.Read(ctx, func(a *account) error {
				n := inside.Add(1)
				if n == readers {
					close(all)
				}
				for {
					if p := peak.Load(); n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				select {
				case <-all:
				case <-time.After(time.Second):
					return errors.New("readers were serialized")
				}
				inside.Add(-1)
				return nil
			})
		})
	}
	require.NoError(t, eg.Wait())
	assert.Equal(t, int32(readers), peak.Load())
}

func TestSharedLockSerializesGroup(t *testing.T) {
	ctx := context.Background()
	shared := xlock.NewMutex(xlock.WithName("shared"))
	names := NewShared([]string{}, shared)
	count := NewShared(0, shared)

	require.NoError(t, names.Use(ctx, func(s *[]string) error {
		// 同一持有者可重入，另一个 Guard 同样可用
		return count.Use(ctx, func(n *int) error {
			*s = append(*s, "x")
			*n++
			return nil
		})
	}))

	names.Acquire(ctx, xlock.Exclusive)
	ok := inGoroutine(func() bool {
		ok, _ := count.TryUse(ctx, xlock.NoWait, func(*int) error { return nil })
		return ok
	})
	assert.False(t, ok, "locking one guard locks the whole group")
	names.Release(ctx, xlock.Exclusive)
	assert.Same(t, shared, count.Lock())
}

func TestGuard_DelegatesToMockLock(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	lock := NewMockLockable(ctrl)
	g := NewShared("v", lock)

	gomock.InOrder(
		lock.EXPECT().Acquire(ctx, xlock.UpgradableRead),
		lock.EXPECT().Release(ctx, xlock.UpgradableRead),
		lock.EXPECT().TryAcquire(ctx, xlock.Exclusive, time.Second).Return(false),
	)

	require.NoError(t, g.Upgradable(ctx, func(*string) error { return nil }))
	ok, err := g.TryUse(ctx, time.Second, func(*string) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestGuard_Registry(t *testing.T) {
	ctx := context.Background()
	reg, err := xlockdiag.New()
	require.NoError(t, err)
	reg.Enable()

	g := mustGuard(t, 0, WithIntentLock(), WithLockOptions(xlock.WithName("counter"), xlock.WithRegistry(reg)))
	require.NoError(t, g.Read(ctx, func(*int) error {
		snap := reg.Snapshot()
		require.Len(t, snap, 1)
		assert.Equal(t, "counter", snap[0].LockName)
		return nil
	}))
	assert.Zero(t, reg.Len())
}

type tryResult struct {
	ok  bool
	err error
}

func (r tryResult) unpack() (bool, error) { return r.ok, r.err }
