package xguard

import (
	"context"
	"time"

	"github.com/omeyang/xguard/pkg/sync/xlock"
)

// Guard 持有一个受保护的值和一把锁。零值不可用。
type Guard[T any] struct {
	value T
	lock  xlock.Lockable
}

// New 创建拥有独立锁的 Guard，默认使用 xlock.Mutex。
// 仅在锁选项非法时返回错误（见 xlock.NewIntentLock）。
func New[T any](value T, opts ...Option) (*Guard[T], error) {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if !o.intent {
		return &Guard[T]{value: value, lock: xlock.NewMutex(o.lockOpts...)}, nil
	}
	l, err := xlock.NewIntentLock(o.lockOpts...)
	if err != nil {
		return nil, err
	}
	return &Guard[T]{value: value, lock: l}, nil
}

// NewShared 创建绑定到外部锁的 Guard。lock 为 nil 时 panic。
func NewShared[T any](value T, lock xlock.Lockable) *Guard[T] {
	if lock == nil {
		panic("xguard: nil Lockable")
	}
	return &Guard[T]{value: value, lock: lock}
}

// Lock 返回底层锁。
func (g *Guard[T]) Lock() xlock.Lockable {
	return g.lock
}

// Do 以意图 i 阻塞获取锁后执行 fn，返回 fn 的错误。
func (g *Guard[T]) Do(ctx context.Context, i xlock.Intention, fn func(*T) error) error {
	g.lock.Acquire(ctx, i)
	defer g.lock.Release(ctx, i)
	return fn(&g.value)
}

// TryDo 在 timeout 内尝试以意图 i 获取锁，成功才执行 fn。
// ok 表示是否获得了锁；未获得时 err 恒为 nil。
func (g *Guard[T]) TryDo(ctx context.Context, i xlock.Intention, timeout time.Duration, fn func(*T) error) (ok bool, err error) {
	if !g.lock.TryAcquire(ctx, i, timeout) {
		return false, nil
	}
	defer g.lock.Release(ctx, i)
	return true, fn(&g.value)
}

// Use 以 Exclusive 执行 fn。
func (g *Guard[T]) Use(ctx context.Context, fn func(*T) error) error {
	return g.Do(ctx, xlock.Exclusive, fn)
}

// Read 以 ReadOnly 执行 fn，fn 不得修改值。
func (g *Guard[T]) Read(ctx context.Context, fn func(*T) error) error {
	return g.Do(ctx, xlock.ReadOnly, fn)
}

// Upgradable 以 UpgradableRead 执行 fn，fn 不得修改值。
// 需要写入时在 fn 内调用 Use：同一持有者的独占请求会等待其他读者离开。
func (g *Guard[T]) Upgradable(ctx context.Context, fn func(*T) error) error {
	return g.Do(ctx, xlock.UpgradableRead, fn)
}

// TryUse 以 Exclusive 调用 TryDo。
func (g *Guard[T]) TryUse(ctx context.Context, timeout time.Duration, fn func(*T) error) (bool, error) {
	return g.TryDo(ctx, xlock.Exclusive, timeout, fn)
}

// TryRead 以 ReadOnly 调用 TryDo。
func (g *Guard[T]) TryRead(ctx context.Context, timeout time.Duration, fn func(*T) error) (bool, error) {
	return g.TryDo(ctx, xlock.ReadOnly, timeout, fn)
}

// Acquire 实现 xlock.Lockable，委托给底层锁，Guard 因此可作为事务的从资源。
func (g *Guard[T]) Acquire(ctx context.Context, i xlock.Intention) {
	g.lock.Acquire(ctx, i)
}

// TryAcquire 实现 xlock.Lockable。
func (g *Guard[T]) TryAcquire(ctx context.Context, i xlock.Intention, timeout time.Duration) bool {
	return g.lock.TryAcquire(ctx, i, timeout)
}

// Release 实现 xlock.Lockable。
func (g *Guard[T]) Release(ctx context.Context, i xlock.Intention) {
	g.lock.Release(ctx, i)
}

// Get 以意图 i 阻塞获取锁，返回 fn 的结果。
func Get[T, R any](ctx context.Context, g *Guard[T], i xlock.Intention, fn func(*T) (R, error)) (R, error) {
	g.lock.Acquire(ctx, i)
	defer g.lock.Release(ctx, i)
	return fn(&g.value)
}

// TryGet 在 timeout 内尝试获取锁并返回 fn 的结果；未获得锁时返回 def、false、nil。
func TryGet[T, R any](ctx context.Context, g *Guard[T], i xlock.Intention, timeout time.Duration, def R, fn func(*T) (R, error)) (R, bool, error) {
	if !g.lock.TryAcquire(ctx, i, timeout) {
		return def, false, nil
	}
	defer g.lock.Release(ctx, i)
	r, err := fn(&g.value)
	return r, true, err
}

var _ xlock.Lockable = (*Guard[int])(nil)
