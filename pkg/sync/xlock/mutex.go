package xlock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/omeyang/xguard/pkg/sync/xlockdiag"
)

// Mutex 是可重入的独占锁。
//
// 持有者可以重复获取，深度随之递增，每次获取都需要一次对应的 Unlock。
// 底层使用 semaphore.Weighted(1)，因此支持有限等待和 ctx 取消。
//
// 零值不可用，使用 NewMutex 创建。
type Mutex struct {
	sem   *semaphore.Weighted
	owner atomic.Uint64
	depth atomic.Int32
	id    string
	opts  options
}

// NewMutex 创建可重入独占锁。WithWaitSlice 对 Mutex 无意义，被忽略。
func NewMutex(opts ...Option) *Mutex {
	return newMutex(buildOptions(opts))
}

func newMutex(o options) *Mutex {
	return &Mutex{
		sem:  semaphore.NewWeighted(1),
		id:   uuid.NewString(),
		opts: o,
	}
}

// Lock 阻塞直到 ctx 对应的持有者获得锁；已是持有者时立即返回。
// ctx 只用于解析持有者，取消不会中断等待。
func (m *Mutex) Lock(ctx context.Context) {
	o := OwnerFrom(ctx)
	m.acquireAs(context.WithoutCancel(ctx), o, Infinite)
}

// TryLock 在 timeout 内尝试获取锁，返回是否成功。
// timeout < 0 无限等待，0 只尝试一次；ctx 取消时提前返回 false。
func (m *Mutex) TryLock(ctx context.Context, timeout time.Duration) bool {
	o := OwnerFrom(ctx)
	return m.acquireAs(ctx, o, timeout)
}

// Unlock 释放一层重入。深度归零时清除持有者并释放底层信号量。
// 未持有或非持有者调用时 panic（*UsageError）。
func (m *Mutex) Unlock(ctx context.Context) {
	m.releaseAs(ctx, "Unlock", OwnerFrom(ctx))
}

// Acquire 实现 Lockable，所有意图都按独占处理。
func (m *Mutex) Acquire(ctx context.Context, i Intention) {
	o := OwnerFrom(ctx)
	m.checkIntention(ctx, "Acquire", o, i)
	m.acquireAs(context.WithoutCancel(ctx), o, Infinite)
}

// TryAcquire 实现 Lockable，所有意图都按独占处理。
func (m *Mutex) TryAcquire(ctx context.Context, i Intention, timeout time.Duration) bool {
	o := OwnerFrom(ctx)
	m.checkIntention(ctx, "TryAcquire", o, i)
	return m.acquireAs(ctx, o, timeout)
}

// Release 实现 Lockable，等同于 Unlock。
func (m *Mutex) Release(ctx context.Context, i Intention) {
	o := OwnerFrom(ctx)
	m.checkIntention(ctx, "Release", o, i)
	m.releaseAs(ctx, "Release", o)
}

func (m *Mutex) checkIntention(ctx context.Context, op string, o Owner, i Intention) {
	if !i.IsValid() {
		raise(ctx, m.opts.logger, &UsageError{Op: op, Lock: m.opts.name, Owner: o, Intention: i, Err: ErrInvalidIntention})
	}
}

// acquireAs 以持有者 o 获取锁。同一持有者的调用必须顺序执行，
// 因此 owner == o 的判断不会与 o 自身的释放交错。
// 零值 Owner 与未持有状态的 owner 字段相同，永远不走重入路径。
func (m *Mutex) acquireAs(ctx context.Context, o Owner, timeout time.Duration) bool {
	if o != 0 && m.depth.Load() > 0 && Owner(m.owner.Load()) == o {
		m.depth.Add(1)
		return true
	}

	start := time.Now()
	ok := m.acquireSem(ctx, timeout)
	m.opts.metrics.RecordAcquire(ctx, KindMutex, m.opts.name, Exclusive, ok, time.Since(start))
	if !ok {
		return false
	}

	m.owner.Store(uint64(o))
	m.depth.Store(1)
	m.opts.registry.Register(xlockdiag.Entry{
		Key:       m.diagKey(o),
		OwnerName: o.String(),
		LockName:  m.opts.name,
		Lock:      m,
	})
	return true
}

func (m *Mutex) acquireSem(ctx context.Context, timeout time.Duration) bool {
	switch {
	case timeout == 0:
		return m.sem.TryAcquire(1)
	case timeout < 0:
		return m.sem.Acquire(ctx, 1) == nil
	default:
		tctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return m.sem.Acquire(tctx, 1) == nil
	}
}

// releaseAs 释放 o 的一层重入，op 是报告给调用方的操作名。
func (m *Mutex) releaseAs(ctx context.Context, op string, o Owner) {
	if m.depth.Load() <= 0 {
		raise(ctx, m.opts.logger, &UsageError{Op: op, Lock: m.opts.name, Owner: o, Intention: Exclusive, Err: ErrNotHeld})
	}
	if cur := Owner(m.owner.Load()); cur != o {
		raise(ctx, m.opts.logger, &UsageError{Op: op, Lock: m.opts.name, Owner: o, Intention: Exclusive, Err: ErrNotOwner})
	}
	if m.depth.Add(-1) > 0 {
		return
	}

	m.opts.registry.Unregister(m.diagKey(o))
	m.owner.Store(0)
	m.sem.Release(1)
	m.opts.metrics.RecordRelease(ctx, KindMutex, m.opts.name, Exclusive)
}

func (m *Mutex) diagKey(o Owner) xlockdiag.Key {
	return xlockdiag.Key{Kind: KindMutex, Owner: uint64(o), LockID: m.id}
}

// ID 返回锁实例的唯一标识（UUID）。
func (m *Mutex) ID() string { return m.id }

// Name 返回 WithName 设置的名称。
func (m *Mutex) Name() string { return m.opts.name }

// Owner 返回当前持有者，未持有时为 0。结果仅供观测，返回时可能已过期。
func (m *Mutex) Owner() Owner { return Owner(m.owner.Load()) }

// Depth 返回当前重入深度。
func (m *Mutex) Depth() int { return int(m.depth.Load()) }

// Locked 报告锁是否被持有。
func (m *Mutex) Locked() bool { return m.depth.Load() > 0 }
