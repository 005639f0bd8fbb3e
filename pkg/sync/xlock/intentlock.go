package xlock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xguard/pkg/sync/xlockdiag"
)

// IntentLock 是区分意图的可重入读写锁，支持 Exclusive、ReadOnly、UpgradableRead。
//
// 状态是一张持有记录表，由内部 Mutex（表锁）保护，并配有一个变更信号。
// 获取时在表锁下评估兼容策略（见 Compatible）；不满足时释放表锁，
// 等待变更信号或一个等待切片后重新评估。等待者不排队，信号到来时谁先评估成功谁获得锁。
//
// 同一持有者可以同时持有不同意图的记录，如先 Exclusive 再 ReadOnly。
// 不支持原地升级：持有 UpgradableRead 的持有者可以再请求 Exclusive，
// 但必须等其他 ReadOnly 持有者全部释放，且两条记录要分别释放。
//
// 零值不可用，使用 NewIntentLock 创建。
type IntentLock struct {
	guard  *Mutex
	table  lockTable
	notify chan struct{}
	id     string
	opts   options
}

// NewIntentLock 创建意图锁。等待切片非法时返回 ErrInvalidWaitSlice。
func NewIntentLock(opts ...Option) (*IntentLock, error) {
	o := buildOptions(opts)
	if err := o.validate(); err != nil {
		return nil, err
	}
	return &IntentLock{
		// 表锁不登记、不计量，只是内部实现。
		guard:  newMutex(options{name: o.name + "/table"}),
		table:  newLockTable(),
		notify: make(chan struct{}),
		id:     uuid.NewString(),
		opts:   o,
	}, nil
}

// Acquire 以意图 i 阻塞获取锁。ctx 只用于解析持有者，取消不会中断等待。
func (l *IntentLock) Acquire(ctx context.Context, i Intention) {
	o := OwnerFrom(ctx)
	l.checkIntention(ctx, "Acquire", o, i)
	l.acquireAs(context.WithoutCancel(ctx), o, i, Infinite)
}

// TryAcquire 在 timeout 内尝试以意图 i 获取锁，返回是否成功。
// 失败时表不变，且等待不超过 timeout。ctx 取消时提前返回 false。
func (l *IntentLock) TryAcquire(ctx context.Context, i Intention, timeout time.Duration) bool {
	o := OwnerFrom(ctx)
	l.checkIntention(ctx, "TryAcquire", o, i)
	return l.acquireAs(ctx, o, i, timeout)
}

// Release 释放一次以意图 i 获取的锁。没有对应记录时 panic（*UsageError）。
func (l *IntentLock) Release(ctx context.Context, i Intention) {
	o := OwnerFrom(ctx)
	l.checkIntention(ctx, "Release", o, i)
	l.releaseAs(ctx, o, i)
}

// Lock 等同于 Acquire(ctx, Exclusive)。
func (l *IntentLock) Lock(ctx context.Context) { l.Acquire(ctx, Exclusive) }

// Unlock 等同于 Release(ctx, Exclusive)。
func (l *IntentLock) Unlock(ctx context.Context) { l.Release(ctx, Exclusive) }

// RLock 等同于 Acquire(ctx, ReadOnly)。
func (l *IntentLock) RLock(ctx context.Context) { l.Acquire(ctx, ReadOnly) }

// RUnlock 等同于 Release(ctx, ReadOnly)。
func (l *IntentLock) RUnlock(ctx context.Context) { l.Release(ctx, ReadOnly) }

func (l *IntentLock) checkIntention(ctx context.Context, op string, o Owner, i Intention) {
	if !i.IsValid() {
		raise(ctx, l.opts.logger, &UsageError{Op: op, Lock: l.opts.name, Owner: o, Intention: i, Err: ErrInvalidIntention})
	}
}

// lockGuard 以当前 goroutine 身份获取表锁。调用方的逻辑持有者可能是跨 goroutine 的令牌，
// 不能用它来持有表锁。
func (l *IntentLock) lockGuard() Owner {
	self := CurrentGoroutine()
	l.guard.acquireAs(context.Background(), self, Infinite)
	return self
}

// signalLocked 唤醒所有等待者。调用方必须持有表锁。
func (l *IntentLock) signalLocked() {
	close(l.notify)
	l.notify = make(chan struct{})
}

func (l *IntentLock) acquireAs(ctx context.Context, o Owner, i Intention, timeout time.Duration) bool {
	start := time.Now()
	var deadline time.Time
	if timeout > 0 {
		deadline = start.Add(timeout)
	}

	for {
		self := l.lockGuard()
		granted, first := l.table.tryGrant(o, i)
		if granted {
			l.signalLocked()
		}
		wait := l.notify
		l.guard.releaseAs(ctx, "Unlock", self)

		if granted {
			if first {
				l.opts.registry.Register(xlockdiag.Entry{
					Key:       l.diagKey(o, i),
					OwnerName: o.String(),
					LockName:  l.opts.name,
					Lock:      l,
				})
				l.opts.metrics.RecordAcquire(ctx, KindIntent, l.opts.name, i, true, time.Since(start))
			}
			return true
		}

		slice := l.opts.waitSlice
		switch {
		case timeout == 0:
			return l.fail(ctx, i, start)
		case timeout > 0:
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return l.fail(ctx, i, start)
			}
			slice = min(slice, remaining)
		}

		timer := time.NewTimer(slice)
		select {
		case <-wait:
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return l.fail(ctx, i, start)
		}
		timer.Stop()
	}
}

func (l *IntentLock) fail(ctx context.Context, i Intention, start time.Time) bool {
	l.opts.metrics.RecordAcquire(ctx, KindIntent, l.opts.name, i, false, time.Since(start))
	return false
}

func (l *IntentLock) releaseAs(ctx context.Context, o Owner, i Intention) {
	self := l.lockGuard()
	found, last := l.table.release(o, i)
	if last {
		l.signalLocked()
	}
	l.guard.releaseAs(ctx, "Unlock", self)

	if !found {
		raise(ctx, l.opts.logger, &UsageError{Op: "Release", Lock: l.opts.name, Owner: o, Intention: i, Err: ErrNotHeld})
	}
	if last {
		l.opts.registry.Unregister(l.diagKey(o, i))
		l.opts.metrics.RecordRelease(ctx, KindIntent, l.opts.name, i)
	}
}

func (l *IntentLock) diagKey(o Owner, i Intention) xlockdiag.Key {
	return xlockdiag.Key{Kind: KindIntent + ":" + i.String(), Owner: uint64(o), LockID: l.id}
}

// Records 返回持有记录的快照，按持有者、意图排序。
func (l *IntentLock) Records() []HeldRecord {
	self := l.lockGuard()
	defer l.guard.releaseAs(context.Background(), "Unlock", self)
	return l.table.snapshot()
}

// Held 报告 ctx 对应的持有者是否持有意图 i 的记录。
func (l *IntentLock) Held(ctx context.Context, i Intention) bool {
	o := OwnerFrom(ctx)
	self := l.lockGuard()
	defer l.guard.releaseAs(ctx, "Unlock", self)
	return l.table.holds(o, i)
}

// Locked 报告是否存在任何持有记录。
func (l *IntentLock) Locked() bool {
	self := l.lockGuard()
	defer l.guard.releaseAs(context.Background(), "Unlock", self)
	return len(l.table.records) > 0
}

// ID 返回锁实例的唯一标识（UUID）。
func (l *IntentLock) ID() string { return l.id }

// Name 返回 WithName 设置的名称。
func (l *IntentLock) Name() string { return l.opts.name }
