package xlock

import (
	"context"
	"time"
)

// Lockable 是两种锁的公共能力，多资源事务通过它混用 Mutex 与 IntentLock。
//
// 持有者由 ctx 决定，见 OwnerFrom。
type Lockable interface {
	// Acquire 以意图 i 阻塞获取锁。ctx 只用于解析持有者，取消不会中断等待。
	Acquire(ctx context.Context, i Intention)

	// TryAcquire 在 timeout 内尝试以意图 i 获取锁，返回是否成功。
	// timeout < 0 无限等待，0 只尝试一次；ctx 取消时提前返回 false。
	TryAcquire(ctx context.Context, i Intention, timeout time.Duration) bool

	// Release 释放一次以意图 i 获取的锁。未持有时 panic（*UsageError）。
	Release(ctx context.Context, i Intention)
}

// 编译期接口检查。
var (
	_ Lockable = (*Mutex)(nil)
	_ Lockable = (*IntentLock)(nil)
)
