package xguard

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/omeyang/xguard/pkg/sync/xlock"
)

// UseAll 以意图 i 原子地获取 primary 与全部 secondaries，然后以 primary 的值执行 fn。
//
// 获取顺序：先 primary，再按切片顺序获取各 secondary，每一把都使用完整的 timeout。
// 任一获取失败：按获取顺序释放已获得的 secondary，再释放 primary，
// 返回 committed=false、err=nil，fn 不会执行。
// 全部成功：执行 fn，释放所有锁，返回 committed=true 与 fn 的错误。
// fn panic 时同样释放所有锁。nil 元素被忽略。
//
// 不保证跨事务的加锁顺序，见包文档。
func UseAll[T any](ctx context.Context, primary *Guard[T], i xlock.Intention, timeout time.Duration,
	secondaries []xlock.Lockable, fn func(*T) error) (committed bool, err error) {
	if !primary.lock.TryAcquire(ctx, i, timeout) {
		return false, nil
	}

	acquired := make([]xlock.Lockable, 0, len(secondaries))
	defer func() {
		for _, l := range acquired {
			l.Release(ctx, i)
		}
		primary.lock.Release(ctx, i)
	}()

	for _, l := range secondaries {
		if l == nil {
			continue
		}
		if !l.TryAcquire(ctx, i, timeout) {
			return false, nil
		}
		acquired = append(acquired, l)
	}
	return true, fn(&primary.value)
}

// RetryPolicy 定义 UseAllRetry 的重试策略。
type RetryPolicy struct {
	// Attempts 是最多尝试次数，0 表示直到提交成功或 ctx 结束。
	Attempts uint
	// Delay 是两次尝试之间的固定间隔。
	Delay time.Duration
}

// UseAllRetry 循环调用 UseAll，直到事务提交。
// 用尽次数返回 ErrNotCommitted；fn 返回的错误不重试，原样返回；ctx 结束时返回 ctx 的错误。
func UseAllRetry[T any](ctx context.Context, primary *Guard[T], i xlock.Intention, timeout time.Duration,
	secondaries []xlock.Lockable, fn func(*T) error, policy RetryPolicy) error {
	return retry.New(
		retry.Context(ctx),
		retry.Attempts(policy.Attempts),
		retry.Delay(policy.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrNotCommitted)
		}),
	).Do(func() error {
		committed, err := UseAll(ctx, primary, i, timeout, secondaries, fn)
		if !committed {
			return ErrNotCommitted
		}
		return err
	})
}
