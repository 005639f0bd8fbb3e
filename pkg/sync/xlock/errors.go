package xlock

import (
	"context"
	"errors"
	"fmt"

	"github.com/omeyang/xguard/pkg/observability/xlog"
)

var (
	// ErrNotHeld 表示释放了未持有的锁，或释放次数多于获取次数。
	ErrNotHeld = errors.New("xlock: lock not held")

	// ErrNotOwner 表示非持有者尝试释放锁。
	ErrNotOwner = errors.New("xlock: lock held by another owner")

	// ErrInvalidIntention 表示未定义的意图值。
	ErrInvalidIntention = errors.New("xlock: invalid intention")

	// ErrInvalidWaitSlice 表示等待切片不是正数。
	ErrInvalidWaitSlice = errors.New("xlock: invalid wait slice")

	// ErrInvalidConfig 表示配置校验失败。
	ErrInvalidConfig = errors.New("xlock: invalid config")
)

// UsageError 描述调用方的锁使用错误。它以 panic 抛出，不会被静默忽略。
//
// recover 得到的值可用 errors.Is 匹配 ErrNotHeld/ErrNotOwner/ErrInvalidIntention。
type UsageError struct {
	Op        string
	Lock      string
	Owner     Owner
	Intention Intention
	Err       error
}

func (e *UsageError) Error() string {
	lock := e.Lock
	if lock == "" {
		lock = "<unnamed>"
	}
	return fmt.Sprintf("xlock: %s %s by %s (%s): %v", e.Op, lock, e.Owner, e.Intention, e.Err)
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// raise 记录（如配置了日志器）并以 *UsageError panic。
func raise(ctx context.Context, logger xlog.Logger, ue *UsageError) {
	if logger != nil {
		logger.Stack(ctx, "lock usage error",
			xlog.Err(ue.Err),
			xlog.Operation(ue.Op),
			xlog.LockName(ue.Lock),
			xlog.OwnerAttr(ue.Owner),
			xlog.IntentionAttr(ue.Intention),
		)
	}
	panic(ue)
}
