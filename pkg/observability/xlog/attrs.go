package xlog

import (
	"log/slog"
	"time"
)

// 锁场景常用的属性 key
const (
	KeyError     = "error"
	KeyStack     = "stack"
	KeyDuration  = "duration"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyLock      = "lock"
	KeyLockID    = "lock_id"
	KeyOwner     = "owner"
	KeyIntention = "intention"
	KeyCount     = "count"
)

// Err 创建错误属性；err 为 nil 时返回空属性（被 slog 忽略）。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建人类可读的耗时属性（如 "50ms"）。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名属性
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// LockName 创建锁名称属性
func LockName(name string) slog.Attr {
	return slog.String(KeyLock, name)
}

// LockID 创建锁标识属性
func LockID(id string) slog.Attr {
	return slog.String(KeyLockID, id)
}

// OwnerAttr 创建持有者属性。owner 接受任意 fmt.Stringer（如 xlock.Owner）。
func OwnerAttr(owner interface{ String() string }) slog.Attr {
	return slog.String(KeyOwner, owner.String())
}

// IntentionAttr 创建锁意图属性
func IntentionAttr(intention interface{ String() string }) slog.Attr {
	return slog.String(KeyIntention, intention.String())
}

// Count 创建计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}
