package xlock

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// Owner 标识锁的逻辑持有者，对应"线程"的概念。
//
// 默认持有者是当前 goroutine（goroutine id）。需要跨 goroutine 持有同一把锁时，
// 用 NewOwner 创建显式令牌，并通过 WithOwner 放入 context。
// 同一 Owner 的加锁/解锁操作必须顺序执行，不能被多个 goroutine 并发使用。
//
// 零值表示"无持有者"。
type Owner uint64

// tokenBit 区分显式令牌与 goroutine id，两者永不冲突。
const tokenBit = 1 << 63

var tokenSeq atomic.Uint64

// NewOwner 分配一个新的显式持有者令牌。
func NewOwner() Owner {
	return Owner(tokenBit | tokenSeq.Add(1))
}

// CurrentGoroutine 返回当前 goroutine 对应的 Owner。
//
// goroutine id 从 1 开始。读到 0 说明 goid 不支持当前 Go 运行时，
// 此时所有 goroutine 会被视为同一个持有者，因此直接 panic。
func CurrentGoroutine() Owner {
	id := goid.Get()
	if id <= 0 {
		panic(fmt.Sprintf("xlock: goroutine id unavailable (goid returned %d), upgrade github.com/petermattis/goid", id))
	}
	return Owner(uint64(id))
}

// IsToken 报告 o 是否为 NewOwner 创建的显式令牌。
func (o Owner) IsToken() bool {
	return o&tokenBit != 0
}

// String 返回 "goroutine:N"、"owner:N" 或 "none"。
func (o Owner) String() string {
	switch {
	case o == 0:
		return "none"
	case o.IsToken():
		return "owner:" + strconv.FormatUint(uint64(o&^tokenBit), 10)
	default:
		return "goroutine:" + strconv.FormatUint(uint64(o), 10)
	}
}

type ownerKey struct{}

// WithOwner 返回携带显式持有者的 context。o 为零值时返回原 ctx。
func WithOwner(ctx context.Context, o Owner) context.Context {
	if ctx == nil {
		panic("xlock: nil Context")
	}
	if o == 0 {
		return ctx
	}
	return context.WithValue(ctx, ownerKey{}, o)
}

// OwnerFrom 解析 ctx 对应的持有者：优先取 WithOwner 设置的令牌，否则为当前 goroutine。
// ctx 为 nil 时 panic。
func OwnerFrom(ctx context.Context) Owner {
	if ctx == nil {
		panic("xlock: nil Context")
	}
	if o, ok := ctx.Value(ownerKey{}).(Owner); ok {
		return o
	}
	return CurrentGoroutine()
}
