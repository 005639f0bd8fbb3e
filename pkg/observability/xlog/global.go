package xlog

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	globalLogger atomic.Pointer[LoggerWithLevel]
	globalOnce   sync.Once
)

// Default 返回全局默认 Logger（惰性初始化：stderr、Info 级别、text 格式）。
// 仅供 cmd 工具使用，库代码通过选项注入 Logger。
func Default() LoggerWithLevel {
	if l := globalLogger.Load(); l != nil {
		return *l
	}
	globalOnce.Do(func() {
		// 默认参数不会构建失败
		l, _, _ := New().Build()
		globalLogger.CompareAndSwap(nil, &l)
	})
	return *globalLogger.Load()
}

// SetDefault 替换全局默认 Logger，nil 被忽略。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	globalLogger.Store(&l)
}

// Discard 返回丢弃所有输出的 Logger。
func Discard() LoggerWithLevel {
	levelVar := new(slog.LevelVar)
	return &xlogger{
		handler:    slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelVar}),
		levelVar:   levelVar,
		errorCount: new(atomic.Uint64),
	}
}
