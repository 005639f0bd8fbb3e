package xlock

import "time"

// 超时约定，所有 Try* 操作通用。
const (
	// Infinite 无限等待，直到获取成功或 ctx 取消。
	Infinite time.Duration = -1
	// NoWait 只尝试一次，不等待。
	NoWait time.Duration = 0
)

// Millis 将整数毫秒约定（-1 无限等待，0 只尝试一次，>0 有限等待）转换为 time.Duration。
// 任何负数都视为 Infinite。
func Millis(ms int) time.Duration {
	if ms < 0 {
		return Infinite
	}
	return time.Duration(ms) * time.Millisecond
}
