package xguard

import "github.com/omeyang/xguard/pkg/sync/xlock"

// Option 定义 Guard 可选配置。
type Option func(*options)

type options struct {
	intent   bool
	lockOpts []xlock.Option
}

// WithIntentLock 使用 xlock.IntentLock 代替默认的 xlock.Mutex。
func WithIntentLock() Option {
	return func(o *options) {
		o.intent = true
	}
}

// WithLockOptions 传递给新建锁的选项，如 xlock.WithName、xlock.WithRegistry。
func WithLockOptions(opts ...xlock.Option) Option {
	return func(o *options) {
		o.lockOpts = append(o.lockOpts, opts...)
	}
}
