package xlock

import (
	"fmt"
	"time"

	"github.com/omeyang/xguard/pkg/observability/xlog"
	"github.com/omeyang/xguard/pkg/sync/xlockdiag"
)

// DefaultWaitSlice 是 IntentLock 等待变更信号的默认最长切片。
const DefaultWaitSlice = 50 * time.Millisecond

// Option 定义锁的可选配置。
type Option func(*options)

type options struct {
	name      string
	registry  *xlockdiag.Registry
	metrics   *Metrics
	logger    xlog.Logger
	waitSlice time.Duration
}

func defaultOptions() options {
	return options{waitSlice: DefaultWaitSlice}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithName 设置锁名称，用于诊断记录、日志和 UsageError。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithRegistry 注入诊断登记表。nil 表示不登记。
func WithRegistry(r *xlockdiag.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithMetrics 注入指标收集器。nil 表示不收集。
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLogger 设置日志器。锁只在抛出 UsageError 前输出一条 Stack 日志，
// 未设置时不输出任何日志。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithWaitSlice 设置 IntentLock 单次等待变更信号的最长时间，默认 50ms。
// 信号是真正的广播，切片只是错过信号时的兜底。d 必须为正数。Mutex 忽略此选项。
func WithWaitSlice(d time.Duration) Option {
	return func(o *options) {
		o.waitSlice = d
	}
}

func (o *options) validate() error {
	if o.waitSlice <= 0 {
		return fmt.Errorf("%w: must be positive, got %s", ErrInvalidWaitSlice, o.waitSlice)
	}
	return nil
}
