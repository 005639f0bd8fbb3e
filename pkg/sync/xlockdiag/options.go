package xlockdiag

import (
	"fmt"

	"github.com/omeyang/xguard/pkg/observability/xlog"
)

const (
	defaultShardCount = 32
	maxShardCount     = 1 << 16
)

// Option 定义 Registry 可选配置。
type Option func(*options)

type options struct {
	shardCount int
	logger     xlog.Logger
}

func defaultOptions() options {
	return options{shardCount: defaultShardCount}
}

// WithShardCount 设置分片数量。
// n 必须为正整数且为 2 的幂，上限 65536，否则 New 返回 [ErrInvalidShardCount]。默认 32。
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shardCount = n
	}
}

// WithLogger 设置 Report 的默认日志器，并在登记/注销时输出 Debug 日志。
// nil 被忽略。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func (o *options) validate() error {
	sc := o.shardCount
	if sc <= 0 || sc > maxShardCount || sc&(sc-1) != 0 {
		return fmt.Errorf("%w: must be a positive power of 2 (max %d), got %d",
			ErrInvalidShardCount, maxShardCount, sc)
	}
	return nil
}
