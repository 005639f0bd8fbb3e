package xlock

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xguard/pkg/config/xconf"
	"github.com/omeyang/xguard/pkg/observability/xlog"
	"github.com/omeyang/xguard/pkg/sync/xlockdiag"
)

// Config 是锁运行环境的配置，通常位于配置文件的 "xlock" 段：
//
//	xlock:
//	  diagnostics: true
//	  wait_slice: 50ms
//	  registry_shards: 32
//	  log:
//	    level: info
//	    format: json
//	    file: /var/log/app/xlock.log
//	    max_size_mb: 50
//	    add_source: false
type Config struct {
	// Diagnostics 为 true 时 Bootstrap 开启诊断登记表。
	Diagnostics bool `koanf:"diagnostics"`
	// WaitSlice 是 IntentLock 的等待切片。
	WaitSlice time.Duration `koanf:"wait_slice"`
	// RegistryShards 是诊断登记表的分片数，必须为 2 的幂。
	RegistryShards int `koanf:"registry_shards"`
	// Log 配置锁使用错误与诊断报告的日志输出。
	Log LogConfig `koanf:"log"`
}

// LogConfig 日志配置。File 为空时输出到 Bootstrap 的 out。
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// File 非空时写入按大小轮转的文件。
	File string `koanf:"file"`
	// MaxSizeMB 是单个日志文件的大小上限，0 使用 xlog.DefaultMaxSizeMB。
	MaxSizeMB int `koanf:"max_size_mb"`
	// AddSource 为 true 时日志带源码位置。
	AddSource bool `koanf:"add_source"`
}

// DefaultConfig 返回默认配置：诊断关闭，等待切片 50ms，32 分片，info 级文本日志。
func DefaultConfig() Config {
	return Config{
		WaitSlice:      DefaultWaitSlice,
		RegistryShards: 32,
		Log:            LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig 从 cfg 的 path 段读取配置，未出现的字段保持默认值，并执行校验。
func LoadConfig(cfg xconf.Config, path string) (Config, error) {
	c := DefaultConfig()
	if err := cfg.Unmarshal(path, &c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate 校验配置。
func (c Config) Validate() error {
	if c.WaitSlice <= 0 {
		return fmt.Errorf("%w: wait_slice must be positive, got %s", ErrInvalidConfig, c.WaitSlice)
	}
	if n := c.RegistryShards; n <= 0 || n&(n-1) != 0 {
		return fmt.Errorf("%w: registry_shards must be a positive power of 2, got %d", ErrInvalidConfig, n)
	}
	if _, err := xlog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}
	if c.Log.MaxSizeMB < 0 {
		return fmt.Errorf("%w: log.max_size_mb must not be negative, got %d", ErrInvalidConfig, c.Log.MaxSizeMB)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// Runtime 是进程启动时根据 Config 构建的锁运行环境，替代全局状态。
// 由启动代码持有，并通过 Options 注入到每把锁。
type Runtime struct {
	Registry *xlockdiag.Registry
	Logger   xlog.LoggerWithLevel
	// Metrics 在 Bootstrap 传入 WithMeterProvider 时非 nil。
	Metrics *Metrics
	opts    []Option
}

// Options 返回注入运行环境的锁选项，extra 追加在后，可覆盖默认值。
func (r *Runtime) Options(extra ...Option) []Option {
	out := make([]Option, 0, len(r.opts)+len(extra))
	out = append(out, r.opts...)
	return append(out, extra...)
}

// Apply 把配置中可热更新的部分应用到运行环境：
// diagnostics 为 true 时开启登记表（登记表只能打开，false 不会关闭它），
// log.level 更新日志级别。其余字段在锁创建时已经固定，被忽略。
func (r *Runtime) Apply(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	level, err := xlog.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	if c.Diagnostics && !r.Registry.Enabled() {
		r.Registry.Enable()
		r.Logger.Info(context.Background(), "lock diagnostics enabled")
	}
	if r.Logger.GetLevel() != level {
		r.Logger.SetLevel(level)
		r.Logger.Info(context.Background(), "lock log level changed", slog.String("level", level.String()))
	}
	return nil
}

// Watch 监视 cfg 的配置文件，每次重载后读取 section 段并 Apply。
// 读取或校验失败时记录 Warn 日志并保持当前设置。返回已启动的监视器，调用方负责 Stop。
func (r *Runtime) Watch(cfg xconf.Config, section string, opts ...xconf.WatchOption) (*xconf.Watcher, error) {
	w, err := xconf.Watch(cfg, func(cfg xconf.Config, err error) {
		if err == nil {
			var c Config
			if c, err = LoadConfig(cfg, section); err == nil {
				err = r.Apply(c)
			}
		}
		if err != nil {
			r.Logger.Warn(context.Background(), "lock config reload failed", xlog.Err(err))
		}
	}, opts...)
	if err != nil {
		return nil, err
	}
	w.StartAsync()
	return w, nil
}

// BootstrapOption 配置 Bootstrap。
type BootstrapOption func(*bootstrapOptions)

type bootstrapOptions struct {
	meterProvider metric.MeterProvider
	metricsOpts   []MetricsOption
}

// WithMeterProvider 为运行环境创建 Metrics 并注入每把锁。mp 为 nil 时不收集指标。
func WithMeterProvider(mp metric.MeterProvider, opts ...MetricsOption) BootstrapOption {
	return func(o *bootstrapOptions) {
		o.meterProvider = mp
		o.metricsOpts = opts
	}
}

// Bootstrap 构建日志器、诊断登记表和可选的指标收集器。配置了 log.file 时日志写入轮转文件，
// 否则写到 out，out 为 nil 时写到 os.Stderr。
// 返回的清理函数关闭日志文件，可重复调用。
func (c Config) Bootstrap(out io.Writer, opts ...BootstrapOption) (*Runtime, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	var bo bootstrapOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&bo)
		}
	}
	metrics, err := NewMetrics(bo.meterProvider, bo.metricsOpts...)
	if err != nil {
		return nil, nil, err
	}

	if out == nil {
		out = os.Stderr
	}
	b := xlog.New().
		SetOutput(out).
		SetLevelString(c.Log.Level).
		SetFormat(strings.ToLower(c.Log.Format)).
		SetAddSource(c.Log.AddSource)
	if c.Log.File != "" {
		var rotation []xlog.RotationOption
		if c.Log.MaxSizeMB > 0 {
			rotation = append(rotation, xlog.WithMaxSize(c.Log.MaxSizeMB))
		}
		b = b.SetRotation(c.Log.File, rotation...)
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return nil, nil, err
	}

	reg, err := xlockdiag.New(
		xlockdiag.WithShardCount(c.RegistryShards),
		xlockdiag.WithLogger(logger),
	)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	if c.Diagnostics {
		reg.Enable()
	}

	return &Runtime{
		Registry: reg,
		Logger:   logger,
		Metrics:  metrics,
		opts: []Option{
			WithRegistry(reg),
			WithLogger(logger),
			WithMetrics(metrics),
			WithWaitSlice(c.WaitSlice),
		},
	}, cleanup, nil
}
