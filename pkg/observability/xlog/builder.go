package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 轮转默认值
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 7
	DefaultMaxAgeDays = 30
)

// ErrEmptyFilename 表示 SetRotation 收到空文件名。
var ErrEmptyFilename = errors.New("xlog: empty rotation filename")

// RotationOption 日志轮转配置选项
type RotationOption func(*lumberjack.Logger)

// WithMaxSize 设置单个日志文件最大大小（MB）
func WithMaxSize(mb int) RotationOption {
	return func(l *lumberjack.Logger) { l.MaxSize = mb }
}

// WithMaxBackups 设置保留的备份文件数量，0 表示不按数量清理
func WithMaxBackups(n int) RotationOption {
	return func(l *lumberjack.Logger) { l.MaxBackups = n }
}

// WithMaxAge 设置保留备份的天数，0 表示不按天数清理
func WithMaxAge(days int) RotationOption {
	return func(l *lumberjack.Logger) { l.MaxAge = days }
}

// WithCompress 设置是否 gzip 压缩备份文件
func WithCompress(compress bool) RotationOption {
	return func(l *lumberjack.Logger) { l.Compress = compress }
}

// Builder 日志配置构建器
type Builder struct {
	output    io.Writer
	levelVar  *slog.LevelVar
	format    string
	addSource bool
	rotator   io.Closer
	onError   func(error)
	err       error
}

// New 创建配置构建器：stderr、Info 级别、text 格式。
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

// SetOutput 设置日志输出目标
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if b.err != nil {
		return b
	}
	if w == nil {
		b.err = errors.New("xlog: nil output")
		return b
	}
	b.output = w
	return b
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	if b.err == nil {
		b.levelVar.Set(slog.Level(level))
	}
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	if b.err != nil {
		return b
	}
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空值视为 text。
func (b *Builder) SetFormat(format string) *Builder {
	if b.err != nil {
		return b
	}
	switch normalized := strings.ToLower(strings.TrimSpace(format)); normalized {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = normalized
	default:
		b.err = fmt.Errorf("xlog: unknown format %q", format)
	}
	return b
}

// SetAddSource 是否在日志中添加源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetRotation 输出到按大小轮转的文件（lumberjack）。
// 未指定的项使用 DefaultMaxSizeMB / DefaultMaxBackups / DefaultMaxAgeDays。
func (b *Builder) SetRotation(filename string, opts ...RotationOption) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(filename) == "" {
		b.err = ErrEmptyFilename
		return b
	}
	lj := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(lj)
		}
	}
	if lj.MaxSize <= 0 {
		b.err = fmt.Errorf("xlog: rotation max size must be positive, got %d", lj.MaxSize)
		return b
	}
	b.rotator = lj
	b.output = lj
	return b
}

// SetOnError 设置内部错误回调（Handler.Handle 失败时调用，需保持轻量）。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// Build 构建 Logger 实例。
// 返回的清理函数关闭轮转文件（如有），可重复调用。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	var handler slog.Handler
	if b.format == "json" {
		handler = slog.NewJSONHandler(b.output, opts)
	} else {
		handler = slog.NewTextHandler(b.output, opts)
	}

	logger := &xlogger{
		handler:    handler,
		levelVar:   b.levelVar,
		onError:    b.onError,
		errorCount: new(atomic.Uint64),
		addSource:  b.addSource,
	}

	var once sync.Once
	rotator := b.rotator
	cleanup := func() error {
		var err error
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
	return logger, cleanup, nil
}
