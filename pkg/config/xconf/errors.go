package xconf

import "errors"

var (
	// ErrEmptyPath 表示配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 表示不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 表示读取配置文件失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 表示配置内容解析失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 表示反序列化到结构体失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrReloadUnsupported 表示从字节数据创建的配置不能 Reload。
	ErrReloadUnsupported = errors.New("xconf: reload unsupported for in-memory config")

	// ErrWatchUnsupported 表示配置不是文件来源，无法监视。
	ErrWatchUnsupported = errors.New("xconf: watch unsupported for in-memory config")

	// ErrWatchFailed 表示创建文件监视或监视过程出错。
	ErrWatchFailed = errors.New("xconf: watch failed")
)
