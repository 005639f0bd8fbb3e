package xconf

import "github.com/knadh/koanf/v2"

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 定义配置接口。
type Config interface {
	// Client 返回当前 koanf 快照。
	Client() *koanf.Koanf

	// Unmarshal 将 path 下的配置反序列化到 target，path 为空表示整个配置。
	Unmarshal(path string, target any) error

	// Exists 报告 path 是否存在于配置中。
	Exists(path string) bool

	// Reload 重新读取配置文件；从字节数据创建的 Config 返回 ErrReloadUnsupported。
	Reload() error

	// Path 返回配置文件路径，字节来源返回空字符串。
	Path() string

	// Format 返回配置格式。
	Format() Format
}

// MustUnmarshal 与 Config.Unmarshal 相同，但失败时 panic。
// 适用于进程启动阶段的必要配置。
func MustUnmarshal(cfg Config, path string, target any) {
	if err := cfg.Unmarshal(path, target); err != nil {
		panic(err)
	}
}
