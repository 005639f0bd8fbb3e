package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// koanfConfig 是 Config 接口的 koanf 实现。
type koanfConfig struct {
	current atomic.Pointer[koanf.Koanf]
	reload  sync.Mutex // 串行化 Reload，防止旧文件内容覆盖新内容
	path    string
	format  Format
	opts    options
}

// New 从文件创建配置，格式由扩展名决定（.yaml/.yml/.json）。空文件得到空配置。
func New(path string, opts ...Option) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	c := &koanfConfig{path: path, format: format, opts: buildOptions(opts)}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromBytes 从字节数据创建配置，需要显式指定格式。空数据得到空配置。
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if !format.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	c := &koanfConfig{format: format, opts: buildOptions(opts)}
	k, err := parse(data, format, c.opts.delim)
	if err != nil {
		return nil, err
	}
	c.current.Store(k)
	return c, nil
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

func (c *koanfConfig) Client() *koanf.Koanf {
	return c.current.Load()
}

func (c *koanfConfig) Unmarshal(path string, target any) error {
	err := c.current.Load().UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.tag})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

func (c *koanfConfig) Exists(path string) bool {
	return c.current.Load().Exists(path)
}

func (c *koanfConfig) Reload() error {
	if c.path == "" {
		return ErrReloadUnsupported
	}
	c.reload.Lock()
	defer c.reload.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := parse(data, c.format, c.opts.delim)
	if err != nil {
		return err
	}
	c.current.Store(k)
	return nil
}

func (c *koanfConfig) Path() string   { return c.path }
func (c *koanfConfig) Format() Format { return c.format }

func (f Format) valid() bool {
	return f == FormatYAML || f == FormatJSON
}

func detectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func parse(data []byte, format Format, delim string) (*koanf.Koanf, error) {
	k := koanf.New(delim)
	if len(data) == 0 {
		return k, nil
	}
	var parser koanf.Parser = yaml.Parser()
	if format == FormatJSON {
		parser = json.Parser()
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}
