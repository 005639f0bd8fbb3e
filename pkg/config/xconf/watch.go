package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 是 Watch 的默认防抖时间。
const DefaultDebounce = 100 * time.Millisecond

// WatchFunc 在文件变更触发重载后调用。err 非 nil 表示重载失败或监视出错，
// 此时 cfg 仍是上一次成功加载的快照。
type WatchFunc func(cfg Config, err error)

// WatchOption 监视器选项。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

// WithDebounce 设置防抖时间：该时间内的多次变更只触发一次重载。非正值被忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watcher 监视配置文件，变更时自动 Reload 并回调。
//
// 监视的是文件所在目录而非文件本身：编辑器保存时常见"写临时文件再 rename"，
// 直接监视文件会在第一次保存后丢失后续事件。
type Watcher struct {
	cfg      *koanfConfig
	fsw      *fsnotify.Watcher
	fn       WatchFunc
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	running bool
	stopped bool
	timer   *time.Timer
	pending sync.WaitGroup // 已调度且未取消的重载回调
}

// Watch 为文件来源的 cfg 创建监视器。从字节数据创建的 Config 返回 ErrWatchUnsupported。
// 返回的 Watcher 需调用 Start 或 StartAsync 开始监视，Stop 停止。
func Watch(cfg Config, fn WatchFunc, opts ...WatchOption) (*Watcher, error) {
	kc, ok := cfg.(*koanfConfig)
	if !ok || kc.path == "" {
		return nil, ErrWatchUnsupported
	}

	o := watchOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatchFailed, err)
	}
	dir := filepath.Dir(kc.path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %s: %w", ErrWatchFailed, dir, err), fsw.Close())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cfg:      kc,
		fsw:      fsw,
		fn:       fn,
		debounce: o.debounce,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// Start 在当前 goroutine 中运行监视循环，直到 Stop。重复调用立即返回。
func (w *Watcher) Start() {
	if w.markRunning() {
		w.run()
	}
}

// StartAsync 在后台 goroutine 中运行监视循环并立即返回。
func (w *Watcher) StartAsync() {
	if w.markRunning() {
		go w.run()
	}
}

func (w *Watcher) markRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.stopped {
		return false
	}
	w.running = true
	return true
}

// Stop 停止监视，等待监视循环和进行中的回调结束。可重复调用。
// 不能在 WatchFunc 内部调用。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	running := w.running
	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	w.timer = nil
	w.cancel()
	w.mu.Unlock()

	err := w.fsw.Close()
	if running {
		<-w.done
	}
	w.pending.Wait()
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	name := filepath.Base(w.cfg.path)
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev, name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.fn != nil {
				w.fn(w.cfg, fmt.Errorf("%w: %w", ErrWatchFailed, err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event, name string) {
	if filepath.Base(ev.Name) != name {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	defer w.pending.Done()
	if w.ctx.Err() != nil {
		return
	}
	err := w.cfg.Reload()
	if w.fn != nil {
		w.fn(w.cfg, err)
	}
}
