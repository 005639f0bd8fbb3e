package xlockdiag

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/xguard/pkg/observability/xlog"
)

// Key 唯一标识一条持有记录。
type Key struct {
	// Kind 是锁类型标签，如 "mutex"、"intent:ReadOnly"。
	Kind string
	// Owner 是持有者标识（goroutine id 或显式令牌）。
	Owner uint64
	// LockID 是锁实例的唯一标识。
	LockID string
}

// Entry 是一条持有记录。
type Entry struct {
	Key
	// OwnerName 是持有者的可读形式，如 "goroutine:42"。
	OwnerName string
	// LockName 是锁的名称，未命名时为空。
	LockName string
	// Lock 引用锁对象本身，仅供调试器或工具检查。
	Lock any
	// Since 是净获取发生的时间。
	Since time.Time
}

// Registry 是分片的持有关系登记表。零值不可用，使用 New 创建。
type Registry struct {
	enabled atomic.Bool
	count   atomic.Int64
	shards  []shard
	mask    uint64
	logger  xlog.Logger
}

type shard struct {
	mu      sync.Mutex
	entries map[Key]Entry
}

// New 创建一个处于关闭状态的 Registry。
func New(opts ...Option) (*Registry, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	shards := make([]shard, o.shardCount)
	for i := range shards {
		shards[i].entries = make(map[Key]Entry)
	}
	return &Registry{
		shards: shards,
		mask:   uint64(o.shardCount - 1),
		logger: o.logger,
	}, nil
}

// Enable 开始记录。只能打开，不能关闭；重复调用无副作用。
func (r *Registry) Enable() {
	if r == nil {
		return
	}
	r.enabled.Store(true)
}

// Enabled 报告是否已开启记录。
func (r *Registry) Enabled() bool {
	return r != nil && r.enabled.Load()
}

func (r *Registry) shardOf(lockID string) *shard {
	return &r.shards[xxhash.Sum64String(lockID)&r.mask]
}

// Register 登记一条持有记录。未开启时为空操作；同键重复登记覆盖旧值。
// e.Since 为零值时填入当前时间。
func (r *Registry) Register(e Entry) {
	if !r.Enabled() {
		return
	}
	if e.Since.IsZero() {
		e.Since = time.Now()
	}
	s := r.shardOf(e.LockID)
	s.mu.Lock()
	_, exists := s.entries[e.Key]
	s.entries[e.Key] = e
	s.mu.Unlock()
	if !exists {
		r.count.Add(1)
	}
	if r.logger != nil {
		r.logger.Debug(context.Background(), "lock registered",
			slog.String("kind", e.Kind), xlog.LockID(e.LockID),
			xlog.LockName(e.LockName), slog.String(xlog.KeyOwner, e.OwnerName))
	}
}

// Unregister 删除一条持有记录。未开启或记录不存在时为空操作。
func (r *Registry) Unregister(k Key) {
	if !r.Enabled() {
		return
	}
	s := r.shardOf(k.LockID)
	s.mu.Lock()
	_, exists := s.entries[k]
	delete(s.entries, k)
	s.mu.Unlock()
	if !exists {
		return
	}
	r.count.Add(-1)
	if r.logger != nil {
		r.logger.Debug(context.Background(), "lock unregistered",
			slog.String("kind", k.Kind), xlog.LockID(k.LockID))
	}
}

// Len 返回当前记录数。
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return int(max(r.count.Load(), 0))
}

// Snapshot 返回所有记录的副本，按 LockID、Owner、Kind 排序。
func (r *Registry) Snapshot() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, 0, r.Len())
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for _, e := range s.entries {
			out = append(out, e)
		}
		s.mu.Unlock()
	}
	sortEntries(out)
	return out
}

// OwnersOf 返回指定锁的当前持有记录，按 Owner、Kind 排序。
func (r *Registry) OwnersOf(lockID string) []Entry {
	if r == nil {
		return nil
	}
	var out []Entry
	s := r.shardOf(lockID)
	s.mu.Lock()
	for k, e := range s.entries {
		if k.LockID == lockID {
			out = append(out, e)
		}
	}
	s.mu.Unlock()
	sortEntries(out)
	return out
}

func sortEntries(es []Entry) {
	slices.SortFunc(es, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(a.LockID, b.LockID),
			cmp.Compare(a.Owner, b.Owner),
			cmp.Compare(a.Kind, b.Kind),
		)
	})
}

// WriteTo 以文本表格写出当前快照，实现 io.WriterTo。
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tLOCK\tLOCK_ID\tOWNER\tHELD")
	now := time.Now()
	for _, e := range r.Snapshot() {
		name := e.LockName
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Kind, name, e.LockID, e.OwnerName, now.Sub(e.Since).Round(time.Millisecond))
	}
	err := tw.Flush()
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Report 为每条记录输出一行 Info 日志，返回记录数。
// logger 为 nil 时使用 WithLogger 注入的日志器；两者都没有时不输出。
func (r *Registry) Report(ctx context.Context, logger xlog.Logger) int {
	if r == nil {
		return 0
	}
	if logger == nil {
		logger = r.logger
	}
	if logger == nil {
		return 0
	}
	entries := r.Snapshot()
	now := time.Now()
	for _, e := range entries {
		logger.Info(ctx, "lock held",
			slog.String("kind", e.Kind),
			xlog.LockName(e.LockName),
			xlog.LockID(e.LockID),
			slog.String(xlog.KeyOwner, e.OwnerName),
			xlog.Duration(now.Sub(e.Since)),
		)
	}
	return len(entries)
}
