package xlock

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "xlock"

	metricNameAcquireTotal = "xlock.acquire.total"
	metricNameAcquireWait  = "xlock.acquire.wait"
	metricNameReleaseTotal = "xlock.release.total"

	attrKind      = "lock.kind"
	attrName      = "lock.name"
	attrIntention = "intention"
	attrAcquired  = "acquired"
)

// 锁类型标签，同时用作诊断记录的 Kind 前缀。
const (
	KindMutex  = "mutex"
	KindIntent = "intent"
)

var waitBuckets = []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0}

// Metrics 锁指标收集器。nil *Metrics 的所有方法均为空操作。
//
// 只记录净获取与净释放（重入不计），以及从调用到获得结果的等待时长。
type Metrics struct {
	acquireTotal     metric.Int64Counter
	acquireWait      metric.Float64Histogram
	releaseTotal     metric.Int64Counter
	disableNameLabel bool
}

// MetricsOption 指标收集器配置选项。
type MetricsOption func(*Metrics)

// MetricsWithoutNameLabel 不输出 lock.name 标签。锁名称动态生成时使用，避免高基数。
func MetricsWithoutNameLabel() MetricsOption {
	return func(m *Metrics) {
		m.disableNameLabel = true
	}
}

// NewMetrics 创建指标收集器。meterProvider 为 nil 时返回 nil（不收集指标）。
func NewMetrics(meterProvider metric.MeterProvider, opts ...MetricsOption) (*Metrics, error) {
	if meterProvider == nil {
		return nil, nil
	}
	m := &Metrics{}
	for _, opt := range opts {
		opt(m)
	}

	meter := meterProvider.Meter(meterName)
	var err error
	if m.acquireTotal, err = meter.Int64Counter(metricNameAcquireTotal,
		metric.WithDescription("锁获取次数"), metric.WithUnit("{acquire}")); err != nil {
		return nil, err
	}
	if m.releaseTotal, err = meter.Int64Counter(metricNameReleaseTotal,
		metric.WithDescription("锁释放次数"), metric.WithUnit("{release}")); err != nil {
		return nil, err
	}
	if m.acquireWait, err = meter.Float64Histogram(metricNameAcquireWait,
		metric.WithDescription("锁获取等待耗时"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(waitBuckets...)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) attrs(kind, name string, i Intention) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(attrKind, kind),
		attribute.String(attrIntention, i.String()),
	}
	if !m.disableNameLabel && name != "" {
		attrs = append(attrs, attribute.String(attrName, name))
	}
	return attrs
}

// RecordAcquire 记录一次获取结果及等待时长。
func (m *Metrics) RecordAcquire(ctx context.Context, kind, name string, i Intention, acquired bool, wait time.Duration) {
	if m == nil {
		return
	}
	// ctx 取消后仍需记录
	ctx = context.WithoutCancel(ctx)
	attrs := append(m.attrs(kind, name, i), attribute.Bool(attrAcquired, acquired))
	m.acquireTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.acquireWait.Record(ctx, wait.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRelease 记录一次净释放。
func (m *Metrics) RecordRelease(ctx context.Context, kind, name string, i Intention) {
	if m == nil {
		return
	}
	m.releaseTotal.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(m.attrs(kind, name, i)...))
}
