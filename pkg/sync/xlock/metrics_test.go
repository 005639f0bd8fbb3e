package xlock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

// counterTotals 按 acquired 属性汇总计数器，acquired 不存在时记在 "" 下。
func counterTotals(t *testing.T, reader *sdkmetric.ManualReader, name string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is %T", name, m.Data)
			for _, dp := range sum.DataPoints {
				key := ""
				if v, ok := dp.Attributes.Value(attribute.Key(attrAcquired)); ok {
					key = v.Emit()
				}
				out[key] += dp.Value
			}
		}
	}
	return out
}

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics(nil)
	assert.NoError(t, err)
	assert.Nil(t, m)

	// nil 收集器上的方法是空操作
	assert.NotPanics(t, func() {
		m.RecordAcquire(context.Background(), KindMutex, "x", Exclusive, true, time.Millisecond)
		m.RecordRelease(context.Background(), KindMutex, "x", Exclusive)
	})

	m, err = NewMetrics(noop.NewMeterProvider(), MetricsWithoutNameLabel())
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.disableNameLabel)
}

func TestMetrics_MutexCounts(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	metrics, err := NewMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	m := NewMutex(WithName("metered"), WithMetrics(metrics))
	m.Lock(ctx)
	m.Lock(ctx) // 重入不计
	assert.False(t, inGoroutine(func() bool { return m.TryLock(ctx, NoWait) }))
	m.Unlock(ctx)
	m.Unlock(ctx)

	acquires := counterTotals(t, reader, metricNameAcquireTotal)
	assert.Equal(t, int64(1), acquires["true"])
	assert.Equal(t, int64(1), acquires["false"])
	assert.Equal(t, int64(1), counterTotals(t, reader, metricNameReleaseTotal)[""])
}

func TestMetrics_IntentLockCounts(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	metrics, err := NewMetrics(mp, MetricsWithoutNameLabel())
	require.NoError(t, err)

	ctx := context.Background()
	l := mustIntentLock(t, WithMetrics(metrics))
	l.RLock(ctx)
	l.RLock(ctx)
	assert.False(t, inGoroutine(func() bool { return l.TryAcquire(ctx, Exclusive, 5*time.Millisecond) }))
	l.RUnlock(ctx)
	l.RUnlock(ctx)

	acquires := counterTotals(t, reader, metricNameAcquireTotal)
	assert.Equal(t, int64(1), acquires["true"])
	assert.Equal(t, int64(1), acquires["false"])
	assert.Equal(t, int64(1), counterTotals(t, reader, metricNameReleaseTotal)[""])

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != metricNameAcquireWait {
				continue
			}
			found = true
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			for _, dp := range hist.DataPoints {
				_, hasName := dp.Attributes.Value(attribute.Key(attrName))
				assert.False(t, hasName)
			}
		}
	}
	assert.True(t, found)
}
