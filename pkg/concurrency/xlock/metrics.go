package xlock

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 设计决策: 指标前缀使用 "xlock.*"，与 OTel Meter scope name 保持一致
// （Meter("xlock")）。如需统一命名空间，应在采集端处理。
const (
	// metricNameAcquireTotal 获取请求次数计数器
	metricNameAcquireTotal = "xlock.acquire.total"
	// metricNameReleaseTotal 释放次数计数器
	metricNameReleaseTotal = "xlock.release.total"
	// metricNameTimeoutTotal 请求超时次数计数器
	metricNameTimeoutTotal = "xlock.timeout.total"
	// metricNameDeadlockTotal 死锁取消次数计数器
	metricNameDeadlockTotal = "xlock.deadlock.total"
	// metricNameWaitDuration 等待耗时直方图
	metricNameWaitDuration = "xlock.wait.duration"
)

// Wait 结果标签取值。
const (
	outcomeAcquired = "acquired"
	outcomeTimeout  = "timeout"
	outcomeDeadlock = "deadlock"
	outcomeReleased = "released"
	outcomeCanceled = "canceled"
)

// Metrics 锁指标收集器。
// 所有 Record* 方法对 nil 接收者安全（不收集指标时直接传 nil）。
type Metrics struct {
	meter            metric.Meter
	acquireTotal     metric.Int64Counter
	releaseTotal     metric.Int64Counter
	timeoutTotal     metric.Int64Counter
	deadlockTotal    metric.Int64Counter
	waitDuration     metric.Float64Histogram
	disableNameLabel bool
}

// durationBuckets 等待耗时直方图的桶边界（秒）。
var durationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0}

// NewMetrics 创建指标收集器。
// meterProvider 为 nil 时返回 (nil, nil)，不收集指标。
func NewMetrics(meterProvider metric.MeterProvider, opts ...MetricsOption) (*Metrics, error) {
	if meterProvider == nil {
		return nil, nil
	}

	m := &Metrics{}
	for _, opt := range opts {
		opt(m)
	}

	m.meter = meterProvider.Meter(tracerName,
		metric.WithInstrumentationVersion(instrumentationVersion),
	)

	var err error
	if m.acquireTotal, err = m.meter.Int64Counter(metricNameAcquireTotal,
		metric.WithDescription("锁获取请求次数"), metric.WithUnit("{acquire}")); err != nil {
		return nil, err
	}
	if m.releaseTotal, err = m.meter.Int64Counter(metricNameReleaseTotal,
		metric.WithDescription("锁释放次数"), metric.WithUnit("{release}")); err != nil {
		return nil, err
	}
	if m.timeoutTotal, err = m.meter.Int64Counter(metricNameTimeoutTotal,
		metric.WithDescription("锁请求超时次数"), metric.WithUnit("{timeout}")); err != nil {
		return nil, err
	}
	if m.deadlockTotal, err = m.meter.Int64Counter(metricNameDeadlockTotal,
		metric.WithDescription("锁请求死锁取消次数"), metric.WithUnit("{deadlock}")); err != nil {
		return nil, err
	}
	if m.waitDuration, err = m.meter.Float64Histogram(metricNameWaitDuration,
		metric.WithDescription("锁等待耗时"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...)); err != nil {
		return nil, err
	}
	return m, nil
}

// MetricsOption 指标收集器配置选项。
type MetricsOption func(*Metrics)

// MetricsWithDisableNameLabel 禁用锁名称标签。
// 锁名称为动态生成（如按业务 key 建锁的容器）时，建议启用以避免
// 指标高基数问题。
func MetricsWithDisableNameLabel() MetricsOption {
	return func(m *Metrics) {
		m.disableNameLabel = true
	}
}

func (m *Metrics) baseAttrs(name string) []attribute.KeyValue {
	if m.disableNameLabel {
		return nil
	}
	return []attribute.KeyValue{attribute.String(attrKeyLockName, name)}
}

// RecordAcquire 记录一次获取请求。reused 表示幂等重入（返回已有请求）。
func (m *Metrics) RecordAcquire(ctx context.Context, name string, reused bool) {
	if m == nil {
		return
	}
	// context.WithoutCancel 确保 ctx 取消后指标仍能记录
	attrs := append(m.baseAttrs(name), attribute.Bool(attrKeyReused, reused))
	m.acquireTotal.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attrs...))
}

// RecordRelease 记录一次释放。released 表示请求真正到达了 StateReleased。
func (m *Metrics) RecordRelease(ctx context.Context, name string, released bool) {
	if m == nil {
		return
	}
	attrs := append(m.baseAttrs(name), attribute.Bool(attrKeySuccess, released))
	m.releaseTotal.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attrs...))
}

// RecordTimeout 记录一次请求超时。
func (m *Metrics) RecordTimeout(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.timeoutTotal.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(m.baseAttrs(name)...))
}

// RecordDeadlock 记录一次死锁取消。
func (m *Metrics) RecordDeadlock(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.deadlockTotal.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(m.baseAttrs(name)...))
}

// RecordWait 记录一次 Wait 的结果与耗时。
func (m *Metrics) RecordWait(ctx context.Context, name, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := append(m.baseAttrs(name), attribute.String(attrKeyOutcome, outcome))
	m.waitDuration.Record(context.WithoutCancel(ctx), duration.Seconds(), metric.WithAttributes(attrs...))
}
