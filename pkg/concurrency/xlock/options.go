package xlock

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xgridlock/pkg/observability/xlog"
)

// Option Lock 的配置选项。
type Option func(*options)

type options struct {
	name           string
	logger         xlog.Logger
	metrics        *Metrics
	tracerProvider trace.TracerProvider
	releaseHook    func()
}

func defaultOptions() *options {
	return &options{
		logger: xlog.Nop(),
	}
}

// WithName 设置锁名称，出现在日志、span 与指标标签中。
// 容器场景通常传入锁对应的 key。默认为空。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger 设置日志记录器，默认丢弃所有日志。
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics 设置指标收集器，默认不收集。
// 多把锁可共享同一个 Metrics 实例。
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracerProvider 设置 OpenTelemetry TracerProvider。
// 不设置时使用全局 TracerProvider（otel.GetTracerProvider()）。
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithReleaseHook 设置释放回调：任一请求完结清理时调用恰好一次。
// 容器用它回收空闲锁。回调可能在任意 goroutine 上执行，不得阻塞。
func WithReleaseHook(fn func()) Option {
	return func(o *options) {
		o.releaseHook = fn
	}
}
