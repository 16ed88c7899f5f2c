package xlock

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// tracerName 追踪器名称（Meter scope 复用）
	tracerName = "xlock"

	// instrumentationVersion 仪表化版本号（Metrics + Trace 共享）
	instrumentationVersion = "1.0.0"
)

// Span 操作名称
const (
	spanNameWait          = "xlock.Wait"
	spanNameDeadlockCheck = "xlock.DeadlockCheck"
)

// Span/指标属性名称（两者复用，确保键名一致）
const (
	attrKeyLockName  = "xlock.name"
	attrKeyOwner     = "xlock.owner"
	attrKeyRequestID = "xlock.request_id"
	attrKeyOutcome   = "xlock.outcome"
	attrKeyReused    = "xlock.reused"
	attrKeySuccess   = "xlock.success"
)

// getTracer 获取 tracer 实例。
// 配置了 TracerProvider 则使用它，否则使用全局默认。
func getTracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName, trace.WithInstrumentationVersion(instrumentationVersion))
}

// startSpan 创建新的 span。tracer 为 nil 时使用全局 tracer。
func startSpan(ctx context.Context, tracer trace.Tracer, name string) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name)
}

// setSpanError 设置 span 错误状态。
func setSpanError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// setSpanOK 设置 span 成功状态。
func setSpanOK(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// requestSpanAttributes 构建请求级 span 属性。
func requestSpanAttributes(r *request) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(attrKeyRequestID, r.id),
		attribute.String(attrKeyOwner, ownerString(r.owner)),
	}
	if r.lock.name != "" {
		attrs = append(attrs, attribute.String(attrKeyLockName, r.lock.name))
	}
	return attrs
}
