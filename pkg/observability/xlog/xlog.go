package xlog

import (
	"context"
	"log/slog"
)

// Level 日志级别，与 slog.Level 取值一致。
type Level = slog.Level

// 预定义日志级别。
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Logger 日志接口。
//
// 所有方法都需要 context.Context 参数，确保追踪信息正确传播。
// 方法签名只接受 slog.Attr，保证类型安全。
type Logger interface {
	// Debug 记录 Debug 级别日志
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)

	// Info 记录 Info 级别日志
	Info(ctx context.Context, msg string, attrs ...slog.Attr)

	// Warn 记录 Warn 级别日志
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)

	// Error 记录 Error 级别日志
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger。
	// 派生 logger 共享父级的动态级别，SetLevel 对全体生效。
	With(attrs ...slog.Attr) Logger

	// Enabled 检查指定级别是否启用。
	// 用于在构造昂贵的日志参数前先行短路。
	Enabled(ctx context.Context, level Level) bool
}

// Leveler 动态级别控制接口。
// 与 Logger 分离，通过类型断言获取，避免污染核心日志接口。
type Leveler interface {
	// SetLevel 动态设置日志级别，运行时生效
	SetLevel(level Level)

	// GetLevel 获取当前日志级别
	GetLevel() Level
}
