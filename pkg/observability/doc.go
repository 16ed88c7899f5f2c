// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志门面，基于 log/slog
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 库组件默认静默，由调用方显式注入
//   - 支持动态级别控制
package observability
