// Package xlog 提供基于 log/slog 的结构化日志门面。
//
// # 设计理念
//
//   - 强制 context 传递，保证追踪信息传播
//   - 方法签名只接受 slog.Attr，避免隐式 key-value 转换开销
//   - 动态级别控制：运行时通过 SetLevel 调整，无需重启
//   - 库代码默认静默：未注入 Logger 的组件使用 Nop()
//
// # 快速开始
//
//	logger := xlog.New(xlog.WithLevel(xlog.LevelDebug))
//	logger.Info(ctx, "lock acquired",
//	    xlog.Component("xlock"),
//	    slog.String("owner", "tx-42"),
//	)
//
// 库组件注入：
//
//	lk, err := xlock.New(ts, xlock.WithLogger(logger.With(xlog.Component("xlock"))))
package xlog
