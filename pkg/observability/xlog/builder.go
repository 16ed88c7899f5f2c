package xlog

import (
	"io"
	"log/slog"
	"os"
)

// Option 构建 Logger 的配置选项。
type Option func(*options)

type options struct {
	level     Level
	writer    io.Writer
	json      bool
	handler   slog.Handler // 显式指定时优先于 writer/json
	addSource bool
}

func defaultOptions() *options {
	return &options{
		level:  LevelInfo,
		writer: os.Stderr,
		json:   true,
	}
}

// WithLevel 设置初始日志级别，默认 Info。
func WithLevel(level Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithWriter 设置日志输出目标，默认 os.Stderr。
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.writer = w
		}
	}
}

// WithText 使用 text 格式输出，默认为 JSON。
func WithText() Option {
	return func(o *options) {
		o.json = false
	}
}

// WithHandler 直接指定 slog.Handler，覆盖 writer/format 选项。
// 注意：自定义 handler 需自行接入动态级别（SetLevel 对其无效）。
func WithHandler(h slog.Handler) Option {
	return func(o *options) {
		o.handler = h
	}
}

// WithAddSource 记录日志调用的源码位置。
func WithAddSource() Option {
	return func(o *options) {
		o.addSource = true
	}
}

// New 构建 Logger。
// 返回的 Logger 同时实现 Leveler，可通过类型断言动态调级。
func New(opts ...Option) Logger {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(o.level)

	handler := o.handler
	if handler == nil {
		hopts := &slog.HandlerOptions{Level: levelVar, AddSource: o.addSource}
		if o.json {
			handler = slog.NewJSONHandler(o.writer, hopts)
		} else {
			handler = slog.NewTextHandler(o.writer, hopts)
		}
	}

	return &xlogger{handler: handler, levelVar: levelVar}
}

// Nop 返回丢弃所有日志的 Logger。
// 库组件未注入 Logger 时的默认值。
func Nop() Logger {
	levelVar := new(slog.LevelVar)
	levelVar.Set(LevelError + 4) // 高于所有预定义级别
	return &xlogger{handler: slog.DiscardHandler, levelVar: levelVar}
}
