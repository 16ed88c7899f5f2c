package xlocktable

import "errors"

// 预定义错误，使用 errors.Is 进行比较。
var (
	// ErrClosed 容器已关闭。
	// Close 后调用 Acquire 返回此错误。
	ErrClosed = errors.New("xlocktable: closed")

	// ErrInvalidKey key 为空字符串。
	ErrInvalidKey = errors.New("xlocktable: invalid key")

	// ErrMaxLocksExceeded 已达到最大锁数量限制。
	ErrMaxLocksExceeded = errors.New("xlocktable: max locks exceeded")

	// ErrInvalidShardCount 分片数不是 2 的幂或超出上限。
	ErrInvalidShardCount = errors.New("xlocktable: invalid shard count")

	// ErrNilTimeService 构造容器时未提供 TimeService。
	ErrNilTimeService = errors.New("xlocktable: time service is nil")

	// ErrUnsupportedFormat 不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xlocktable: unsupported config format")

	// ErrParseFailed 配置解析失败。
	ErrParseFailed = errors.New("xlocktable: failed to parse config")

	// ErrInvalidConfig 配置取值非法。
	ErrInvalidConfig = errors.New("xlocktable: invalid config")
)
