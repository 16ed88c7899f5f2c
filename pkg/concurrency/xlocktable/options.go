package xlocktable

import (
	"fmt"
	"time"

	"github.com/omeyang/xgridlock/pkg/concurrency/xlock"
	"github.com/omeyang/xgridlock/pkg/observability/xlog"
)

const (
	defaultShardCount = 32
	maxShardCount     = 1 << 16 // 65536
)

// Option 容器配置选项。
type Option func(*options)

type options struct {
	shardCount    int
	shardMask     uint64 // validate() 计算
	maxLocks      int
	sweepInterval time.Duration
	checker       xlock.DeadlockChecker
	logger        xlog.Logger
	metrics       *xlock.Metrics
}

func defaultOptions() *options {
	return &options{
		shardCount: defaultShardCount,
		logger:     xlog.Nop(),
	}
}

// WithShardCount 设置分片数量。
// n 必须为正整数且为 2 的幂，上限 65536，否则 New 返回错误。默认 32。
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shardCount = n
	}
}

// WithMaxLocks 设置最大锁数量。
// 达到上限时新 key 的 Acquire 返回 [ErrMaxLocksExceeded]。
// n <= 0 表示不限制（默认）。
func WithMaxLocks(n int) Option {
	if n < 0 {
		n = 0
	}
	return func(o *options) {
		o.maxLocks = n
	}
}

// WithSweepInterval 设置后台死锁巡检间隔。
// d > 0 且配置了 WithDeadlockChecker 时，New 启动巡检 goroutine，
// Close 时停止。d <= 0 表示不启动（默认），仍可手动 DeadlockSweep。
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		o.sweepInterval = d
	}
}

// WithDeadlockChecker 设置死锁判定器，DeadlockSweep 与后台巡检使用。
func WithDeadlockChecker(checker xlock.DeadlockChecker) Option {
	return func(o *options) {
		o.checker = checker
	}
}

// WithLogger 设置日志记录器，透传给每把创建的锁。默认丢弃所有日志。
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics 设置指标收集器，透传给每把创建的锁。
// key 作为锁名称标签，动态 key 场景请用
// xlock.MetricsWithDisableNameLabel 创建收集器。
func WithMetrics(m *xlock.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func (o *options) validate() error {
	sc := o.shardCount
	if sc <= 0 || sc > maxShardCount || sc&(sc-1) != 0 {
		return fmt.Errorf("%w: must be a positive power of 2 (max %d), got %d",
			ErrInvalidShardCount, maxShardCount, sc)
	}
	o.shardMask = uint64(sc - 1)
	return nil
}
