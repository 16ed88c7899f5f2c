package xtime

import "time"

// TimeService 定义截止时间运算接口。
//
// 所有时刻均表示为"自服务创建起流逝的单调时长"（time.Duration），
// 而非挂钟时间。调用方只在 TimeService 内部语义下比较时刻，
// 不同 TimeService 实例产生的时刻不可互相比较。
type TimeService interface {
	// Elapsed 返回自服务创建起流逝的单调时长。
	Elapsed() time.Duration

	// ExpectedEnd 返回从当前时刻起经过 timeout 后的截止时刻。
	// timeout <= 0 时返回的截止时刻立即过期。
	ExpectedEnd(timeout time.Duration) time.Duration

	// Remaining 返回距离 deadline 的剩余时长。
	// 已过期时返回负值。
	Remaining(deadline time.Duration) time.Duration

	// Expired 报告 deadline 是否已到期（当前时刻 >= deadline）。
	Expired(deadline time.Duration) bool
}

// monotonicTimeService 生产实现。
// 以创建时刻为基准，time.Since 内部走单调时钟，不受挂钟调整影响。
type monotonicTimeService struct {
	start time.Time
}

// New 创建基于单调时钟的 TimeService。
func New() TimeService {
	return &monotonicTimeService{start: time.Now()}
}

func (s *monotonicTimeService) Elapsed() time.Duration {
	return time.Since(s.start)
}

func (s *monotonicTimeService) ExpectedEnd(timeout time.Duration) time.Duration {
	return s.Elapsed() + timeout
}

func (s *monotonicTimeService) Remaining(deadline time.Duration) time.Duration {
	return deadline - s.Elapsed()
}

func (s *monotonicTimeService) Expired(deadline time.Duration) bool {
	return s.Elapsed() >= deadline
}

// 编译期接口检查。
var _ TimeService = (*monotonicTimeService)(nil)
