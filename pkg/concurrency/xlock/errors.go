package xlock

import "errors"

// 预定义错误，使用 errors.Is 进行比较。
var (
	// ErrTimeout 请求在获取锁之前超时。
	// Wait 在请求进入 StateTimedOut 后返回此错误。
	ErrTimeout = errors.New("xlock: timeout waiting for lock")

	// ErrDeadlockDetected 死锁检查器判定请求参与死锁。
	// Wait 在请求进入 StateDeadlocked 后返回此错误。
	ErrDeadlockDetected = errors.New("xlock: deadlock detected")

	// ErrLockReleased 请求已处于 StateReleased。
	// 对已释放的请求调用 Wait 属于使用错误，与超时语义区分。
	ErrLockReleased = errors.New("xlock: lock already released")

	// ErrNilTimeService 构造 Lock 时未提供 TimeService。
	ErrNilTimeService = errors.New("xlock: time service is nil")
)

// IsTimeout 检查是否是超时错误。
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsDeadlock 检查是否是死锁错误。
func IsDeadlock(err error) bool {
	return errors.Is(err, ErrDeadlockDetected)
}
