package xlock

import (
	"context"
	"fmt"
)

// Listener 锁事件监听器。
//
// 通过 Promise.AddListener 注册，在请求离开 StateWaiting 后被调用恰好一次。
// 回调收到的状态只会是 StateAcquired、StateTimedOut 或 StateDeadlocked：
// 观察到 StateReleased 时按 StateAcquired 上报（见包文档"监听器语义"）。
//
// 监听器可能在触发通知的任意 goroutine 上执行，不得阻塞。
type Listener func(state LockState)

// DeadlockChecker 死锁判定器。
//
// DeadlockDetected 报告"pendingOwner 等待 currentOwner 持有的锁"
// 是否构成全局等待图中的环。实现应是纯函数且幂等——Lock 可能
// 对同一对 owner 多次调用。
type DeadlockChecker interface {
	DeadlockDetected(pendingOwner, currentOwner any) bool
}

// DeadlockCheckerFunc 将函数适配为 DeadlockChecker。
type DeadlockCheckerFunc func(pendingOwner, currentOwner any) bool

// DeadlockDetected 实现 DeadlockChecker 接口。
func (f DeadlockCheckerFunc) DeadlockDetected(pendingOwner, currentOwner any) bool {
	return f(pendingOwner, currentOwner)
}

// Promise 表示一次锁获取尝试（Acquire 的返回值）。
//
// Promise 是异步的：Acquire 永不阻塞，调用方通过 IsAvailable 轮询、
// Wait 等待、AddListener 订阅，或 Cancel 取消。
//
// 同一 owner 在未释放前重复 Acquire 返回同一个 Promise（幂等重入，
// 新的 timeout 参数被忽略）。
type Promise interface {
	fmt.Stringer

	// Owner 返回发起本次请求的 owner。
	Owner() any

	// LockOwner 返回锁当前持有者的 owner；锁空闲时返回 nil。
	// 注意返回的是整把锁的持有者，不一定是本请求的 owner。
	LockOwner() any

	// State 返回请求的瞬时状态。
	// 监听器收到回调后可据此区分"已获取仍持有"与"已获取随后释放"。
	State() LockState

	// IsAvailable 报告请求是否已离开 StateWaiting。
	// 会先执行超时检查，可能将请求迁移到 StateTimedOut。
	IsAvailable() bool

	// Wait 阻塞直到请求离开 StateWaiting 或 ctx 取消。
	//
	// 返回值：
	//   - nil: 已获取锁
	//   - [ErrTimeout]: 截止时间前未获取到锁（请求已清理）
	//   - [ErrDeadlockDetected]: 死锁检查器取消了请求（请求已清理）
	//   - [ErrLockReleased]: 请求已被释放，等待它属于使用错误
	//   - ctx.Err(): ctx 取消或超时，请求状态不受影响，可再次 Wait
	//
	// ctx 不得为 nil，否则 panic。
	Wait(ctx context.Context) error

	// AddListener 注册监听器。
	//
	// 通知已触发时，监听器在新 goroutine 上尽快执行；
	// 否则在触发通知的 goroutine 上执行。fn 为 nil 时忽略。
	AddListener(fn Listener)

	// Cancel 尝试取消请求，target 只能是 StateTimedOut 或
	// StateDeadlocked，其他值 panic（编程错误）。
	//
	// 仅当请求仍在 StateWaiting 时生效；已到达其他状态时为 no-op。
	// 取消与移交协议是公平竞争：请求可能恰好在取消前被提升为
	// StateAcquired，此时取消不生效。
	Cancel(target LockState)
}
