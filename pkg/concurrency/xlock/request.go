package xlock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/omeyang/xgridlock/pkg/observability/xlog"
)

// request 是 Promise 的实现：一次获取尝试的状态机。
//
// state 只通过 CAS 迁移（见 LockState 的迁移图）。notifier 是单次
// 触发的完成信号：state 离开 StateWaiting 后 close 恰好一次，
// fired 标记与监听器列表由 mu 保护。
type request struct {
	lock     *Lock
	owner    any
	id       string
	deadline time.Duration // 单调截止时刻，创建时固定
	state    atomic.Int32

	mu        sync.Mutex
	fired     bool
	listeners []Listener
	notifier  chan struct{}
}

func (r *request) loadState() LockState {
	return LockState(r.state.Load())
}

// casState 尝试状态迁移，成功时记录调试日志。
func (r *request) casState(expect, update LockState) bool {
	ok := r.state.CompareAndSwap(int32(expect), int32(update))
	if ok && r.lock.logger.Enabled(context.Background(), xlog.LevelDebug) {
		r.lock.logger.Debug(context.Background(), "lock request state changed",
			AttrLockName(r.lock.name),
			AttrRequestID(r.id),
			AttrOwner(r.owner),
			AttrState(update),
		)
	}
	return ok
}

// Owner 返回发起本次请求的 owner。
func (r *request) Owner() any {
	return r.owner
}

// LockOwner 返回锁当前持有者的 owner；锁空闲时返回 nil。
func (r *request) LockOwner() any {
	return r.lock.LockOwner()
}

// State 返回请求的瞬时状态。
func (r *request) State() LockState {
	return r.loadState()
}

// IsAvailable 报告请求是否已离开 StateWaiting。
func (r *request) IsAvailable() bool {
	r.checkTimeout()
	return r.loadState() != StateWaiting
}

// Wait 阻塞直到请求离开 StateWaiting 或 ctx 取消。
func (r *request) Wait(ctx context.Context) error {
	if ctx == nil {
		panic("xlock: nil Context")
	}

	start := time.Now()
	ctx, span := startSpan(ctx, r.lock.tracer, spanNameWait)
	defer span.End()
	span.SetAttributes(requestSpanAttributes(r)...)

	for {
		switch st := r.loadState(); st {
		case StateWaiting:
			r.checkTimeout()
			if err := r.await(ctx); err != nil {
				// ctx 取消只中断本次等待，不改变请求状态
				r.lock.metrics.RecordWait(ctx, r.lock.name, outcomeCanceled, time.Since(start))
				setSpanError(span, err)
				return err
			}
		case StateAcquired:
			r.lock.metrics.RecordWait(ctx, r.lock.name, outcomeAcquired, time.Since(start))
			span.SetAttributes(attribute.String(attrKeyOutcome, outcomeAcquired))
			setSpanOK(span)
			return nil
		case StateReleased:
			r.lock.metrics.RecordWait(ctx, r.lock.name, outcomeReleased, time.Since(start))
			setSpanError(span, ErrLockReleased)
			return ErrLockReleased
		case StateTimedOut:
			r.cleanup()
			r.lock.metrics.RecordWait(ctx, r.lock.name, outcomeTimeout, time.Since(start))
			setSpanError(span, ErrTimeout)
			return ErrTimeout
		case StateDeadlocked:
			r.cleanup()
			r.lock.metrics.RecordWait(ctx, r.lock.name, outcomeDeadlock, time.Since(start))
			setSpanError(span, ErrDeadlockDetected)
			return ErrDeadlockDetected
		default:
			panic(fmt.Sprintf("xlock: unknown lock state: %d", st))
		}
	}
}

// await 阻塞在 notifier 上，最多等待距截止时刻的剩余时长。
// 超过剩余时长返回 nil 并由外层循环重新检查超时；ctx 取消返回 ctx.Err()。
func (r *request) await(ctx context.Context) error {
	remaining := r.lock.ts.Remaining(r.deadline)
	if remaining < 0 {
		remaining = 0
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-r.notifier:
		return nil
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddListener 注册监听器。
func (r *request) AddListener(fn Listener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	if !r.fired {
		r.listeners = append(r.listeners, fn)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	// 通知已触发：在独立 goroutine 上尽快回调
	go r.dispatch(fn)
}

// Cancel 尝试取消请求。target 非法时 panic。
func (r *request) Cancel(target LockState) {
	if target != StateTimedOut && target != StateDeadlocked {
		panic(fmt.Sprintf("xlock: invalid cancel state: %s", target))
	}
	for r.loadState() == StateWaiting {
		if r.casState(StateWaiting, target) {
			r.recordCancel(target)
			r.fireNotifier()
			r.lock.onCanceled(r)
			return
		}
	}
	// 已到达其他状态，no-op
}

// setAcquire 移交协议在 CAS 安装 current 后调用。
// 返回 false 表示请求已离开 StateWaiting（超时/死锁/释放），
// 移交方需改选下一个等待者。
func (r *request) setAcquire() bool {
	if r.casState(StateWaiting, StateAcquired) {
		r.fireNotifier()
	}
	return r.loadState() == StateAcquired
}

// setReleased 将请求驱动到 StateReleased 并执行清理。
// 从 StateTimedOut/StateDeadlocked 迁移时通知早已触发，不重复触发。
// 已处于 StateReleased 时返回 false。
func (r *request) setReleased() bool {
	for {
		switch st := r.loadState(); st {
		case StateWaiting, StateAcquired:
			if r.casState(st, StateReleased) {
				r.cleanup()
				r.fireNotifier()
				return true
			}
		case StateTimedOut, StateDeadlocked:
			if r.casState(st, StateReleased) {
				r.cleanup()
				return true
			}
		default:
			return false
		}
	}
}

// checkTimeout 检查截止时刻，必要时迁移 StateWaiting → StateTimedOut。
func (r *request) checkTimeout() {
	if r.loadState() == StateWaiting &&
		r.lock.ts.Expired(r.deadline) &&
		r.casState(StateWaiting, StateTimedOut) {
		r.lock.metrics.RecordTimeout(context.Background(), r.lock.name)
		r.lock.onCanceled(r)
		r.fireNotifier()
	}
}

// checkDeadlock 先做超时检查（死锁判定更昂贵），再咨询检查器。
func (r *request) checkDeadlock(checker DeadlockChecker, currentOwner any) {
	r.checkTimeout()
	if r.loadState() == StateWaiting &&
		r.owner != currentOwner &&
		checker.DeadlockDetected(r.owner, currentOwner) &&
		r.casState(StateWaiting, StateDeadlocked) {
		r.lock.metrics.RecordDeadlock(context.Background(), r.lock.name)
		r.lock.onCanceled(r)
		r.fireNotifier()
	}
}

// cleanup 将请求从 owner 索引移除并触发 release hook（恰好一次）。
func (r *request) cleanup() {
	if r.lock.removeOwner(r.owner) {
		r.lock.triggerReleaseHook()
	}
}

// fireNotifier 触发单次完成通知并分发监听器。
// 仅在 state 已离开 StateWaiting 后生效；重复调用为 no-op。
func (r *request) fireNotifier() {
	if r.loadState() == StateWaiting {
		return
	}
	r.mu.Lock()
	if r.fired {
		r.mu.Unlock()
		return
	}
	r.fired = true
	listeners := r.listeners
	r.listeners = nil
	close(r.notifier)
	r.mu.Unlock()

	for _, fn := range listeners {
		r.dispatch(fn)
	}
}

// dispatch 推导监听器可见状态并回调。
// StateReleased 按 StateAcquired 上报：等待者确实进入过临界区，
// 只是持有者随后释放了锁。
func (r *request) dispatch(fn Listener) {
	switch st := r.loadState(); st {
	case StateWaiting:
		panic("xlock: listener invoked while still waiting")
	case StateAcquired, StateReleased:
		fn(StateAcquired)
	default:
		fn(st)
	}
}

// recordCancel 按取消目标记录指标。
func (r *request) recordCancel(target LockState) {
	if target == StateTimedOut {
		r.lock.metrics.RecordTimeout(context.Background(), r.lock.name)
		return
	}
	r.lock.metrics.RecordDeadlock(context.Background(), r.lock.name)
}

// String 返回请求的调试表示。
func (r *request) String() string {
	return fmt.Sprintf("request{id=%s, owner=%v, state=%s}", r.id, r.owner, r.loadState())
}

// 编译时接口检查
var _ Promise = (*request)(nil)
