package xlock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xgridlock/pkg/observability/xlog"
	"github.com/omeyang/xgridlock/pkg/util/xid"
	"github.com/omeyang/xgridlock/pkg/util/xtime"
	"go.opentelemetry.io/otel/trace"
)

// Lock 以任意 owner 为持有者的异步互斥锁。
//
// 与 sync.Mutex 的本质差异：持有者是调用方提供的任意可比较对象
// （通常是事务标识），获取与释放可以跨 goroutine；Acquire 永不阻塞，
// 返回 Promise 供调用方异步检查、等待或取消。
//
// 所有方法并发安全。见包文档的移交协议说明。
type Lock struct {
	name        string
	ts          xtime.TimeService
	logger      xlog.Logger
	metrics     *Metrics
	tracer      trace.Tracer
	releaseHook func()

	// current 是唯一的移交裁决点：只通过 CAS 变更。
	current atomic.Pointer[request]
	pending *pendingQueue
	owners  sync.Map // owner -> *request
}

// New 创建 Lock。ts 不得为 nil。
func New(ts xtime.TimeService, opts ...Option) (*Lock, error) {
	if ts == nil {
		return nil, ErrNilTimeService
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return &Lock{
		name:        o.name,
		ts:          ts,
		logger:      o.logger,
		metrics:     o.metrics,
		tracer:      getTracer(o.tracerProvider),
		releaseHook: o.releaseHook,
		pending:     newPendingQueue(),
	}, nil
}

// Acquire 尝试获取锁。
//
// 锁空闲时立即获取；否则请求进入 FIFO 等待队列。owner 已有未完结
// 请求时返回该请求本身（幂等重入：同一个 Promise，不入队新等待者，
// timeout 参数被忽略，原截止时间不变）。
//
// owner 不得为 nil（panic），且其动态类型必须可比较（map key 约束）。
// Acquire 永不阻塞；是否获取成功由返回的 Promise 表达。
func (l *Lock) Acquire(owner any, timeout time.Duration) Promise {
	if owner == nil {
		panic("xlock: nil owner")
	}

	if v, ok := l.owners.Load(owner); ok {
		r := v.(*request)
		l.metrics.RecordAcquire(context.Background(), l.name, true)
		return r
	}

	r := l.newRequest(owner, timeout)
	if actual, loaded := l.owners.LoadOrStore(owner, r); loaded {
		// 并发 Acquire 竞争同一 owner，返回胜者
		l.metrics.RecordAcquire(context.Background(), l.name, true)
		return actual.(*request)
	}

	l.logger.Debug(context.Background(), "lock request created",
		AttrLockName(l.name), AttrRequestID(r.id), AttrOwner(owner),
		AttrDeadline(r.deadline),
	)

	l.pending.enqueue(r)
	l.tryAcquire(nil)
	l.metrics.RecordAcquire(context.Background(), l.name, false)
	return r
}

// Release 释放 owner 的锁。
//
// owner 是当前持有者时释放锁并移交给下一个等待者；owner 仍在排队
// （或已超时/死锁但尚未清理）时其请求被作废并清理；owner 不在 owner
// 索引中（从未请求过锁，或请求已被 Wait 清理）时 no-op。
// owner 不得为 nil（panic）。
func (l *Lock) Release(owner any) {
	if owner == nil {
		panic("xlock: nil owner")
	}

	v, ok := l.owners.Load(owner)
	if !ok {
		return
	}
	r := v.(*request)

	released := r.setReleased()
	l.logger.Debug(context.Background(), "lock released",
		AttrLockName(l.name), AttrRequestID(r.id), AttrOwner(owner),
	)
	l.metrics.RecordRelease(context.Background(), l.name, released)

	if l.current.Load() == r {
		l.tryAcquire(r)
	}
}

// LockOwner 返回当前持有者的 owner；锁空闲时返回 nil。
func (l *Lock) LockOwner() any {
	if r := l.current.Load(); r != nil {
		return r.owner
	}
	return nil
}

// IsLocked 报告锁是否被持有。
// 返回 false 不代表队列为空：可能尚无请求被提升。
func (l *Lock) IsLocked() bool {
	return l.current.Load() != nil
}

// ContainsOwner 报告 owner 是否持有锁或在队列中。
func (l *Lock) ContainsOwner(owner any) bool {
	_, ok := l.owners.Load(owner)
	return ok
}

// IsEmpty 报告锁是否没有任何未完结请求（无持有者且无排队者）。
// 容器（xlocktable）用它判定锁可否回收。
func (l *Lock) IsEmpty() bool {
	empty := true
	l.owners.Range(func(any, any) bool {
		empty = false
		return false
	})
	return empty
}

// DeadlockCheck 对队列中的每个等待请求执行一次死锁检查。
//
// 超时检查先行（死锁判定更昂贵）；检查器报告环时，该等待请求被
// 迁移到 StateDeadlocked 并触发移交。checker 为 nil 时 no-op。
func (l *Lock) DeadlockCheck(checker DeadlockChecker) {
	if checker == nil {
		return
	}
	_, span := startSpan(context.Background(), l.tracer, spanNameDeadlockCheck)
	defer span.End()

	holder := l.current.Load()
	if holder == nil {
		return
	}
	l.pending.forEach(func(p *request) {
		p.checkDeadlock(checker, holder.owner)
	})
	setSpanOK(span)
}

// =============================================================================
// 移交协议
// =============================================================================

// tryAcquire 选举下一个持有者。release 是让出 current 的请求，
// 或 nil（仅尝试提升新等待者）。
//
// current 上的单点 CAS 串行化所有移交裁决：队列删除发生在赢得 CAS
// 之后，两个并发释放者不可能选中同一候选；输掉 CAS 的一方无事可做。
// 候选在提升前已离开 StateWaiting（setAcquire 返回 false）时，
// 把它当作新的让出者重试，选举下一个排队请求。
func (l *Lock) tryAcquire(release *request) {
	toRelease := release
	for {
		toAcquire := l.pending.peek()
		if toAcquire == nil && toRelease == nil {
			return
		}
		if toAcquire == nil {
			// 队列已空，清空 current；CAS 失败说明其他移交方已处理
			l.current.CompareAndSwap(toRelease, nil)
			return
		}
		if l.current.CompareAndSwap(toRelease, toAcquire) {
			// 赢得 CAS 后才从队列删除，见上
			l.pending.remove(toAcquire)
			if toAcquire.setAcquire() {
				l.logger.Debug(context.Background(), "lock handed off",
					AttrLockName(l.name), AttrRequestID(toAcquire.id), AttrOwner(toAcquire.owner),
				)
				return
			}
			// 候选已超时/死锁/释放，视其为让出者继续选举
			toRelease = toAcquire
		} else {
			// 其他移交方已变更 current
			return
		}
	}
}

// onCanceled 在请求被取消（超时/死锁/Cancel）后调用。
// 被取消的请求恰好是 current（提升与取消竞争的窗口）时触发移交。
func (l *Lock) onCanceled(canceled *request) {
	if l.current.Load() == canceled {
		l.tryAcquire(canceled)
	}
}

// =============================================================================
// 内部辅助
// =============================================================================

var requestSeq atomic.Int64

func (l *Lock) newRequest(owner any, timeout time.Duration) *request {
	id, err := xid.NewString()
	if err != nil {
		// 时钟回拨等罕见场景：退化到进程内序号，ID 仅用于日志与追踪
		id = fmt.Sprintf("seq-%d", requestSeq.Add(1))
	}
	r := &request{
		lock:     l,
		owner:    owner,
		id:       id,
		deadline: l.ts.ExpectedEnd(timeout),
		notifier: make(chan struct{}),
	}
	r.state.Store(int32(StateWaiting))
	return r
}

// removeOwner 从 owner 索引移除，返回是否真正移除（保证 hook 恰好一次）。
func (l *Lock) removeOwner(owner any) bool {
	_, loaded := l.owners.LoadAndDelete(owner)
	return loaded
}

func (l *Lock) triggerReleaseHook() {
	if l.releaseHook != nil {
		l.releaseHook()
	}
}
