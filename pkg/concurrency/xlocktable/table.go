package xlocktable

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/xgridlock/pkg/concurrency/xlock"
	"github.com/omeyang/xgridlock/pkg/util/xtime"
)

// Table 按 key 管理 xlock.Lock 的分片容器。
// 所有方法并发安全。
type Table struct {
	shards    []shard
	opts      *options
	ts        xtime.TimeService
	closed    atomic.Bool
	lockCount atomic.Int64
	done      chan struct{}
	sweepWg   sync.WaitGroup
}

type shard struct {
	mu    sync.RWMutex
	locks map[string]*xlock.Lock
}

// New 创建容器。ts 不得为 nil。
// 配置了 WithSweepInterval 与 WithDeadlockChecker 时启动后台巡检。
func New(ts xtime.TimeService, opts ...Option) (*Table, error) {
	if ts == nil {
		return nil, ErrNilTimeService
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	t := &Table{
		shards: make([]shard, o.shardCount),
		opts:   o,
		ts:     ts,
		done:   make(chan struct{}),
	}
	for i := range t.shards {
		t.shards[i].locks = make(map[string]*xlock.Lock)
	}

	if o.sweepInterval > 0 && o.checker != nil {
		t.sweepWg.Add(1)
		go t.sweepLoop()
	}
	return t, nil
}

func (t *Table) getShard(key string) *shard {
	h := xxhash.Sum64String(key)
	return &t.shards[h&t.opts.shardMask]
}

// Acquire 在 key 对应的锁上为 owner 发起获取。
//
// 锁不存在时按需创建。返回的 Promise 语义与 xlock.Lock.Acquire 一致。
// 容器已关闭返回 [ErrClosed]；key 为空返回 [ErrInvalidKey]。
func (t *Table) Acquire(key string, owner any, timeout time.Duration) (xlock.Promise, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if t.closed.Load() {
		return nil, ErrClosed
	}

	for {
		lk, err := t.getOrCreate(key)
		if err != nil {
			return nil, err
		}
		p := lk.Acquire(owner, timeout)
		// 复查分片映射：锁可能在插入请求前被回收（见包文档）
		if t.Get(key) == lk {
			return p, nil
		}
		lk.Release(owner)
	}
}

// Release 释放 key 上 owner 的锁。key 不存在时 no-op。
// 容器关闭后仍可调用，保证已持有的锁能正常释放。
func (t *Table) Release(key string, owner any) {
	if lk := t.Get(key); lk != nil {
		lk.Release(owner)
	}
}

// Get 返回 key 对应的锁；不存在时返回 nil。
func (t *Table) Get(key string) *xlock.Lock {
	s := t.getShard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locks[key]
}

// OwnerOf 返回 key 上当前持有者的 owner；锁不存在或空闲时返回 nil。
func (t *Table) OwnerOf(key string) any {
	if lk := t.Get(key); lk != nil {
		return lk.LockOwner()
	}
	return nil
}

// IsLocked 报告 key 上的锁是否被持有。
func (t *Table) IsLocked(key string) bool {
	lk := t.Get(key)
	return lk != nil && lk.IsLocked()
}

// Len 返回当前活跃的锁数量（瞬时快照）。
func (t *Table) Len() int {
	return int(max(t.lockCount.Load(), 0))
}

// Keys 返回当前活跃锁的 key 列表，仅用于调试。
// 返回值是快照，不保证跨分片原子性。
func (t *Table) Keys() []string {
	keys := make([]string, 0, max(t.lockCount.Load(), 0))
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		for k := range s.locks {
			keys = append(keys, k)
		}
		s.mu.RUnlock()
	}
	return keys
}

// DeadlockSweep 对全表每把锁执行一次死锁检查。
// 未配置 WithDeadlockChecker 时 no-op。
func (t *Table) DeadlockSweep() {
	checker := t.opts.checker
	if checker == nil {
		return
	}
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		locks := make([]*xlock.Lock, 0, len(s.locks))
		for _, lk := range s.locks {
			locks = append(locks, lk)
		}
		s.mu.RUnlock()

		// 在分片锁外执行检查，避免阻塞该分片的建锁与回收
		for _, lk := range locks {
			lk.DeadlockCheck(checker)
		}
	}
}

// Close 关闭容器：拒绝新的 Acquire，停止后台巡检。
// 已持有的锁不受影响，仍可 Release。重复调用返回 [ErrClosed]。
func (t *Table) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(t.done)
	t.sweepWg.Wait()
	return nil
}

// =============================================================================
// 内部实现
// =============================================================================

// getOrCreate 返回 key 对应的锁，不存在时创建。
func (t *Table) getOrCreate(key string) (*xlock.Lock, error) {
	s := t.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.closed.Load() {
		return nil, ErrClosed
	}
	if lk, ok := s.locks[key]; ok {
		return lk, nil
	}

	if t.opts.maxLocks > 0 {
		// CAS 严格限制总量，避免跨分片并发突破上限
		for {
			cur := t.lockCount.Load()
			if cur >= int64(t.opts.maxLocks) {
				return nil, ErrMaxLocksExceeded
			}
			if t.lockCount.CompareAndSwap(cur, cur+1) {
				break
			}
		}
	} else {
		t.lockCount.Add(1)
	}

	lk, err := xlock.New(t.ts,
		xlock.WithName(key),
		xlock.WithLogger(t.opts.logger),
		xlock.WithMetrics(t.opts.metrics),
		xlock.WithReleaseHook(func() { t.tryRemove(key) }),
	)
	if err != nil {
		t.lockCount.Add(-1)
		return nil, err
	}
	s.locks[key] = lk

	t.opts.logger.Debug(context.Background(), "lock created",
		xlock.AttrLockName(key),
	)
	return lk, nil
}

// tryRemove 回收空闲锁：release hook 触发时调用。
// 锁上仍有未完结请求（持有者或排队者）时不回收。
func (t *Table) tryRemove(key string) {
	s := t.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	lk, ok := s.locks[key]
	if !ok || !lk.IsEmpty() {
		return
	}
	delete(s.locks, key)
	t.lockCount.Add(-1)

	t.opts.logger.Debug(context.Background(), "idle lock removed",
		xlock.AttrLockName(key),
	)
}

// sweepLoop 后台死锁巡检循环。
func (t *Table) sweepLoop() {
	defer t.sweepWg.Done()

	ticker := time.NewTicker(t.opts.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.DeadlockSweep()
		}
	}
}
