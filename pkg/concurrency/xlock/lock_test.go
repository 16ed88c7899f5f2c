package xlock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xgridlock/pkg/util/xtime"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestLock(t *testing.T, opts ...Option) (*Lock, *xtime.Manual) {
	t.Helper()
	clock := xtime.NewManual()
	lk, err := New(clock, opts...)
	require.NoError(t, err)
	return lk, clock
}

func TestNewNilTimeService(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilTimeService)
}

func TestAcquireNilOwnerPanics(t *testing.T) {
	lk, _ := newTestLock(t)
	assert.PanicsWithValue(t, "xlock: nil owner", func() {
		lk.Acquire(nil, time.Second)
	})
}

func TestReleaseNilOwnerPanics(t *testing.T) {
	lk, _ := newTestLock(t)
	assert.PanicsWithValue(t, "xlock: nil owner", func() {
		lk.Release(nil)
	})
}

func TestSingleOwnerFreeLock(t *testing.T) {
	lk, _ := newTestLock(t)

	p := lk.Acquire("A", time.Second)
	assert.True(t, p.IsAvailable())
	require.NoError(t, p.Wait(context.Background()))

	assert.True(t, lk.IsLocked())
	assert.Equal(t, "A", lk.LockOwner())
	assert.True(t, lk.ContainsOwner("A"))

	lk.Release("A")
	assert.False(t, lk.IsLocked())
	assert.Nil(t, lk.LockOwner())
	assert.False(t, lk.ContainsOwner("A"))
	assert.True(t, lk.IsEmpty())
}

func TestQueuedHandoff(t *testing.T) {
	lk, _ := newTestLock(t)

	pA := lk.Acquire("A", 5*time.Second)
	pB := lk.Acquire("B", 5*time.Second)

	assert.True(t, pA.IsAvailable())
	assert.False(t, pB.IsAvailable())
	assert.Equal(t, "A", lk.LockOwner())
	assert.True(t, lk.ContainsOwner("B"))

	lk.Release("A")

	assert.True(t, pB.IsAvailable())
	require.NoError(t, pB.Wait(context.Background()))
	assert.Equal(t, "B", lk.LockOwner())

	lk.Release("B")
	assert.False(t, lk.IsLocked())
}

func TestTimeoutInQueue(t *testing.T) {
	lk, clock := newTestLock(t)

	lk.Acquire("A", 10*time.Second)
	pB := lk.Acquire("B", 50*time.Millisecond)

	clock.Advance(100 * time.Millisecond)

	err := pB.Wait(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsTimeout(err))
	assert.False(t, lk.ContainsOwner("B"))

	// A 不受影响，释放后锁空闲
	lk.Release("A")
	assert.False(t, lk.IsLocked())
	assert.True(t, lk.IsEmpty())
}

func TestDeadlockCheckCancelsWaiter(t *testing.T) {
	lk, _ := newTestLock(t)

	lk.Acquire("A", 10*time.Second)
	pB := lk.Acquire("B", 10*time.Second)

	checker := DeadlockCheckerFunc(func(pendingOwner, currentOwner any) bool {
		return pendingOwner == "B" && currentOwner == "A"
	})
	lk.DeadlockCheck(checker)

	err := pB.Wait(context.Background())
	assert.ErrorIs(t, err, ErrDeadlockDetected)
	assert.True(t, IsDeadlock(err))
	assert.False(t, lk.ContainsOwner("B"))

	// 持有者不受影响
	assert.Equal(t, "A", lk.LockOwner())
	lk.Release("A")
}

func TestDeadlockCheckNilCheckerNoop(t *testing.T) {
	lk, _ := newTestLock(t)

	lk.Acquire("A", time.Second)
	pB := lk.Acquire("B", time.Second)

	lk.DeadlockCheck(nil)
	assert.False(t, pB.IsAvailable())

	lk.Release("A")
	lk.Release("B")
}

func TestDeadlockCheckSkipsSameOwnerAndHolder(t *testing.T) {
	lk, _ := newTestLock(t)

	lk.Acquire("A", time.Second)
	pB := lk.Acquire("B", time.Second)

	// 检查器只记录调用、不报告死锁；等待者与持有者相同的组合不会被咨询
	calls := make(map[any]any)
	lk.DeadlockCheck(DeadlockCheckerFunc(func(pendingOwner, currentOwner any) bool {
		calls[pendingOwner] = currentOwner
		return false
	}))

	assert.Equal(t, map[any]any{"B": "A"}, calls)
	assert.False(t, pB.IsAvailable())

	lk.Release("A")
	lk.Release("B")
}

func TestReleaseOfQueuedWaiter(t *testing.T) {
	lk, _ := newTestLock(t)

	pA := lk.Acquire("A", time.Second)
	lk.Acquire("B", time.Second)

	lk.Release("B")
	assert.False(t, lk.ContainsOwner("B"))
	assert.Equal(t, "A", lk.LockOwner())

	require.NoError(t, pA.Wait(context.Background()))

	// 释放 A 时移交协议跳过 B 的作废表项
	lk.Release("A")
	assert.False(t, lk.IsLocked())
	assert.True(t, lk.IsEmpty())
}

func TestReleaseUnknownOwnerNoop(t *testing.T) {
	lk, _ := newTestLock(t)

	lk.Release("ghost")
	assert.False(t, lk.IsLocked())

	lk.Acquire("A", time.Second)
	lk.Release("ghost")
	assert.Equal(t, "A", lk.LockOwner())
	lk.Release("A")
}

func TestIdempotentAcquire(t *testing.T) {
	lk, _ := newTestLock(t)

	p1 := lk.Acquire("A", time.Second)
	p2 := lk.Acquire("A", time.Hour) // 新 timeout 被忽略
	assert.Same(t, p1, p2)

	lk.Release("A")

	// 释放后等待同一请求：二者一致地报告已释放
	assert.ErrorIs(t, p1.Wait(context.Background()), ErrLockReleased)
	assert.ErrorIs(t, p2.Wait(context.Background()), ErrLockReleased)
}

func TestIdempotentAcquireKeepsDeadline(t *testing.T) {
	lk, clock := newTestLock(t)

	lk.Acquire("A", 10*time.Second)
	pB := lk.Acquire("B", 50*time.Millisecond)
	clock.Advance(100 * time.Millisecond)

	// 重入不刷新截止时间：即使带上更长的 timeout，原请求照常超时
	pB2 := lk.Acquire("B", time.Hour)
	assert.Same(t, pB, pB2)
	assert.ErrorIs(t, pB2.Wait(context.Background()), ErrTimeout)

	lk.Release("A")
}

func TestTimeoutPromotesSuccessor(t *testing.T) {
	lk, clock := newTestLock(t)

	lk.Acquire("A", 10*time.Second)
	pB := lk.Acquire("B", 50*time.Millisecond)
	pC := lk.Acquire("C", 10*time.Second)

	clock.Advance(100 * time.Millisecond)
	assert.True(t, pB.IsAvailable())
	assert.Equal(t, StateTimedOut, pB.State())

	// 移交协议跳过已超时的 B，提升 C
	lk.Release("A")
	assert.Equal(t, "C", lk.LockOwner())
	require.NoError(t, pC.Wait(context.Background()))

	lk.Release("C")
	assert.ErrorIs(t, pB.Wait(context.Background()), ErrTimeout)
	assert.True(t, lk.IsEmpty())
}

func TestFIFOOrderWithoutCancellation(t *testing.T) {
	lk, _ := newTestLock(t)

	owners := []string{"t1", "t2", "t3", "t4", "t5"}
	for _, o := range owners {
		lk.Acquire(o, time.Hour)
	}

	for i, o := range owners {
		assert.Equal(t, o, lk.LockOwner(), "position %d", i)
		lk.Release(o)
	}
	assert.False(t, lk.IsLocked())
	assert.True(t, lk.IsEmpty())
}

func TestLockOwnerOnPromise(t *testing.T) {
	lk, _ := newTestLock(t)

	pA := lk.Acquire("A", time.Second)
	pB := lk.Acquire("B", time.Second)

	assert.Equal(t, "A", pA.LockOwner())
	assert.Equal(t, "A", pB.LockOwner())
	assert.Equal(t, "A", pA.Owner())
	assert.Equal(t, "B", pB.Owner())

	lk.Release("A")
	assert.Equal(t, "B", pB.LockOwner())
	lk.Release("B")
	assert.Nil(t, pB.LockOwner())
}

func TestOpaqueOwnerIdentity(t *testing.T) {
	lk, _ := newTestLock(t)

	// owner 是任意可比较对象，不限于字符串
	ownerA := uuid.New()
	ownerB := uuid.New()

	pA := lk.Acquire(ownerA, time.Second)
	pB := lk.Acquire(ownerB, time.Second)
	require.NoError(t, pA.Wait(context.Background()))
	assert.Equal(t, ownerA, lk.LockOwner())
	assert.False(t, pB.IsAvailable())

	lk.Release(ownerA)
	require.NoError(t, pB.Wait(context.Background()))
	lk.Release(ownerB)
	assert.True(t, lk.IsEmpty())
}

func TestReleaseHookExactlyOncePerRequest(t *testing.T) {
	var hooks atomic.Int64
	lk, clock := newTestLock(t, WithReleaseHook(func() { hooks.Add(1) }))

	// 正常获取-释放
	lk.Acquire("A", time.Second)
	lk.Release("A")
	assert.Equal(t, int64(1), hooks.Load())

	// 重复释放不重复触发
	lk.Release("A")
	assert.Equal(t, int64(1), hooks.Load())

	// 超时请求在 Wait 清理时触发
	lk.Acquire("B", 10*time.Second)
	pC := lk.Acquire("C", 50*time.Millisecond)
	clock.Advance(100 * time.Millisecond)
	require.ErrorIs(t, pC.Wait(context.Background()), ErrTimeout)
	assert.Equal(t, int64(2), hooks.Load())

	// 超时请求再被 Release 也不重复触发
	lk.Release("C")
	assert.Equal(t, int64(2), hooks.Load())

	lk.Release("B")
	assert.Equal(t, int64(3), hooks.Load())
}

func TestReleaseHookOnTimedOutReleasedWithoutWait(t *testing.T) {
	var hooks atomic.Int64
	lk, clock := newTestLock(t, WithReleaseHook(func() { hooks.Add(1) }))

	lk.Acquire("A", 10*time.Second)
	pB := lk.Acquire("B", 50*time.Millisecond)
	clock.Advance(100 * time.Millisecond)
	assert.True(t, pB.IsAvailable())

	// 无人 Wait：清理由 Release 完成
	assert.True(t, lk.ContainsOwner("B"))
	lk.Release("B")
	assert.False(t, lk.ContainsOwner("B"))
	assert.Equal(t, int64(1), hooks.Load())

	lk.Release("A")
}

func TestQueueDrains(t *testing.T) {
	lk, _ := newTestLock(t)

	const n = 32
	for i := range n {
		lk.Acquire(i, time.Hour)
	}
	for i := range n {
		lk.Release(i)
	}

	assert.False(t, lk.IsLocked())
	assert.Nil(t, lk.LockOwner())
	assert.True(t, lk.IsEmpty())
}

func TestMutualExclusionStress(t *testing.T) {
	ts := xtime.New()
	lk, err := New(ts)
	require.NoError(t, err)

	const workers = 16
	const iterations = 50

	var inCritical atomic.Int32
	var total atomic.Int64

	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			for i := range iterations {
				owner := [2]int{w, i}
				p := lk.Acquire(owner, 30*time.Second)
				if err := p.Wait(context.Background()); err != nil {
					return err
				}
				if n := inCritical.Add(1); n != 1 {
					t.Errorf("mutual exclusion violated: %d in critical section", n)
				}
				total.Add(1)
				inCritical.Add(-1)
				lk.Release(owner)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(workers*iterations), total.Load())
	assert.False(t, lk.IsLocked())
	assert.True(t, lk.IsEmpty())
}

func TestConcurrentAcquireSameOwner(t *testing.T) {
	lk, _ := newTestLock(t)

	const workers = 8
	promises := make([]Promise, workers)

	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			promises[w] = lk.Acquire("shared", time.Minute)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// 所有并发获取返回同一个请求
	for w := 1; w < workers; w++ {
		assert.Same(t, promises[0], promises[w])
	}

	lk.Release("shared")
	assert.True(t, lk.IsEmpty())
}

func TestWaitBlocksUntilHandoff(t *testing.T) {
	ts := xtime.New()
	lk, err := New(ts)
	require.NoError(t, err)

	lk.Acquire("A", 30*time.Second)
	pB := lk.Acquire("B", 30*time.Second)

	done := make(chan error, 1)
	started := make(chan struct{})
	go func() {
		close(started)
		done <- pB.Wait(context.Background())
	}()

	<-started
	time.Sleep(20 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("Wait returned early: %v", err)
	default:
	}

	lk.Release("A")
	require.NoError(t, <-done)
	assert.Equal(t, "B", lk.LockOwner())
	lk.Release("B")
}
