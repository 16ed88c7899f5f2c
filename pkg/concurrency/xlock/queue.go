package xlock

import "sync/atomic"

// pendingQueue 等待队列：Michael-Scott 风格的无锁单链 FIFO。
//
// 支持并发 enqueue / peek / remove / forEach。与教科书实现的差异是
// 出队方式：持锁移交协议在赢得 current CAS 之后才调用 remove，
// 因此这里用惰性删除（gone 标记）代替严格 dequeue，peek 负责将
// 已删除的前缀节点摘链。
//
// peek 不要求线性一致——移交的最终裁决由 Lock.current 上的 CAS 把关，
// 队列只需保证 FIFO 顺序与最终可见性。
type pendingQueue struct {
	head atomic.Pointer[queueNode] // 哨兵节点
	tail atomic.Pointer[queueNode]
}

type queueNode struct {
	req  *request
	next atomic.Pointer[queueNode]
	gone atomic.Bool // 惰性删除标记
}

func newPendingQueue() *pendingQueue {
	q := &pendingQueue{}
	sentinel := &queueNode{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// enqueue 追加请求到队尾。
func (q *pendingQueue) enqueue(r *request) {
	n := &queueNode{req: r}
	for {
		t := q.tail.Load()
		next := t.next.Load()
		if next == nil {
			if t.next.CompareAndSwap(nil, n) {
				q.tail.CompareAndSwap(t, n)
				return
			}
		} else {
			// 帮助落后的 tail 前进
			q.tail.CompareAndSwap(t, next)
		}
	}
}

// peek 返回队首未删除的请求；队列为空时返回 nil。
// 顺带将已删除的前缀节点摘链（新哨兵）。
func (q *pendingQueue) peek() *request {
	for {
		h := q.head.Load()
		n := h.next.Load()
		if n == nil {
			return nil
		}
		if n.gone.Load() {
			q.head.CompareAndSwap(h, n)
			continue
		}
		return n.req
	}
}

// remove 按身份删除请求（惰性标记）。
// 仅由赢得 current CAS 的移交方调用，实践中无竞争。
func (q *pendingQueue) remove(r *request) bool {
	for n := q.head.Load().next.Load(); n != nil; n = n.next.Load() {
		if n.req == r {
			return n.gone.CompareAndSwap(false, true)
		}
	}
	return false
}

// forEach 按 FIFO 顺序遍历未删除的请求。
// 遍历是瞬时快照语义：并发修改的可见性不做保证。
func (q *pendingQueue) forEach(fn func(*request)) {
	for n := q.head.Load().next.Load(); n != nil; n = n.next.Load() {
		if !n.gone.Load() {
			fn(n.req)
		}
	}
}
