// Package xlock 提供以任意 owner 为持有者的异步互斥锁，
// 面向数据网格事务层的按键加锁场景。
//
// # 设计理念
//
// 与 sync.Mutex 的两点本质差异：
//
//   - 持有者是调用方提供的任意可比较对象（通常是事务 ID 或远程请求
//     句柄），获取与释放可以发生在不同 goroutine
//   - 接口是异步的：Acquire 永不阻塞，返回 Promise 句柄；调用方
//     自行选择轮询（IsAvailable）、等待（Wait）、订阅（AddListener）
//     或取消（Cancel）
//
// # 核心概念
//
//   - Lock: 锁对象，持有等待队列、owner 索引与当前持有者槽位
//   - Promise: 一次获取尝试的句柄，内部是五状态 CAS 状态机
//   - LockState: waiting / acquired / released / timed_out / deadlocked
//   - DeadlockChecker: 外部死锁判定器；WaitForGraph 是参考实现
//   - TimeService（xtime 包）: 单调时钟上的截止时间运算
//
// # 快速开始
//
//	ts := xtime.New()
//	lk, err := xlock.New(ts)
//	if err != nil {
//	    return err
//	}
//
//	p := lk.Acquire("tx-1", 5*time.Second)
//	if err := p.Wait(ctx); err != nil {
//	    return err // ErrTimeout / ErrDeadlockDetected / ctx.Err()
//	}
//	defer lk.Release("tx-1")
//
//	// 临界区...
//
// # 移交协议
//
// current 槽位是唯一的裁决点，只通过单字 CAS 变更，刻意不用粗粒度
// 互斥：这让 Release、Cancel、超时检查与 DeadlockCheck 可以安全交错。
// 移交循环：
//
//  1. peek 队首候选；候选与让出者均为空则返回
//  2. 候选为空：CAS current: 让出者 → nil，返回
//  3. CAS current: 让出者 → 候选；失败说明其他移交方已裁决，返回
//  4. 成功后将候选摘出队列，再 CAS 其状态 waiting → acquired；
//     候选已离开 waiting（超时/死锁/释放）时，视其为新的让出者重试
//
// 队列删除严格发生在赢得 current CAS 之后，因此两个并发释放者
// 不可能选中同一候选。
//
// # 取消与超时
//
// 取消（超时/死锁/Cancel）与移交是公平竞争：请求可能在超时瞬间
// 恰好被提升，此时调用方观察到 acquired（超时落败）；反之请求先
// 超时，则下一次移交通过失败的 setAcquire 跳过它选举后继。
//
// # 幂等重入
//
// 同一 owner 未释放前重复 Acquire 返回同一个 Promise：不入队新
// 等待者，新的 timeout 参数被忽略，原截止时间保持不变。需要刷新
// 截止时间的调用方应先 Release 再 Acquire。
//
// # 监听器语义
//
// 监听器收到的状态由触发时的观察状态推导：观察到 released 时按
// acquired 上报——从监听器视角，等待者确实进入过临界区，持有者
// 随后释放属于正常收尾。需要区分"已获取仍持有"与"已获取随后释放"
// 的监听器，应在回调后通过 Promise.State 复查。
//
// # FIFO 保证
//
// 无取消干扰时，获取顺序等于 Acquire 调用顺序；请求因超时、死锁
// 或释放离开 waiting 时让位给后继。
//
// # 观测
//
// 通过 WithLogger 注入 xlog 结构化日志（默认静默）；通过 WithMetrics
// 注入 OTel 指标（acquire/release/timeout/deadlock 计数与等待耗时
// 直方图）；Wait 与 DeadlockCheck 产生 trace span。
//
// # 时钟
//
// 截止时间运算全部走 xtime.TimeService（单调时钟），不受挂钟回拨
// 影响。时间服务在构造时固定，运行期不可更换；测试使用 xtime.Manual。
package xlock
