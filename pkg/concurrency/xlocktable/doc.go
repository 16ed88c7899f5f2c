// Package xlocktable 提供按 key 管理 xlock.Lock 的容器。
//
// 数据网格按缓存键加锁：每个 key 对应一把独立的 owner 锁。容器负责
// 锁的按需创建与空闲回收，并提供跨全表的死锁巡检。
//
// # 特性
//
//   - 分片 map（xxhash，默认 32 分片，2 的幂），减少管理锁争用
//   - 按需建锁：Acquire 时不存在则创建；WithMaxLocks 限制总量
//   - 空闲回收：利用 xlock 的 release hook，锁上最后一个请求完结时
//     自动从分片摘除
//   - 死锁巡检：WithDeadlockChecker + WithSweepInterval 启动后台
//     巡检 goroutine；DeadlockSweep 可随时手动触发
//   - 配置加载：ParseConfig 从 YAML/JSON 字节解析容器配置（koanf）
//
// # 快速开始
//
//	tbl, err := xlocktable.New(xtime.New(),
//	    xlocktable.WithShardCount(64),
//	)
//	if err != nil {
//	    return err
//	}
//	defer tbl.Close()
//
//	p, err := tbl.Acquire("user:42", "tx-1", 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	if err := p.Wait(ctx); err != nil {
//	    return err
//	}
//	defer tbl.Release("user:42", "tx-1")
//
// # 回收与获取的竞争
//
// 设计决策: 锁的回收（release hook）与新的 Acquire 存在竞争窗口——
// 获取方拿到锁引用后、插入请求前，回收方可能已把锁从分片摘除。
// Acquire 在请求插入后复查分片映射，发现引用已失效则撤销请求并
// 重试，保证请求不会落在孤儿锁上。
//
// # 指标基数
//
// 容器把 key 作为锁名称传给 xlock。key 为动态生成时（几乎总是如此），
// 注入的 Metrics 应使用 xlock.MetricsWithDisableNameLabel 创建，
// 避免指标高基数问题。
package xlocktable
