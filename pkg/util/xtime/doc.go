// Package xtime 提供基于单调时钟的时间服务抽象。
//
// 锁核心（xlock）的超时判定不能依赖挂钟时间：系统时间被 NTP 回拨或手动修改时，
// 挂钟可能倒退，导致死等或误超时。xtime 以服务创建时刻为基准，
// 通过 time.Since（内部使用单调时钟）计算流逝时间，保证时间只会前进。
//
// # 核心概念
//
//   - TimeService: 截止时间运算接口（ExpectedEnd / Remaining / Expired）
//   - New: 生产实现，单调时钟
//   - Manual: 测试实现，时间由测试代码显式推进
//
// # 快速开始
//
//	ts := xtime.New()
//	deadline := ts.ExpectedEnd(5 * time.Second)
//	// ...
//	if ts.Expired(deadline) {
//	    // 已超时
//	}
//
// 测试中使用 Manual 控制时间：
//
//	clock := xtime.NewManual()
//	deadline := clock.ExpectedEnd(time.Second)
//	clock.Advance(2 * time.Second)
//	// clock.Expired(deadline) == true
package xtime
