// Package concurrency 提供并发控制相关的子包。
//
// 子包列表：
//   - xlock: 以任意 owner 为持有者的异步互斥锁（事务锁核心）
//   - xlocktable: 按 key 管理 xlock.Lock 的分片容器，含死锁巡检
//
// 设计原则：
//   - 快速路径无锁：移交裁决走单字 CAS，不用粗粒度互斥
//   - 获取永不阻塞，等待由调用方显式选择
//   - 超时、取消、死锁检查与移交可安全交错
package concurrency
