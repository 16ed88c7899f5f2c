// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xid: 基于 Sonyflake 的唯一 ID 生成，用于锁请求标识
//   - xtime: 单调时钟上的时间服务抽象，截止时间运算与测试时钟
//
// 设计原则：
//   - 无业务语义，可被任意上层包复用
//   - 并发安全
package util
