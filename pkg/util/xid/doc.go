// Package xid 提供基于 Sonyflake 雪花算法的唯一 ID 生成。
//
// 锁请求（xlock 的 Promise）在日志、trace span 和 String() 输出中需要
// 一个短小、可排序的唯一标识。相比 UUID，Sonyflake ID 生成更快（~50ns）、
// 字符串更短（十进制不超过 19 位，UUID 为 36 字符）且具有时序性，便于按时间排查问题。
//
// # 机器 ID
//
// 按以下优先级获取机器 ID：
//
//  1. XID_MACHINE_ID 环境变量（显式指定 0-65535，多节点部署推荐）
//  2. 主机名哈希值
//  3. 私有 IPv4 地址的低 16 位（sonyflake 默认方式）
//
// 哈希回退策略存在生日悖论碰撞风险，大规模部署请通过环境变量显式分配。
//
// # 快速开始
//
//	id, err := xid.NewString()
//	if err != nil {
//	    // 时钟严重回拨等罕见场景
//	}
//
// # 错误处理
//
// 时钟回拨时 sonyflake 会短暂等待后返回错误，NewString 将其包裹为
// [ErrGenerateFailed] 返回而非 panic，调用方可降级到本地计数等方案。
package xid
