package xid

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/sony/sonyflake/v2"
)

var (
	// ErrGenerateFailed ID 生成失败。
	// 时钟严重回拨或时间分量溢出时返回此错误。
	ErrGenerateFailed = errors.New("xid: failed to generate id")

	// ErrNoMachineID 无法确定机器 ID。
	// 所有获取策略（环境变量、主机名、私有 IP）均失败时返回此错误。
	ErrNoMachineID = errors.New("xid: no machine id available")
)

// EnvMachineID 直接指定机器 ID 的环境变量（0-65535）。
const EnvMachineID = "XID_MACHINE_ID"

// Generator 唯一 ID 生成器，所有方法并发安全。
type Generator struct {
	sf *sonyflake.Sonyflake
}

// NewGenerator 创建独立的 ID 生成器。
// 适用于依赖注入和测试隔离；常规场景直接使用包级 NewString。
func NewGenerator() (*Generator, error) {
	sf, err := sonyflake.New(sonyflake.Settings{
		MachineID: machineID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerateFailed, err)
	}
	return &Generator{sf: sf}, nil
}

// New 生成一个新的 int64 ID。
func (g *Generator) New() (int64, error) {
	id, err := g.sf.NextID()
	if err != nil {
		// 设计决策: 使用 %v 而非 %w 包装 sonyflake 内部错误，
		// 避免将其错误类型暴露为本包 API 的一部分。
		return 0, fmt.Errorf("%w: %v", ErrGenerateFailed, err)
	}
	return id, nil
}

// NewString 生成十进制字符串形式的新 ID。
func (g *Generator) NewString() (string, error) {
	id, err := g.New()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// =============================================================================
// 包级默认生成器
// =============================================================================

var (
	defaultOnce sync.Once
	defaultGen  *Generator
	defaultErr  error
)

func defaultGenerator() (*Generator, error) {
	defaultOnce.Do(func() {
		defaultGen, defaultErr = NewGenerator()
	})
	return defaultGen, defaultErr
}

// New 使用默认生成器生成一个新的 int64 ID。
func New() (int64, error) {
	g, err := defaultGenerator()
	if err != nil {
		return 0, err
	}
	return g.New()
}

// NewString 使用默认生成器生成十进制字符串形式的新 ID。
func NewString() (string, error) {
	g, err := defaultGenerator()
	if err != nil {
		return "", err
	}
	return g.NewString()
}

// =============================================================================
// 机器 ID 获取策略
// =============================================================================

// machineID 按优先级获取机器 ID：环境变量 > 主机名哈希 > 私有 IPv4 低 16 位。
func machineID() (int, error) {
	if s := os.Getenv(EnvMachineID); s != "" {
		id, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("xid: invalid %s value %q: %w", EnvMachineID, s, err)
		}
		return int(id), nil
	}

	if host, err := os.Hostname(); err == nil && host != "" {
		return int(hashToMachineID(host)), nil
	}

	return machineIDFromPrivateIP()
}

// hashToMachineID 将字符串哈希为 16 位机器 ID。
func hashToMachineID(s string) uint16 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s)) // fnv 的 Write 永不返回错误
	return uint16(h.Sum32())
}

// machineIDFromPrivateIP 取第一个私有 IPv4 地址的低 16 位。
func machineIDFromPrivateIP() (int, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoMachineID, err)
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || !ip.IsPrivate() {
			continue
		}
		return int(ip[2])<<8 | int(ip[3]), nil
	}
	return 0, ErrNoMachineID
}
