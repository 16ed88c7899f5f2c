package xlocktable

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置数据格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式（推荐用于 K8s ConfigMap）。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// Config 容器配置。
// 由 ParseConfig 从配置字节解析，再经 Options 转为构造选项：
//
//	cfg, err := xlocktable.ParseConfig(data, xlocktable.FormatYAML)
//	if err != nil {
//	    return err
//	}
//	tbl, err := xlocktable.New(ts, cfg.Options()...)
type Config struct {
	// ShardCount 分片数量，必须为 2 的幂。0 表示使用默认值。
	ShardCount int `koanf:"shard_count"`

	// MaxLocks 最大锁数量。0 表示不限制。
	MaxLocks int `koanf:"max_locks"`

	// SweepInterval 后台死锁巡检间隔，Go duration 字符串（如 "30s"）。
	// 空表示不启动后台巡检。
	SweepInterval string `koanf:"sweep_interval"`

	sweep time.Duration // validate() 解析
}

// ParseConfig 从配置字节解析容器配置。
// 空数据返回零值配置（全部使用默认值）。
func ParseConfig(data []byte, format Format) (*Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, ErrUnsupportedFormat
	}

	k := koanf.New(".")
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ShardCount < 0 {
		return fmt.Errorf("%w: shard_count must not be negative, got %d",
			ErrInvalidConfig, c.ShardCount)
	}
	if c.MaxLocks < 0 {
		return fmt.Errorf("%w: max_locks must not be negative, got %d",
			ErrInvalidConfig, c.MaxLocks)
	}
	if c.SweepInterval != "" {
		d, err := time.ParseDuration(c.SweepInterval)
		if err != nil {
			return fmt.Errorf("%w: invalid sweep_interval %q: %w",
				ErrInvalidConfig, c.SweepInterval, err)
		}
		if d < 0 {
			return fmt.Errorf("%w: sweep_interval must not be negative, got %s",
				ErrInvalidConfig, d)
		}
		c.sweep = d
	}
	return nil
}

// Options 将配置转为构造选项。零值字段不产生选项（沿用默认值）。
func (c *Config) Options() []Option {
	var opts []Option
	if c.ShardCount > 0 {
		opts = append(opts, WithShardCount(c.ShardCount))
	}
	if c.MaxLocks > 0 {
		opts = append(opts, WithMaxLocks(c.MaxLocks))
	}
	if c.sweep > 0 {
		opts = append(opts, WithSweepInterval(c.sweep))
	}
	return opts
}
