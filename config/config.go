// config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Config 主配置结构
type Config struct {
	Vault    VaultConfig    `json:"vault"`
	Rent     RentConfig     `json:"rent"`
	Database DatabaseConfig `json:"database"`
	Cache    CacheConfig    `json:"cache"`
	Log      LogConfig      `json:"log"`
}

// VaultConfig 程序相关配置
type VaultConfig struct {
	// ProgramID vault 程序的 base58 地址
	ProgramID string `json:"program_id"`
}

// RentConfig 存储费模型（与 Solana 默认值一致）
type RentConfig struct {
	LamportsPerByteYear uint64  `json:"lamports_per_byte_year"` // 3480
	ExemptionThreshold  float64 `json:"exemption_threshold"`    // 2.0 年
	StorageOverhead     uint64  `json:"storage_overhead"`       // 128 字节账户元数据
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// BadgerDB配置
	Path             string `json:"path"`
	InMemory         bool   `json:"in_memory"`
	ValueLogFileSize int64  `json:"value_log_file_size"` // 64 << 20 (64MB)
	SyncWrites       bool   `json:"sync_writes"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	ReceiptCacheSize int `json:"receipt_cache_size"` // 1024
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `json:"level"` // trace/debug/verbose/info/warn/error
}

// DefaultProgramID 默认程序地址（32 字节 0x01..0x20 的 base58）
const DefaultProgramID = "4wBqpZM9xaSheZzJSMawUKKwhdpChKbZ5eu5ky4Vigw"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Vault: VaultConfig{
			ProgramID: DefaultProgramID,
		},
		Rent: RentConfig{
			LamportsPerByteYear: 3480,
			ExemptionThreshold:  2.0,
			StorageOverhead:     128,
		},
		Database: DatabaseConfig{
			Path:             "./data/vault",
			InMemory:         false,
			ValueLogFileSize: 64 << 20,
			SyncWrites:       true,
		},
		Cache: CacheConfig{
			ReceiptCacheSize: 1024,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile 从 JSON 文件加载配置，文件中的字段覆盖默认值。
// path 为空时直接返回默认配置。
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 验证配置合法性
func (c *Config) Validate() error {
	if c.Vault.ProgramID == "" {
		return errors.New("vault.program_id must be set")
	}
	if c.Rent.LamportsPerByteYear == 0 {
		return errors.New("rent.lamports_per_byte_year must be positive")
	}
	if c.Rent.ExemptionThreshold <= 0 {
		return errors.New("rent.exemption_threshold must be positive")
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return errors.New("database.path must be set unless database.in_memory is true")
	}
	if c.Database.ValueLogFileSize <= 0 {
		return fmt.Errorf("database.value_log_file_size must be positive, got %d", c.Database.ValueLogFileSize)
	}
	if c.Cache.ReceiptCacheSize <= 0 {
		return fmt.Errorf("cache.receipt_cache_size must be positive, got %d", c.Cache.ReceiptCacheSize)
	}
	return nil
}
