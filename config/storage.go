package config

import (
	"errors"
	"path/filepath"
)

// StorageConfig 存储配置
//
// 档案与节点缓存统一使用 BadgerDB 持久化，通过 Key 前缀隔离：
//
//	${DataDir}/
//	└── meshsync.db/        # BadgerDB 主数据库
//	    ├── profile/...     # 本机档案与私钥
//	    └── peers/...       # 节点缓存
type StorageConfig struct {
	// DataDir 数据目录路径
	// 默认值: "./data"
	DataDir string `json:"data_dir"`

	// InMemory 使用内存模式（测试与演示）
	InMemory bool `json:"in_memory,omitempty"`
}

// DefaultStorageConfig 返回默认的存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir: "./data",
	}
}

// Validate 验证存储配置的有效性
func (c StorageConfig) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return errors.New("storage: data_dir cannot be empty")
	}
	return nil
}

// DBPath 返回 BadgerDB 数据库路径
func (c StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "meshsync.db")
}
