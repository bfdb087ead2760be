package main

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"

	"snaplog/index"
	"snaplog/kv"
)

// Config snaplog 命令行工具的配置, 对应 YAML 配置文件
type Config struct {
	RootDirectory    string
	SectorSize       int64
	IndexType        index.IndexType
	SnapshotInterval int
	LogLevel         zapcore.Level
}

func defaultConfig() *Config {
	return &Config{
		RootDirectory:    kv.DefaultOptions.DirPath,
		SectorSize:       kv.DefaultOptions.SectorSize,
		IndexType:        kv.DefaultOptions.IndexType,
		SnapshotInterval: kv.DefaultOptions.SnapshotInterval,
		LogLevel:         zapcore.WarnLevel,
	}
}

// Parse 解析 YAML 配置, 未设置的字段保留原值
func (c *Config) Parse(data []byte) error {
	var aux struct {
		RootDirectory    string `yaml:"root_directory"`
		SectorSize       int64  `yaml:"sector_size"`
		IndexType        string `yaml:"index_type"`
		SnapshotInterval *int   `yaml:"snapshot_interval"`
		LogLevel         string `yaml:"log_level"`
	}
	if err := yaml.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.RootDirectory != "" {
		c.RootDirectory = aux.RootDirectory
	}
	if aux.SectorSize != 0 {
		c.SectorSize = aux.SectorSize
	}
	if aux.SnapshotInterval != nil {
		if *aux.SnapshotInterval < 0 {
			return errors.New("snapshot_interval must not be negative")
		}
		c.SnapshotInterval = *aux.SnapshotInterval
	}

	switch strings.ToLower(aux.IndexType) {
	case "":
	case "btree":
		c.IndexType = index.Btree
	case "art":
		c.IndexType = index.ART
	default:
		return fmt.Errorf("invalid index_type: %q", aux.IndexType)
	}

	if aux.LogLevel != "" {
		if err := c.LogLevel.UnmarshalText([]byte(strings.ToLower(aux.LogLevel))); err != nil {
			return fmt.Errorf("invalid log_level: %w", err)
		}
	}
	return nil
}

func (c *Config) newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(c.LogLevel)
	return cfg.Build()
}

func (c *Config) kvOptions(logger *zap.Logger) kv.Options {
	opts := kv.DefaultOptions
	opts.DirPath = c.RootDirectory
	opts.SectorSize = c.SectorSize
	opts.IndexType = c.IndexType
	opts.SnapshotInterval = c.SnapshotInterval
	opts.Logger = logger
	return opts
}
