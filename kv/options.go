package kv

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"snaplog/fio"
	"snaplog/index"
)

type Options struct {
	// 数据目录
	DirPath string

	// 存储扇区大小
	SectorSize int64

	// 索引类型
	IndexType index.IndexType

	// 累计多少次更新之后自动生成快照, 0 表示不自动生成
	SnapshotInterval int

	// 日志记录器, 为空时不输出
	Logger *zap.Logger
}

var DefaultOptions = Options{
	DirPath:          filepath.Join(os.TempDir(), "snaplog-kv"),
	SectorSize:       fio.DefaultSectorSize,
	IndexType:        index.Btree,
	SnapshotInterval: 1024,
}

func checkOptions(options Options) error {
	if options.SnapshotInterval < 0 {
		return ErrInvalidSnapInterval
	}
	if options.IndexType != index.Btree && options.IndexType != index.ART {
		return ErrInvalidIndexType
	}
	return nil
}

// IteratorOptions 索引迭代器配置项
type IteratorOptions struct {
	// 遍历前缀为指定值的 Key, 默认为空
	Prefix []byte
	// 是否反向遍历, 默认 false 是正向
	Reverse bool
}

// WriteBatchOptions 批量写配置项
type WriteBatchOptions struct {
	// 一个批次当中最大的数据量
	MaxBatchNum uint
}

var DefaultIteratorOptions = IteratorOptions{}

var DefaultWriteBatchOptions = WriteBatchOptions{
	MaxBatchNum: 10000,
}
