package snaplog

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"snaplog/fio"
)

type Options struct {
	// 日志目录, 不存在时自动创建
	DirPath string

	// 存储扇区大小, 用于判断长度前缀是否跨越扇区边界
	SectorSize int64

	// 段文件的 IO 实现, 为空时使用标准文件 IO
	Opener fio.Opener

	// 日志记录器, 为空时不输出
	Logger *zap.Logger
}

var DefaultOptions = Options{
	DirPath:    filepath.Join(os.TempDir(), "snaplog"),
	SectorSize: fio.DefaultSectorSize,
}

func checkOptions(options Options) error {
	if options.DirPath == "" {
		return ErrDirPathIsEmpty
	}
	if options.SectorSize < 8 || options.SectorSize&(options.SectorSize-1) != 0 {
		return ErrInvalidSectorSize
	}
	return nil
}
