package fio

const DataFilePerm = 0644

// DefaultSectorSize 默认的存储扇区大小, 用于判断长度前缀是否跨越扇区边界
const DefaultSectorSize = 512

// IOManager 抽象 IO 管理接口, 段文件通过它进行读写, 可以注入不同的实现(例如故障注入)
type IOManager interface {
	// Read 从文件给定位置读取数据
	Read([]byte, int64) (int, error)

	// Write 在当前文件位置写入字节数组
	Write([]byte) (int, error)

	// Seek 移动当前文件位置
	Seek(offset int64, whence int) (int64, error)

	// Truncate 将文件截断到指定大小
	Truncate(size int64) error

	// Size 获取文件大小
	Size() (int64, error)

	// Sync 内存缓冲区的数据持久化到磁盘中, 返回时数据已落盘
	Sync() error

	// SpansBoundary 从 offset 开始写 4 个字节是否会跨越扇区边界
	SpansBoundary(offset int64) bool

	// Close 关闭文件
	Close() error
}

// Opener 打开(必要时创建)指定路径的段文件
type Opener func(fileName string) (IOManager, error)

// NewIOManager 返回使用标准文件 IO 的 Opener
func NewIOManager(sectorSize int64) Opener {
	return func(fileName string) (IOManager, error) {
		return NewFileIOManager(fileName, sectorSize)
	}
}
