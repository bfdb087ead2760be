package fio

import "os"

// FileIO 标准系统文件 IO
type FileIO struct {
	fd         *os.File // 系统文件描述符
	sectorSize int64    // 扇区大小
}

// NewFileIOManager 初始化标准文件 IO
func NewFileIOManager(fileName string, sectorSize int64) (*FileIO, error) {
	if sectorSize <= 0 {
		sectorSize = DefaultSectorSize
	}
	fd, err := os.OpenFile(
		fileName,
		os.O_CREATE|os.O_RDWR,
		DataFilePerm,
	)
	if err != nil {
		return nil, err
	}
	return &FileIO{fd: fd, sectorSize: sectorSize}, nil
}

func (fio *FileIO) Read(b []byte, offset int64) (int, error) {
	return fio.fd.ReadAt(b, offset)
}

func (fio *FileIO) Write(b []byte) (int, error) {
	return fio.fd.Write(b)
}

func (fio *FileIO) Seek(offset int64, whence int) (int64, error) {
	return fio.fd.Seek(offset, whence)
}

func (fio *FileIO) Truncate(size int64) error {
	return fio.fd.Truncate(size)
}

func (fio *FileIO) Size() (int64, error) {
	stat, err := fio.fd.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

func (fio *FileIO) Sync() error {
	return fio.fd.Sync()
}

// SpansBoundary 4 字节的长度前缀从 offset 开始写入时是否跨越扇区边界
func (fio *FileIO) SpansBoundary(offset int64) bool {
	return SpansBoundary(offset, fio.sectorSize)
}

func (fio *FileIO) Close() error {
	return fio.fd.Close()
}

// SpansBoundary 判断 [offset, offset+4) 是否落在两个扇区上
func SpansBoundary(offset, sectorSize int64) bool {
	return offset%sectorSize > sectorSize-4
}
