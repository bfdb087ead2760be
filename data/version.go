package data

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	"snaplog/fio"
)

const versionSize = 4

// ErrShortVersion 版本号文件内容不完整, 通常是写入过程中发生了崩溃
var ErrShortVersion = errors.New("version file is incomplete")

// ReadVersion 读取版本号文件中保存的版本号
// 文件不存在时返回的错误满足 os.IsNotExist
func ReadVersion(fileName string) (uint32, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, versionSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, ErrShortVersion
		}
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

// WriteVersion 持久化写入版本号, 返回时数据已经落盘
func WriteVersion(fileName string, version uint32) error {
	f, err := os.OpenFile(fileName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fio.DataFilePerm)
	if err != nil {
		return err
	}
	buf := make([]byte, versionSize)
	binary.BigEndian.PutUint32(buf, version)
	if _, err := f.Write(buf); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// NextVersion 计算下一个版本号, 回绕时跳过 0
func NextVersion(version uint32) uint32 {
	next := version + 1
	if next == 0 {
		next = 1
	}
	return next
}
