package data

import (
	"encoding/binary"
	"errors"
)

const (
	// MajorVersion 段文件格式主版本号, 不一致时拒绝恢复
	MajorVersion uint32 = 0
	// MinorVersion 段文件格式次版本号, 不一致时仍可恢复
	MinorVersion uint32 = 2

	// HeaderSize 段文件头: major-4 minor-4
	HeaderSize = 8
	// RecordPrefixSize 记录的长度前缀
	RecordPrefixSize = 4

	// 长度前缀最高位, 置位表示写入尚未完成
	tornFlag uint32 = 1 << 31

	// MaxRecordSize 单条记录负载的最大长度
	MaxRecordSize = int64(tornFlag - 1)
)

var (
	ErrEmptyRecord    = errors.New("the update record is empty")
	ErrRecordTooLarge = errors.New("the update record exceeds the max record size")
)

// EncodeHeader 编码段文件头
func EncodeHeader(major, minor uint32) []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[:4], major)
	binary.BigEndian.PutUint32(buf[4:], minor)
	return buf
}

// DecodeHeader 解码段文件头
func DecodeHeader(buf []byte) (major uint32, minor uint32) {
	return binary.BigEndian.Uint32(buf[:4]), binary.BigEndian.Uint32(buf[4:HeaderSize])
}

// EncodePrefix 编码记录长度前缀, torn 为 true 时置位最高位
func EncodePrefix(length uint32, torn bool) []byte {
	if torn {
		length |= tornFlag
	}
	buf := make([]byte, RecordPrefixSize)
	binary.BigEndian.PutUint32(buf, length)
	return buf
}

// DecodePrefix 解码记录长度前缀
func DecodePrefix(buf []byte) (length uint32, torn bool) {
	v := binary.BigEndian.Uint32(buf)
	return v &^ tornFlag, v&tornFlag != 0
}
