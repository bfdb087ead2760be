package data

import (
	"path/filepath"
	"strconv"
	"strings"
)

const (
	VersionFileName    = "Version_Number"
	NewVersionFileName = "New_Version_Number"
	SnapshotFilePrefix = "Snapshot."
	SegmentFilePrefix  = "Logfile."
)

// FileKind 日志目录中按版本号命名的文件类型
type FileKind = byte

const (
	SnapshotFile FileKind = iota + 1
	SegmentFile
)

// GetSnapshotFileName 获取指定版本的快照文件路径
func GetSnapshotFileName(dirPath string, version uint32) string {
	return filepath.Join(dirPath, SnapshotFilePrefix+strconv.FormatUint(uint64(version), 10))
}

// GetSegmentFileName 获取指定版本的段文件路径
func GetSegmentFileName(dirPath string, version uint32) string {
	return filepath.Join(dirPath, SegmentFilePrefix+strconv.FormatUint(uint64(version), 10))
}

// ParseFileName 解析快照文件或段文件的文件名, 得到文件类型和版本号
func ParseFileName(name string) (FileKind, uint32, bool) {
	var kind FileKind
	var suffix string
	switch {
	case strings.HasPrefix(name, SnapshotFilePrefix):
		kind, suffix = SnapshotFile, strings.TrimPrefix(name, SnapshotFilePrefix)
	case strings.HasPrefix(name, SegmentFilePrefix):
		kind, suffix = SegmentFile, strings.TrimPrefix(name, SegmentFilePrefix)
	default:
		return 0, 0, false
	}
	version, err := strconv.ParseUint(suffix, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return kind, uint32(version), true
}
