package snaplog

import (
	"errors"
	"fmt"

	"snaplog/data"
)

var (
	ErrDirPathIsEmpty     = errors.New("the log dir path is empty")
	ErrInvalidSectorSize  = errors.New("the sector size must be a power of two and at least 8")
	ErrHandlerIsNil       = errors.New("the log handler is nil")
	ErrDirectoryInUse     = errors.New("the log directory is used by another process")
	ErrDirectoryCorrupted = errors.New("the log directory maybe corrupted")
	ErrNotRecovered       = errors.New("the log must be recovered before use")
	ErrNeedsRecovery      = errors.New("the log must be recovered again after a failed operation")
	ErrLogClosed          = errors.New("the log is closed")
	ErrEmptyUpdate        = data.ErrEmptyRecord
	ErrUpdateTooLarge     = data.ErrRecordTooLarge

	// ErrIO 所有 *IOError 都满足 errors.Is(err, ErrIO)
	ErrIO = errors.New("log i/o failure")
	// ErrIncompatibleFormat 所有 *FormatError 都满足 errors.Is(err, ErrIncompatibleFormat)
	ErrIncompatibleFormat = errors.New("incompatible log format")
)

// IOError 读写日志目录或者调用编解码回调时发生的错误, 保留原始错误
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("snaplog: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// FormatError 段文件的主版本号和当前实现不一致, 不可重试
type FormatError struct {
	Path  string
	Major uint32
	Minor uint32
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("snaplog: %s has format version %d.%d, this build understands major version %d",
		e.Path, e.Major, e.Minor, data.MajorVersion)
}

func (e *FormatError) Is(target error) bool { return target == ErrIncompatibleFormat }
