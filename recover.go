package snaplog

import (
	"bufio"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"snaplog/data"
)

// Recover 读取当前版本的快照, 再按顺序重放段文件中的所有完整记录, 返回最新的状态.
// 段文件末尾被撕裂的记录会被截断, 之后段文件处于可以追加的状态.
// 段文件主版本号不一致时返回 *FormatError
func (l *Log[S, U]) Recover() (S, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var state S
	if l.state == stateClosed {
		return state, ErrLogClosed
	}
	if l.segment != nil {
		_ = l.segment.Close()
		l.segment = nil
	}
	l.state = stateRecovering

	// 以磁盘上的版本号为准, 上一次快照可能在提交阶段失败
	version, err := l.loadVersion(false)
	if err != nil {
		return state, err
	}
	if version != l.version {
		l.logger.Info("switched to committed version", zap.Uint32("from", l.version), zap.Uint32("to", version))
		l.version = version
	}
	if err := l.removeStaleFiles(); err != nil {
		return state, err
	}

	state, snapshotSize, err := l.readSnapshot()
	if err != nil {
		return state, err
	}

	segment, err := data.OpenSegment(l.options.DirPath, l.version, l.open)
	segmentName := data.GetSegmentFileName(l.options.DirPath, l.version)
	if err != nil {
		return state, &IOError{Op: "open", Path: segmentName, Err: err}
	}

	var updateNum int
	major, minor, err := segment.ReadHeader()
	switch {
	case errors.Is(err, data.ErrShortHeader):
		// 文件头都不完整, 不可能包含任何记录
		l.logger.Warn("segment header incomplete, reinitializing", zap.String("file", segmentName))
		if err := segment.Init(); err != nil {
			_ = segment.Close()
			return state, &IOError{Op: "init", Path: segmentName, Err: err}
		}
	case err != nil:
		_ = segment.Close()
		return state, &IOError{Op: "read header", Path: segmentName, Err: err}
	case major != data.MajorVersion:
		_ = segment.Close()
		return state, &FormatError{Path: segmentName, Major: major, Minor: minor}
	default:
		// 恢复开始时记录文件长度, 不依赖缓冲区的可读字节数
		size, err := segment.IoManager.Size()
		if err != nil {
			_ = segment.Close()
			return state, &IOError{Op: "stat", Path: segmentName, Err: err}
		}
		consumed, count, err := segment.Replay(size, func(r io.Reader) error {
			update, err := l.handler.DecodeUpdate(r)
			if err != nil {
				return err
			}
			state, err = l.handler.Apply(update, state)
			return err
		})
		if err != nil {
			_ = segment.Close()
			return state, &IOError{Op: "replay", Path: segmentName, Err: err}
		}
		if consumed < size {
			l.logger.Warn("dropping torn segment tail",
				zap.String("file", segmentName),
				zap.Int64("offset", consumed),
				zap.Int64("dropped", size-consumed),
			)
		}
		if err := segment.Truncate(consumed); err != nil {
			_ = segment.Close()
			return state, &IOError{Op: "truncate", Path: segmentName, Err: err}
		}
		updateNum = count
	}

	l.segment = segment
	l.snapshotBytes = snapshotSize
	l.updateNum = uint64(updateNum)
	l.state = stateReady
	l.logger.Info("log recovered",
		zap.Uint32("version", l.version),
		zap.Int("updates", updateNum),
		zap.Int64("segmentSize", segment.WriteOff),
	)
	return state, nil
}

// 读取当前版本的快照文件
func (l *Log[S, U]) readSnapshot() (S, int64, error) {
	var state S
	fileName := data.GetSnapshotFileName(l.options.DirPath, l.version)
	f, err := os.Open(fileName)
	if err != nil {
		return state, 0, &IOError{Op: "open", Path: fileName, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return state, 0, &IOError{Op: "stat", Path: fileName, Err: err}
	}

	state, err = l.handler.Decode(data.NewBoundedReader(bufio.NewReader(f), info.Size()))
	if err != nil {
		return state, 0, &IOError{Op: "decode snapshot", Path: fileName, Err: err}
	}
	return state, info.Size(), nil
}
