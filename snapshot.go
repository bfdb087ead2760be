package snaplog

import (
	"bufio"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"snaplog/data"
	"snaplog/fio"
	"snaplog/utils"
)

// Snapshot 用给定的状态生成新版本的快照和空的段文件, 并原子地切换到新版本.
// 必须先调用 Recover
func (l *Log[S, U]) Snapshot(state S) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkWritable(); err != nil {
		return err
	}
	if err := l.snapshot(state); err != nil {
		l.state = stateBroken
		return err
	}
	return nil
}

// 调用前必须持有互斥锁(或者处于 Open 过程中)
func (l *Log[S, U]) snapshot(state S) error {
	dirPath := l.options.DirPath
	next := data.NextVersion(l.version)

	// 写入新版本的快照
	snapshotName := data.GetSnapshotFileName(dirPath, next)
	snapshotSize, err := l.writeSnapshot(snapshotName, state)
	if err != nil {
		return err
	}

	// 新版本的段文件, 只包含文件头
	segment, err := data.OpenSegment(dirPath, next, l.open)
	segmentName := data.GetSegmentFileName(dirPath, next)
	if err != nil {
		return &IOError{Op: "open", Path: segmentName, Err: err}
	}
	if err := segment.Init(); err != nil {
		_ = segment.Close()
		return &IOError{Op: "init", Path: segmentName, Err: err}
	}

	// 先写新版本号, 再切换已提交的版本号
	pending := filepath.Join(dirPath, data.NewVersionFileName)
	if err := data.WriteVersion(pending, next); err != nil {
		_ = segment.Close()
		return &IOError{Op: "write version", Path: pending, Err: err}
	}
	if err := utils.SyncDir(dirPath); err != nil {
		_ = segment.Close()
		return &IOError{Op: "sync", Path: dirPath, Err: err}
	}

	// 新版本号落盘之后切换就已经确定, 即使后续步骤失败也只能前进
	prevVersion, prevSegment := l.version, l.segment
	l.version = next
	l.segment = segment
	l.snapshotBytes = snapshotSize
	l.updateNum = 0
	l.lastSnapshot = time.Now()
	if prevSegment != nil {
		if err := prevSegment.Close(); err != nil {
			l.logger.Warn("failed to close previous segment", zap.Error(err))
		}
	}

	if err := l.commitVersion(next); err != nil {
		return err
	}

	// 删除旧版本的文件
	if prevVersion != 0 {
		for _, name := range []string{
			data.GetSnapshotFileName(dirPath, prevVersion),
			data.GetSegmentFileName(dirPath, prevVersion),
		} {
			if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
				return &IOError{Op: "remove", Path: name, Err: err}
			}
		}
		if err := utils.SyncDir(dirPath); err != nil {
			return &IOError{Op: "sync", Path: dirPath, Err: err}
		}
	}

	l.logger.Info("snapshot committed",
		zap.Uint32("version", next),
		zap.Int64("snapshotSize", snapshotSize),
	)
	return nil
}

// 写入快照文件并落盘, 返回文件大小
func (l *Log[S, U]) writeSnapshot(fileName string, state S) (int64, error) {
	f, err := os.OpenFile(fileName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fio.DataFilePerm)
	if err != nil {
		return 0, &IOError{Op: "create", Path: fileName, Err: err}
	}

	bw := bufio.NewWriter(f)
	wt := data.NewWriteThrough(bw)
	if err := l.handler.Encode(wt, state); err != nil {
		_ = f.Close()
		return 0, &IOError{Op: "encode snapshot", Path: fileName, Err: err}
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return 0, &IOError{Op: "write", Path: fileName, Err: err}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return 0, &IOError{Op: "sync", Path: fileName, Err: err}
	}
	if err := f.Close(); err != nil {
		return 0, &IOError{Op: "close", Path: fileName, Err: err}
	}
	return wt.Written(), nil
}
