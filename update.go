package snaplog

import (
	"errors"
	"io"
	"time"

	"snaplog/data"
)

// Update 把一次更新持久化地追加到段文件中, 返回时记录已经落盘.
// 必须先调用 Recover. 发生 I/O 错误之后实例需要重新 Recover 才能继续写入
func (l *Log[S, U]) Update(update U) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkWritable(); err != nil {
		return err
	}

	_, err := l.segment.Append(func(w io.Writer) error {
		return l.handler.EncodeUpdate(w, update)
	})
	if err != nil {
		// 空记录和超长记录已经回滚, 段文件仍然可用
		if errors.Is(err, data.ErrEmptyRecord) || errors.Is(err, data.ErrRecordTooLarge) {
			return err
		}
		l.state = stateBroken
		return &IOError{Op: "update", Path: data.GetSegmentFileName(l.options.DirPath, l.version), Err: err}
	}

	l.updateNum++
	l.lastUpdate = time.Now()
	return nil
}
