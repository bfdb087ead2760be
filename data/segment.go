package data

import (
	"bufio"
	"errors"
	"io"

	"snaplog/fio"
)

// ErrShortHeader 段文件不足以容纳文件头
var ErrShortHeader = errors.New("segment file header is incomplete")

// Segment 段文件, 记录自上一次快照之后的所有更新
type Segment struct {
	Version   uint32        // 版本号
	WriteOff  int64         // 文件写到了哪个位置, 下一条记录从这里开始
	IoManager fio.IOManager // 数据读写接口
}

// OpenSegment 打开指定版本的段文件
func OpenSegment(dirPath string, version uint32, open fio.Opener) (*Segment, error) {
	ioManager, err := open(GetSegmentFileName(dirPath, version))
	if err != nil {
		return nil, err
	}
	return &Segment{Version: version, IoManager: ioManager}, nil
}

// Init 清空段文件并写入格式版本号
func (s *Segment) Init() error {
	if err := s.IoManager.Truncate(0); err != nil {
		return err
	}
	if _, err := s.IoManager.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := s.IoManager.Write(EncodeHeader(MajorVersion, MinorVersion)); err != nil {
		return err
	}
	if err := s.IoManager.Sync(); err != nil {
		return err
	}
	s.WriteOff = HeaderSize
	return nil
}

// ReadHeader 读取段文件头中的格式版本号
func (s *Segment) ReadHeader() (uint32, uint32, error) {
	buf := make([]byte, HeaderSize)
	n, err := s.IoManager.Read(buf, 0)
	if n < HeaderSize {
		if err == nil || err == io.EOF {
			err = ErrShortHeader
		}
		return 0, 0, err
	}
	major, minor := DecodeHeader(buf)
	return major, minor, nil
}

// Replay 按顺序读取段文件中的完整记录, 每条记录的负载通过有界流交给 fn
// size 是恢复开始时段文件的长度. 遇到不完整的长度前缀, 置位了最高位的前缀,
// 长度为 0 的前缀或者超出文件长度的记录时停止, 不返回错误.
// 返回已经消费的字节数(包括文件头)和记录条数
func (s *Segment) Replay(size int64, fn func(r io.Reader) error) (int64, int, error) {
	var offset int64 = HeaderSize
	var count int
	if size <= HeaderSize {
		return offset, count, nil
	}

	section := io.NewSectionReader(readerAt{s.IoManager}, HeaderSize, size-HeaderSize)
	reader := bufio.NewReader(section)
	prefix := make([]byte, RecordPrefixSize)
	for size-offset >= RecordPrefixSize {
		if _, err := io.ReadFull(reader, prefix); err != nil {
			return offset, count, err
		}
		length, torn := DecodePrefix(prefix)
		// 写入未完成或者前缀尚未确认
		if torn || length == 0 {
			break
		}
		// 负载不完整
		if int64(length) > size-offset-RecordPrefixSize {
			break
		}

		br := NewBoundedReader(reader, int64(length))
		if err := fn(br); err != nil {
			return offset, count, err
		}
		if err := br.Drain(); err != nil {
			return offset, count, err
		}
		offset += RecordPrefixSize + int64(length)
		count++
	}
	return offset, count, nil
}

// Append 在段文件末尾追加一条记录, encode 负责写入记录负载
// 长度前缀跨越扇区边界时分两步确认, 保证任意时刻崩溃后前缀都可以被正确解释
// 返回负载长度
func (s *Segment) Append(encode func(w io.Writer) error) (int64, error) {
	start := s.WriteOff
	spans := s.IoManager.SpansBoundary(start)

	if _, err := s.IoManager.Seek(start, io.SeekStart); err != nil {
		return 0, err
	}
	// 预留长度前缀
	if _, err := s.IoManager.Write(EncodePrefix(0, spans)); err != nil {
		return 0, err
	}
	if spans {
		if err := s.IoManager.Sync(); err != nil {
			return 0, err
		}
	}

	bw := bufio.NewWriter(s.IoManager)
	wt := NewWriteThrough(bw)
	if err := encode(wt); err != nil {
		return 0, err
	}
	if err := bw.Flush(); err != nil {
		return 0, err
	}
	length := wt.Written()
	if length == 0 {
		return 0, s.rollback(start, ErrEmptyRecord)
	}
	if length > MaxRecordSize {
		return 0, s.rollback(start, ErrRecordTooLarge)
	}
	if err := s.IoManager.Sync(); err != nil {
		return 0, err
	}

	// 回填真实长度
	if _, err := s.IoManager.Seek(start, io.SeekStart); err != nil {
		return 0, err
	}
	if spans {
		if _, err := s.IoManager.Write(EncodePrefix(uint32(length), true)); err != nil {
			return 0, err
		}
		if err := s.IoManager.Sync(); err != nil {
			return 0, err
		}
		// 单字节写入不会被撕裂, 只清除最高位所在的字节
		if _, err := s.IoManager.Seek(start, io.SeekStart); err != nil {
			return 0, err
		}
		if _, err := s.IoManager.Write([]byte{byte(length >> 24)}); err != nil {
			return 0, err
		}
	} else {
		if _, err := s.IoManager.Write(EncodePrefix(uint32(length), false)); err != nil {
			return 0, err
		}
	}
	if err := s.IoManager.Sync(); err != nil {
		return 0, err
	}

	end := start + RecordPrefixSize + length
	if _, err := s.IoManager.Seek(end, io.SeekStart); err != nil {
		return 0, err
	}
	s.WriteOff = end
	return length, nil
}

// Truncate 截断到 size 并定位到文件末尾
func (s *Segment) Truncate(size int64) error {
	if err := s.IoManager.Truncate(size); err != nil {
		return err
	}
	if err := s.IoManager.Sync(); err != nil {
		return err
	}
	if _, err := s.IoManager.Seek(size, io.SeekStart); err != nil {
		return err
	}
	s.WriteOff = size
	return nil
}

func (s *Segment) Sync() error {
	return s.IoManager.Sync()
}

func (s *Segment) Close() error {
	return s.IoManager.Close()
}

// 撤销预留的长度前缀, 返回 cause
func (s *Segment) rollback(start int64, cause error) error {
	if err := s.IoManager.Truncate(start); err != nil {
		return err
	}
	if _, err := s.IoManager.Seek(start, io.SeekStart); err != nil {
		return err
	}
	return cause
}

type readerAt struct {
	ioManager fio.IOManager
}

func (r readerAt) ReadAt(p []byte, off int64) (int, error) {
	return r.ioManager.Read(p, off)
}
