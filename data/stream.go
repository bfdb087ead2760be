package data

import "io"

// BoundedReader 最多读取 n 个字节的只读流
// 预算用完之后返回 io.EOF, Close 不会关闭底层数据源
type BoundedReader struct {
	r         io.Reader
	remaining int64
}

func NewBoundedReader(r io.Reader, n int64) *BoundedReader {
	return &BoundedReader{r: r, remaining: n}
}

func (br *BoundedReader) Read(p []byte) (int, error) {
	if br.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > br.remaining {
		p = p[:br.remaining]
	}
	n, err := br.r.Read(p)
	br.remaining -= int64(n)
	if err == io.EOF && br.remaining > 0 {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// Remaining 还可以读取的字节数
func (br *BoundedReader) Remaining() int64 {
	return br.remaining
}

// Drain 丢弃剩余未读取的字节, 使底层数据源停在记录末尾
func (br *BoundedReader) Drain() error {
	if br.remaining <= 0 {
		return nil
	}
	n, err := io.CopyN(io.Discard, br.r, br.remaining)
	br.remaining -= n
	return err
}

func (br *BoundedReader) Close() error {
	return nil
}

// WriteThrough 直接写入底层文件的输出流, 统计写入字节数, Close 不会关闭底层文件
type WriteThrough struct {
	w       io.Writer
	written int64
}

func NewWriteThrough(w io.Writer) *WriteThrough {
	return &WriteThrough{w: w}
}

func (wt *WriteThrough) Write(p []byte) (int, error) {
	n, err := wt.w.Write(p)
	wt.written += int64(n)
	return n, err
}

// Written 已经写入的字节数
func (wt *WriteThrough) Written() int64 {
	return wt.written
}

func (wt *WriteThrough) Close() error {
	return nil
}
