package data

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snaplog/fio"
)

func openTestSegment(t *testing.T, sectorSize int64) (*Segment, string) {
	dir := t.TempDir()
	seg, err := OpenSegment(dir, 1, fio.NewIOManager(sectorSize))
	require.Nil(t, err)
	require.Nil(t, seg.Init())
	t.Cleanup(func() { _ = seg.Close() })
	return seg, dir
}

func writePayload(p string) func(w io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, p)
		return err
	}
}

func replayAll(t *testing.T, seg *Segment) ([]string, int64) {
	size, err := seg.IoManager.Size()
	require.Nil(t, err)
	var payloads []string
	consumed, count, err := seg.Replay(size, func(r io.Reader) error {
		b, err := io.ReadAll(r)
		payloads = append(payloads, string(b))
		return err
	})
	require.Nil(t, err)
	assert.Equal(t, len(payloads), count)
	return payloads, consumed
}

func TestSegment_Init(t *testing.T) {
	seg, dir := openTestSegment(t, fio.DefaultSectorSize)
	assert.Equal(t, int64(HeaderSize), seg.WriteOff)

	major, minor, err := seg.ReadHeader()
	assert.Nil(t, err)
	assert.Equal(t, MajorVersion, major)
	assert.Equal(t, MinorVersion, minor)

	b, err := os.ReadFile(GetSegmentFileName(dir, 1))
	assert.Nil(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 2}, b)
}

func TestSegment_ReadHeader_Short(t *testing.T) {
	dir := t.TempDir()
	seg, err := OpenSegment(dir, 3, fio.NewIOManager(fio.DefaultSectorSize))
	require.Nil(t, err)
	defer seg.Close()

	_, _, err = seg.ReadHeader()
	assert.Equal(t, ErrShortHeader, err)

	_, err = seg.IoManager.Write([]byte{0, 0, 0})
	require.Nil(t, err)
	_, _, err = seg.ReadHeader()
	assert.Equal(t, ErrShortHeader, err)
}

func TestSegment_AppendReplay(t *testing.T) {
	seg, dir := openTestSegment(t, fio.DefaultSectorSize)

	n, err := seg.Append(writePayload("put-a"))
	assert.Nil(t, err)
	assert.Equal(t, int64(5), n)
	n, err = seg.Append(writePayload("put-bb"))
	assert.Nil(t, err)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, int64(HeaderSize+4+5+4+6), seg.WriteOff)

	b, err := os.ReadFile(GetSegmentFileName(dir, 1))
	require.Nil(t, err)
	assert.Equal(t, []byte{0, 0, 0, 5}, b[8:12])
	assert.Equal(t, "put-a", string(b[12:17]))

	payloads, consumed := replayAll(t, seg)
	assert.Equal(t, []string{"put-a", "put-bb"}, payloads)
	assert.Equal(t, seg.WriteOff, consumed)
}

func TestSegment_AppendSpansBoundary(t *testing.T) {
	// 扇区为 16 字节时很多前缀都会跨越边界
	seg, _ := openTestSegment(t, 16)

	var want []string
	for _, p := range []string{"a", "bcd", "efghij", "k", "lmnopqrstuvw", "xy"} {
		spans := seg.IoManager.SpansBoundary(seg.WriteOff)
		start := seg.WriteOff
		_, err := seg.Append(writePayload(p))
		require.Nil(t, err)
		want = append(want, p)

		// 最终的前缀最高位一定被清除
		prefix := make([]byte, RecordPrefixSize)
		_, err = seg.IoManager.Read(prefix, start)
		require.Nil(t, err)
		length, torn := DecodePrefix(prefix)
		assert.False(t, torn, "spans=%v", spans)
		assert.Equal(t, uint32(len(p)), length)
	}

	payloads, _ := replayAll(t, seg)
	assert.Equal(t, want, payloads)
}

func TestSegment_AppendEmpty(t *testing.T) {
	seg, _ := openTestSegment(t, fio.DefaultSectorSize)

	_, err := seg.Append(writePayload("x"))
	require.Nil(t, err)
	before := seg.WriteOff

	_, err = seg.Append(func(w io.Writer) error { return nil })
	assert.Equal(t, ErrEmptyRecord, err)
	assert.Equal(t, before, seg.WriteOff)

	size, err := seg.IoManager.Size()
	assert.Nil(t, err)
	assert.Equal(t, before, size)

	// 之后的追加不受影响
	_, err = seg.Append(writePayload("y"))
	assert.Nil(t, err)
	payloads, _ := replayAll(t, seg)
	assert.Equal(t, []string{"x", "y"}, payloads)
}

func TestSegment_ReplayTorn(t *testing.T) {
	seg, _ := openTestSegment(t, fio.DefaultSectorSize)
	_, err := seg.Append(writePayload("first"))
	require.Nil(t, err)
	second := seg.WriteOff
	_, err = seg.Append(writePayload("second"))
	require.Nil(t, err)

	// 前缀最高位置位, 视为未完成的写入
	_, err = seg.IoManager.Seek(second, io.SeekStart)
	require.Nil(t, err)
	_, err = seg.IoManager.Write(EncodePrefix(6, true))
	require.Nil(t, err)

	payloads, consumed := replayAll(t, seg)
	assert.Equal(t, []string{"first"}, payloads)
	assert.Equal(t, second, consumed)
}

func TestSegment_ReplayTruncated(t *testing.T) {
	seg, _ := openTestSegment(t, fio.DefaultSectorSize)
	_, err := seg.Append(writePayload("first"))
	require.Nil(t, err)
	second := seg.WriteOff
	_, err = seg.Append(writePayload("second"))
	require.Nil(t, err)
	end := seg.WriteOff

	for cut := second; cut < end; cut++ {
		payloads, consumed := func() ([]string, int64) {
			var payloads []string
			consumed, _, err := seg.Replay(cut, func(r io.Reader) error {
				b, err := io.ReadAll(r)
				payloads = append(payloads, string(b))
				return err
			})
			require.Nil(t, err)
			return payloads, consumed
		}()
		assert.Equal(t, []string{"first"}, payloads, "cut=%d", cut)
		assert.Equal(t, second, consumed, "cut=%d", cut)
	}
}

func TestSegment_ReplayPartialDecode(t *testing.T) {
	seg, _ := openTestSegment(t, fio.DefaultSectorSize)
	_, err := seg.Append(writePayload("abcdef"))
	require.Nil(t, err)
	_, err = seg.Append(writePayload("ghi"))
	require.Nil(t, err)

	// 解码只读取部分负载, 下一条记录仍然对齐
	size, _ := seg.IoManager.Size()
	var heads []string
	_, count, err := seg.Replay(size, func(r io.Reader) error {
		b := make([]byte, 2)
		_, err := io.ReadFull(r, b)
		heads = append(heads, string(b))
		return err
	})
	assert.Nil(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"ab", "gh"}, heads)
}

func TestSegment_Truncate(t *testing.T) {
	seg, _ := openTestSegment(t, fio.DefaultSectorSize)
	_, err := seg.Append(writePayload("first"))
	require.Nil(t, err)
	mid := seg.WriteOff
	_, err = seg.Append(writePayload("second"))
	require.Nil(t, err)

	assert.Nil(t, seg.Truncate(mid))
	assert.Equal(t, mid, seg.WriteOff)
	size, err := seg.IoManager.Size()
	assert.Nil(t, err)
	assert.Equal(t, mid, size)

	_, err = seg.Append(writePayload("third"))
	assert.Nil(t, err)
	payloads, _ := replayAll(t, seg)
	assert.Equal(t, []string{"first", "third"}, payloads)
}
