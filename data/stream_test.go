package data

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundedReader_Read(t *testing.T) {
	src := strings.NewReader("hello-snaplog")
	br := NewBoundedReader(src, 5)

	b, err := io.ReadAll(br)
	assert.Nil(t, err)
	assert.Equal(t, "hello", string(b))
	assert.Equal(t, int64(0), br.Remaining())

	// 预算用完之后一直返回 EOF
	n, err := br.Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	// 底层数据源没有被多读
	rest, err := io.ReadAll(src)
	assert.Nil(t, err)
	assert.Equal(t, "-snaplog", string(rest))
}

func TestBoundedReader_ShortSource(t *testing.T) {
	br := NewBoundedReader(strings.NewReader("abc"), 10)
	_, err := io.ReadAll(br)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestBoundedReader_Drain(t *testing.T) {
	src := strings.NewReader("0123456789")
	br := NewBoundedReader(src, 6)

	b := make([]byte, 2)
	_, err := io.ReadFull(br, b)
	assert.Nil(t, err)
	assert.Equal(t, int64(4), br.Remaining())

	assert.Nil(t, br.Drain())
	assert.Equal(t, int64(0), br.Remaining())
	assert.Nil(t, br.Close())

	rest, _ := io.ReadAll(src)
	assert.Equal(t, "6789", string(rest))
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestWriteThrough(t *testing.T) {
	dst := &closeRecorder{}
	wt := NewWriteThrough(dst)

	_, err := wt.Write([]byte("abc"))
	assert.Nil(t, err)
	_, err = wt.Write([]byte("de"))
	assert.Nil(t, err)
	assert.Equal(t, int64(5), wt.Written())

	assert.Nil(t, wt.Close())
	assert.False(t, dst.closed)
	assert.Equal(t, "abcde", dst.String())
}
