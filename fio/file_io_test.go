package fio

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func destroyFile(name string) {
	if err := os.RemoveAll(name); err != nil {
		panic(err)
	}
}

func TestNewFileIOManager(t *testing.T) {
	path := filepath.Join(os.TempDir(), "snaplog-fio-0001.data")
	fio, err := NewFileIOManager(path, DefaultSectorSize)
	defer destroyFile(path)

	assert.Nil(t, err)
	assert.NotNil(t, fio)
	assert.Nil(t, fio.Close())
}

func TestFileIO_WriteRead(t *testing.T) {
	path := filepath.Join(os.TempDir(), "snaplog-fio-0002.data")
	fio, err := NewFileIOManager(path, DefaultSectorSize)
	require.Nil(t, err)
	defer destroyFile(path)
	defer fio.Close()

	n, err := fio.Write([]byte("key-a"))
	assert.Nil(t, err)
	assert.Equal(t, 5, n)
	n, err = fio.Write([]byte("snaplog"))
	assert.Nil(t, err)
	assert.Equal(t, 7, n)

	b := make([]byte, 5)
	n, err = fio.Read(b, 0)
	assert.Nil(t, err)
	assert.Equal(t, []byte("key-a"), b)

	b2 := make([]byte, 7)
	_, err = fio.Read(b2, 5)
	assert.Nil(t, err)
	assert.Equal(t, []byte("snaplog"), b2)

	size, err := fio.Size()
	assert.Nil(t, err)
	assert.Equal(t, int64(12), size)
}

func TestFileIO_SeekTruncate(t *testing.T) {
	path := filepath.Join(os.TempDir(), "snaplog-fio-0003.data")
	fio, err := NewFileIOManager(path, DefaultSectorSize)
	require.Nil(t, err)
	defer destroyFile(path)
	defer fio.Close()

	_, err = fio.Write([]byte("0123456789"))
	require.Nil(t, err)

	// 覆盖写中间位置
	off, err := fio.Seek(2, io.SeekStart)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), off)
	_, err = fio.Write([]byte("ab"))
	assert.Nil(t, err)

	assert.Nil(t, fio.Truncate(6))
	assert.Nil(t, fio.Sync())

	size, err := fio.Size()
	assert.Nil(t, err)
	assert.Equal(t, int64(6), size)

	b := make([]byte, 6)
	_, err = fio.Read(b, 0)
	assert.Nil(t, err)
	assert.Equal(t, []byte("01ab45"), b)
}

func TestSpansBoundary(t *testing.T) {
	assert.False(t, SpansBoundary(0, 512))
	assert.False(t, SpansBoundary(508, 512))
	assert.True(t, SpansBoundary(509, 512))
	assert.True(t, SpansBoundary(511, 512))
	assert.False(t, SpansBoundary(512, 512))
	assert.True(t, SpansBoundary(1023, 512))

	assert.False(t, SpansBoundary(12, 16))
	assert.True(t, SpansBoundary(13, 16))
}

func TestNewIOManager(t *testing.T) {
	path := filepath.Join(os.TempDir(), "snaplog-fio-0004.data")
	open := NewIOManager(16)
	ioManager, err := open(path)
	require.Nil(t, err)
	defer destroyFile(path)
	defer ioManager.Close()

	assert.True(t, ioManager.SpansBoundary(14))
	assert.False(t, ioManager.SpansBoundary(16))
}
