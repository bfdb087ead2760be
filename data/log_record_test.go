package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeHeader(t *testing.T) {
	buf := EncodeHeader(MajorVersion, MinorVersion)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 2}, buf)

	major, minor := DecodeHeader(buf)
	assert.Equal(t, uint32(0), major)
	assert.Equal(t, uint32(2), minor)
}

func TestEncodePrefix(t *testing.T) {
	// 正常情况
	assert.Equal(t, []byte{0, 0, 1, 2}, EncodePrefix(258, false))
	length, torn := DecodePrefix([]byte{0, 0, 1, 2})
	assert.Equal(t, uint32(258), length)
	assert.False(t, torn)

	// 写入未完成
	buf := EncodePrefix(258, true)
	assert.Equal(t, []byte{0x80, 0, 1, 2}, buf)
	length, torn = DecodePrefix(buf)
	assert.Equal(t, uint32(258), length)
	assert.True(t, torn)

	// 预留的前缀
	length, torn = DecodePrefix(EncodePrefix(0, true))
	assert.Equal(t, uint32(0), length)
	assert.True(t, torn)
}
