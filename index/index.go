package index

import (
	"bytes"

	"github.com/google/btree"
)

// Indexer 抽象内存索引接口, kv 状态保存在这里, 后续接入其他数据结构, 直接实现这个接口即可
type Indexer interface {
	// Put 向索引中存入 key 对应的 value, 返回旧的 value
	Put(key []byte, value []byte) []byte

	// Get 根据 key 取出对应的 value
	Get(key []byte) []byte

	// Delete 根据 key 删除对应的 value, 返回旧的 value
	Delete(key []byte) ([]byte, bool)

	// Size 索引中的数据量
	Size() int

	// Iterator 索引迭代器
	Iterator(reverse bool) Iterator
}

type IndexType = int8

const (
	// Btree 索引
	Btree IndexType = iota + 1

	// ART Adaptive Radix Tree 自适应基数树索引
	ART
)

// NewIndexer 根据类型初始化索引
func NewIndexer(typ IndexType) Indexer {
	switch typ {
	case Btree:
		return NewBTree()
	case ART:
		return NewART()
	default:
		panic("unsupported index type")
	}
}

type Item struct {
	key   []byte
	value []byte
}

// Less 自定义 btree 中 key 的比较方法(排序规则)
func (ai *Item) Less(bi btree.Item) bool {
	return bytes.Compare(ai.key, bi.(*Item).key) == -1
}

// Iterator 通用索引迭代器
type Iterator interface {
	// Rewind 重新回到迭代器的起点, 即第一个数据
	Rewind()

	// Seek 根据传入的 key 查找到第一个大于(或小于)等于的目标 key, 从这个 key 开始遍历
	Seek(key []byte)

	// Next 跳转到下一个 key
	Next()

	// Valid 是否有效, 即是否已经遍历完了所有的 key, 用于退出遍历
	Valid() bool

	// Key 当前遍历位置的 key 数据
	Key() []byte

	// Value 当前遍历位置的 value 数据
	Value() []byte

	// Close 关闭迭代器, 释放相应资源
	Close()
}

// 基于有序快照的迭代器, btree 和 art 共用
type sliceIterator struct {
	currIndex int     // 当前遍历的下标位置
	reverse   bool    // 是否是反向遍历
	values    []*Item // key+value
}

func (si *sliceIterator) Rewind() {
	si.currIndex = 0
}

func (si *sliceIterator) Seek(key []byte) {
	si.currIndex = len(si.values)
	for i, item := range si.values {
		cmp := bytes.Compare(item.key, key)
		if (si.reverse && cmp <= 0) || (!si.reverse && cmp >= 0) {
			si.currIndex = i
			return
		}
	}
}

func (si *sliceIterator) Next() {
	si.currIndex += 1
}

func (si *sliceIterator) Valid() bool {
	return si.currIndex < len(si.values)
}

func (si *sliceIterator) Key() []byte {
	return si.values[si.currIndex].key
}

func (si *sliceIterator) Value() []byte {
	return si.values[si.currIndex].value
}

func (si *sliceIterator) Close() {
	si.values = nil
}
