package index

import (
	"sync"

	"github.com/google/btree"
)

// BTree 索引, 主要封装了 google 的 btree 库
// https://github.com/google/btree
type BTree struct {
	tree *btree.BTree
	lock *sync.RWMutex
}

// NewBTree 新建 BTree 索引结构
func NewBTree() *BTree {
	return &BTree{
		tree: btree.New(32),
		lock: new(sync.RWMutex),
	}
}

func (bt *BTree) Put(key []byte, value []byte) []byte {
	it := &Item{key: key, value: value}
	bt.lock.Lock()
	oldItem := bt.tree.ReplaceOrInsert(it)
	bt.lock.Unlock()
	if oldItem == nil {
		return nil
	}
	return oldItem.(*Item).value
}

func (bt *BTree) Get(key []byte) []byte {
	it := &Item{key: key}
	bt.lock.RLock()
	defer bt.lock.RUnlock()
	btreeItem := bt.tree.Get(it)
	if btreeItem == nil {
		return nil
	}
	return btreeItem.(*Item).value
}

func (bt *BTree) Delete(key []byte) ([]byte, bool) {
	it := &Item{key: key}
	bt.lock.Lock()
	oldItem := bt.tree.Delete(it)
	bt.lock.Unlock()
	if oldItem == nil {
		return nil, false
	}
	return oldItem.(*Item).value, true
}

func (bt *BTree) Size() int {
	bt.lock.RLock()
	defer bt.lock.RUnlock()
	return bt.tree.Len()
}

func (bt *BTree) Iterator(reverse bool) Iterator {
	bt.lock.RLock()
	defer bt.lock.RUnlock()

	var idx int
	values := make([]*Item, bt.tree.Len())
	// 将所有的数据存放到数组中
	saveValues := func(it btree.Item) bool {
		values[idx] = it.(*Item)
		idx++
		return true
	}
	if reverse {
		bt.tree.Descend(saveValues)
	} else {
		bt.tree.Ascend(saveValues)
	}
	return &sliceIterator{reverse: reverse, values: values}
}
