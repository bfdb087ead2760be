package index

import (
	"bytes"
	"sort"
	"sync"

	goart "github.com/plar/go-adaptive-radix-tree"
)

// AdaptiveRadixTree 自适应基数树索引
// 主要封装了 https://github.com/plar/go-adaptive-radix-tree
type AdaptiveRadixTree struct {
	tree goart.Tree
	lock *sync.RWMutex
}

// NewART 初始化自适应基数树索引
func NewART() *AdaptiveRadixTree {
	return &AdaptiveRadixTree{
		tree: goart.New(),
		lock: new(sync.RWMutex),
	}
}

func (art *AdaptiveRadixTree) Put(key []byte, value []byte) []byte {
	art.lock.Lock()
	oldValue, _ := art.tree.Insert(key, value)
	art.lock.Unlock()
	if oldValue == nil {
		return nil
	}
	return oldValue.([]byte)
}

func (art *AdaptiveRadixTree) Get(key []byte) []byte {
	art.lock.RLock()
	defer art.lock.RUnlock()
	value, found := art.tree.Search(key)
	if !found {
		return nil
	}
	return value.([]byte)
}

func (art *AdaptiveRadixTree) Delete(key []byte) ([]byte, bool) {
	art.lock.Lock()
	oldValue, deleted := art.tree.Delete(key)
	art.lock.Unlock()
	if !deleted || oldValue == nil {
		return nil, deleted
	}
	return oldValue.([]byte), true
}

func (art *AdaptiveRadixTree) Size() int {
	art.lock.RLock()
	defer art.lock.RUnlock()
	return art.tree.Size()
}

func (art *AdaptiveRadixTree) Iterator(reverse bool) Iterator {
	art.lock.RLock()
	defer art.lock.RUnlock()

	values := make([]*Item, 0, art.tree.Size())
	art.tree.ForEach(func(node goart.Node) bool {
		values = append(values, &Item{key: node.Key(), value: node.Value().([]byte)})
		return true
	})
	// 保证按 key 的字节序遍历
	sort.Slice(values, func(i, j int) bool {
		cmp := bytes.Compare(values[i].key, values[j].key)
		if reverse {
			return cmp > 0
		}
		return cmp < 0
	})
	return &sliceIterator{reverse: reverse, values: values}
}
