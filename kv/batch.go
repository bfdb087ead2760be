package kv

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// WriteBatch 原子批量写数据, 整个批次编码为一条段文件记录
type WriteBatch struct {
	options       WriteBatchOptions
	mu            *sync.Mutex
	db            *DB
	pendingWrites map[string]*Op // 暂存用户写入的数据
}

// NewWriteBatch 初始化 WriteBatch
func (db *DB) NewWriteBatch(opts WriteBatchOptions) *WriteBatch {
	return &WriteBatch{
		options:       opts,
		mu:            new(sync.Mutex),
		db:            db,
		pendingWrites: make(map[string]*Op),
	}
}

// Put 批量写数据
func (wb *WriteBatch) Put(key []byte, value []byte) error {
	if len(key) == 0 {
		return ErrKeyIsEmpty
	}

	wb.mu.Lock()
	defer wb.mu.Unlock()

	wb.pendingWrites[string(key)] = &Op{Type: OpPut, Key: copyBytes(key), Value: copyBytes(value)}
	return nil
}

// Delete 删除数据
func (wb *WriteBatch) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrKeyIsEmpty
	}

	wb.mu.Lock()
	defer wb.mu.Unlock()

	// 数据不存在直接返回
	wb.db.mu.RLock()
	_, exists := wb.db.store.Get(key)
	wb.db.mu.RUnlock()
	if !exists {
		delete(wb.pendingWrites, string(key))
		return nil
	}

	wb.pendingWrites[string(key)] = &Op{Type: OpDelete, Key: copyBytes(key)}
	return nil
}

// Commit 提交数据, 全部操作作为一条更新写入段文件, 恢复时要么全部生效要么全部丢弃
func (wb *WriteBatch) Commit() error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	if len(wb.pendingWrites) == 0 {
		return nil
	}
	if uint(len(wb.pendingWrites)) > wb.options.MaxBatchNum {
		return ErrExceedMaxBatchNum
	}

	// 按 key 排序, 保证同样的批次编码结果一致
	keys := maps.Keys(wb.pendingWrites)
	slices.Sort(keys)
	ops := make([]*Op, 0, len(keys))
	for _, key := range keys {
		ops = append(ops, wb.pendingWrites[key])
	}

	wb.db.mu.Lock()
	defer wb.db.mu.Unlock()
	if err := wb.db.write(&Op{Type: OpBatch, Ops: ops}); err != nil {
		return err
	}

	// 清空缓存数据
	wb.pendingWrites = make(map[string]*Op)
	return nil
}
