package kv

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"snaplog"
)

// DB 基于 snaplog 的 key/value 存储, 全部数据保存在内存索引中, 每次写入都持久化到段文件
type DB struct {
	options   Options
	mu        *sync.RWMutex
	log       *snaplog.Log[*Store, *Op]
	store     *Store // 内存状态
	logger    *zap.Logger
	sinceSnap int // 上一次快照之后的写入次数
}

// Stat 存储引擎统计信息
type Stat struct {
	KeyNum       uint   // key 总数量
	Version      uint32 // 日志版本号
	UpdateNum    uint64 // 上一次快照之后的更新次数
	SnapshotSize int64  // 快照文件大小
	LogSize      int64  // 段文件大小
	DiskSize     int64  // 占用磁盘空间的大小
}

// Open 打开存储引擎实例, 并从日志中恢复数据
func Open(options Options) (*DB, error) {
	if err := checkOptions(options); err != nil {
		return nil, err
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	l, err := snaplog.Open[*Store, *Op](snaplog.Options{
		DirPath:    options.DirPath,
		SectorSize: options.SectorSize,
		Logger:     logger,
	}, &handler{indexType: options.IndexType})
	if err != nil {
		return nil, err
	}
	store, err := l.Recover()
	if err != nil {
		_ = l.Close()
		return nil, err
	}

	return &DB{
		options: options,
		mu:      new(sync.RWMutex),
		log:     l,
		store:   store,
		logger:  logger,
	}, nil
}

// Close 关闭数据库
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.log.Close()
}

// Sync 立即生成快照, 段文件被清空
func (db *DB) Sync() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.snapshot()
}

// Stat 返回数据库的相关统计信息
func (db *DB) Stat() (*Stat, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	logStat, err := db.log.Stat()
	if err != nil {
		return nil, err
	}
	return &Stat{
		KeyNum:       uint(db.store.Len()),
		Version:      logStat.Version,
		UpdateNum:    logStat.UpdateNum,
		SnapshotSize: logStat.SnapshotSize,
		LogSize:      logStat.LogSize,
		DiskSize:     logStat.DiskSize,
	}, nil
}

// Put 写入 Key/Value 数据, key 不能为空
func (db *DB) Put(key []byte, value []byte) error {
	if len(key) == 0 {
		return ErrKeyIsEmpty
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.write(&Op{Type: OpPut, Key: copyBytes(key), Value: copyBytes(value)})
}

// Delete 根据 key 删除对应的数据
func (db *DB) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrKeyIsEmpty
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	// key 不存在直接返回
	if _, ok := db.store.Get(key); !ok {
		return nil
	}
	return db.write(&Op{Type: OpDelete, Key: copyBytes(key)})
}

// Get 根据 key 读取数据
func (db *DB) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrKeyIsEmpty
	}
	db.mu.RLock()
	defer db.mu.RUnlock()

	value, ok := db.store.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

// ListKeys 获取数据库中所有的 key
func (db *DB) ListKeys() [][]byte {
	db.mu.RLock()
	defer db.mu.RUnlock()

	iterator := db.store.Iterator(false)
	defer iterator.Close()
	keys := make([][]byte, 0, db.store.Len())
	for iterator.Rewind(); iterator.Valid(); iterator.Next() {
		keys = append(keys, iterator.Key())
	}
	return keys
}

// Fold 获取所有的数据, 并执行用户指定的操作, 函数返回 false 时终止遍历
func (db *DB) Fold(fn func(key []byte, value []byte) bool) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	iterator := db.store.Iterator(false)
	defer iterator.Close()
	for iterator.Rewind(); iterator.Valid(); iterator.Next() {
		if !fn(iterator.Key(), iterator.Value()) {
			break
		}
	}
	return nil
}

// 先写日志再更新内存状态, 调用前必须持有互斥锁
func (db *DB) write(op *Op) error {
	if err := db.log.Update(op); err != nil {
		if errors.Is(err, snaplog.ErrIO) {
			db.reload()
		}
		return err
	}
	if err := db.store.apply(op); err != nil {
		return err
	}

	db.sinceSnap++
	if db.options.SnapshotInterval > 0 && db.sinceSnap >= db.options.SnapshotInterval {
		return db.snapshot()
	}
	return nil
}

func (db *DB) snapshot() error {
	if err := db.log.Snapshot(db.store); err != nil {
		if errors.Is(err, snaplog.ErrIO) {
			db.reload()
		}
		return err
	}
	db.sinceSnap = 0
	return nil
}

// 写入失败之后从磁盘重新恢复, 保证内存状态和日志一致
func (db *DB) reload() {
	store, err := db.log.Recover()
	if err != nil {
		db.logger.Error("failed to recover after write failure", zap.Error(err))
		return
	}
	db.store = store
	db.sinceSnap = 0
	db.logger.Warn("reloaded state after write failure", zap.Int("keys", store.Len()))
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
