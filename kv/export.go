package kv

import (
	"time"

	"go.etcd.io/bbolt"

	"snaplog/fio"
)

var exportBucketName = []byte("snaplog-kv")

// ExportBolt 把当前所有数据写入 bbolt 数据库文件的 snaplog-kv bucket 中
// 主要封装了 go.etcd.io/bbolt
func (db *DB) ExportBolt(path string) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	opts := *bbolt.DefaultOptions
	opts.Timeout = time.Second
	boltDB, err := bbolt.Open(path, fio.DataFilePerm, &opts)
	if err != nil {
		return 0, err
	}
	defer boltDB.Close()

	var count int
	err = boltDB.Update(func(tx *bbolt.Tx) error {
		// 重新创建 bucket, 清理上一次导出的数据
		if tx.Bucket(exportBucketName) != nil {
			if err := tx.DeleteBucket(exportBucketName); err != nil {
				return err
			}
		}
		bucket, err := tx.CreateBucket(exportBucketName)
		if err != nil {
			return err
		}
		iterator := db.store.Iterator(false)
		defer iterator.Close()
		for iterator.Rewind(); iterator.Valid(); iterator.Next() {
			if err := bucket.Put(iterator.Key(), iterator.Value()); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
