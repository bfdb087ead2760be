package kv

import "errors"

var (
	ErrKeyIsEmpty          = errors.New("the key is empty")
	ErrKeyNotFound         = errors.New("key not found in database")
	ErrUnknownOp           = errors.New("unknown update operation")
	ErrInvalidSnapInterval = errors.New("the snapshot interval must not be negative")
	ErrInvalidIndexType    = errors.New("unsupported index type")
	ErrExceedMaxBatchNum   = errors.New("exceed the max batch num")
)
