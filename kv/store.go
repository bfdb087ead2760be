package kv

import (
	"io"

	"github.com/vmihailenco/msgpack"

	"snaplog/index"
)

type OpType = byte

const (
	OpPut OpType = iota + 1
	OpDelete
	OpBatch // 一组按顺序应用的 put/delete, 作为一条记录写入
)

// Op 写入段文件的一次更新
type Op struct {
	Type  OpType `msgpack:"t"`
	Key   []byte `msgpack:"k"`
	Value []byte `msgpack:"v,omitempty"`
	Ops   []*Op  `msgpack:"o,omitempty"`
}

// Store 日志恢复出的内存状态, 有序的 key/value 集合
type Store struct {
	index index.Indexer
}

func NewStore(typ index.IndexType) *Store {
	return &Store{index: index.NewIndexer(typ)}
}

func (s *Store) Get(key []byte) ([]byte, bool) {
	value := s.index.Get(key)
	return value, value != nil
}

func (s *Store) Len() int {
	return s.index.Size()
}

// Iterator 按 key 有序遍历
func (s *Store) Iterator(reverse bool) index.Iterator {
	return s.index.Iterator(reverse)
}

func (s *Store) apply(op *Op) error {
	switch op.Type {
	case OpPut:
		value := op.Value
		// nil 表示 key 不存在
		if value == nil {
			value = []byte{}
		}
		s.index.Put(op.Key, value)
	case OpDelete:
		s.index.Delete(op.Key)
	case OpBatch:
		for _, sub := range op.Ops {
			if sub.Type == OpBatch {
				return ErrUnknownOp
			}
			if err := s.apply(sub); err != nil {
				return err
			}
		}
	default:
		return ErrUnknownOp
	}
	return nil
}

// handler 实现 snaplog.Handler, 快照格式为 msgpack map, 更新为 msgpack 编码的 Op
type handler struct {
	indexType index.IndexType
}

func (h *handler) Initial() (*Store, error) {
	return NewStore(h.indexType), nil
}

func (h *handler) Encode(w io.Writer, store *Store) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.EncodeMapLen(store.Len()); err != nil {
		return err
	}
	iter := store.Iterator(false)
	defer iter.Close()
	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := enc.EncodeBytes(iter.Key()); err != nil {
			return err
		}
		if err := enc.EncodeBytes(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func (h *handler) Decode(r io.Reader) (*Store, error) {
	dec := msgpack.NewDecoder(r)
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	store := NewStore(h.indexType)
	for i := 0; i < n; i++ {
		key, err := dec.DecodeBytes()
		if err != nil {
			return nil, err
		}
		value, err := dec.DecodeBytes()
		if err != nil {
			return nil, err
		}
		if err := store.apply(&Op{Type: OpPut, Key: key, Value: value}); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (h *handler) EncodeUpdate(w io.Writer, op *Op) error {
	return msgpack.NewEncoder(w).Encode(op)
}

func (h *handler) DecodeUpdate(r io.Reader) (*Op, error) {
	op := new(Op)
	if err := msgpack.NewDecoder(r).Decode(op); err != nil {
		return nil, err
	}
	return op, nil
}

func (h *handler) Apply(op *Op, store *Store) (*Store, error) {
	if err := store.apply(op); err != nil {
		return nil, err
	}
	return store, nil
}
