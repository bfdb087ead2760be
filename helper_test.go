package snaplog

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack"

	"snaplog/fio"
)

// 测试用的状态是 map[string]int, 更新是 put/remove 操作
type mapOp struct {
	Remove bool
	Key    string
	Val    int
}

func put(key string, val int) *mapOp { return &mapOp{Key: key, Val: val} }

func remove(key string) *mapOp { return &mapOp{Remove: true, Key: key} }

type mapHandler struct {
	initialErr error
	encodeErr  error
	// 编码更新时对该 key 什么都不写
	emptyKey string
}

func (h *mapHandler) Initial() (map[string]int, error) {
	if h.initialErr != nil {
		return nil, h.initialErr
	}
	return map[string]int{}, nil
}

func (h *mapHandler) Encode(w io.Writer, state map[string]int) error {
	return msgpack.NewEncoder(w).Encode(state)
}

func (h *mapHandler) Decode(r io.Reader) (map[string]int, error) {
	var state map[string]int
	if err := msgpack.NewDecoder(r).Decode(&state); err != nil {
		return nil, err
	}
	if state == nil {
		state = map[string]int{}
	}
	return state, nil
}

func (h *mapHandler) EncodeUpdate(w io.Writer, op *mapOp) error {
	if h.encodeErr != nil {
		return h.encodeErr
	}
	if h.emptyKey != "" && op.Key == h.emptyKey {
		return nil
	}
	return msgpack.NewEncoder(w).Encode(op)
}

func (h *mapHandler) DecodeUpdate(r io.Reader) (*mapOp, error) {
	op := new(mapOp)
	if err := msgpack.NewDecoder(r).Decode(op); err != nil {
		return nil, err
	}
	return op, nil
}

func (h *mapHandler) Apply(op *mapOp, state map[string]int) (map[string]int, error) {
	if op.Remove {
		delete(state, op.Key)
	} else {
		state[op.Key] = op.Val
	}
	return state, nil
}

type testLog = Log[map[string]int, *mapOp]

func newTestOptions(t *testing.T) Options {
	dir, err := os.MkdirTemp("", "snaplog")
	require.Nil(t, err)
	opts := DefaultOptions
	opts.DirPath = dir
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return opts
}

func openTestLog(t *testing.T, opts Options, h *mapHandler) *testLog {
	if h == nil {
		h = &mapHandler{}
	}
	l, err := Open[map[string]int, *mapOp](opts, h)
	require.Nil(t, err)
	require.NotNil(t, l)
	return l
}

func destroyLog(l *testLog) {
	if l != nil {
		_ = l.Close()
	}
}

var errInjected = errors.New("injected crash")

// faultIO 在指定次数的 Sync 成功之后模拟崩溃: 之后所有写入和 Sync 都失败
type faultIO struct {
	fio.IOManager
	armed       bool
	syncLimit   int
	syncs       int
	alwaysSpans bool
}

func (f *faultIO) arm(syncLimit int) {
	f.armed = true
	f.syncLimit = syncLimit
	f.syncs = 0
}

func (f *faultIO) crashed() bool {
	return f.armed && f.syncs >= f.syncLimit
}

func (f *faultIO) Write(b []byte) (int, error) {
	if f.crashed() {
		return 0, errInjected
	}
	return f.IOManager.Write(b)
}

func (f *faultIO) Truncate(size int64) error {
	if f.crashed() {
		return errInjected
	}
	return f.IOManager.Truncate(size)
}

func (f *faultIO) Sync() error {
	if f.crashed() {
		return errInjected
	}
	if f.armed {
		f.syncs++
	}
	return f.IOManager.Sync()
}

func (f *faultIO) SpansBoundary(offset int64) bool {
	if f.alwaysSpans {
		return true
	}
	return f.IOManager.SpansBoundary(offset)
}

// faultOpener 记录最近一次打开的段文件
type faultOpener struct {
	alwaysSpans bool
	// 新打开的段文件立即处于崩溃状态
	crashOnOpen bool
	last        *faultIO
}

func (o *faultOpener) open(fileName string) (fio.IOManager, error) {
	ioManager, err := fio.NewFileIOManager(fileName, fio.DefaultSectorSize)
	if err != nil {
		return nil, err
	}
	o.last = &faultIO{IOManager: ioManager, alwaysSpans: o.alwaysSpans}
	if o.crashOnOpen {
		o.last.arm(0)
	}
	return o.last, nil
}
