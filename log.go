package snaplog

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"snaplog/data"
	"snaplog/fio"
	"snaplog/utils"
)

const fileLockName = "flock"

type logState uint8

const (
	stateRecovering logState = iota // 已打开, 等待 Recover
	stateReady                      // 可以接收 Update 和 Snapshot
	stateBroken                     // 写入失败, 需要重新 Recover
	stateClosed
)

// Log 可崩溃恢复的日志实例, 由一个快照文件和一个段文件组成
type Log[S, U any] struct {
	options  Options
	handler  Handler[S, U]
	open     fio.Opener
	logger   *zap.Logger
	mu       *sync.Mutex
	fileLock *flock.Flock // 文件锁, 保证同一目录只被一个进程使用

	state         logState
	version       uint32        // 当前已提交的版本号
	segment       *data.Segment // 当前版本的段文件, Recover 之后才可以写入
	snapshotBytes int64         // 当前快照文件的大小
	updateNum     uint64        // 上一次快照之后的更新次数
	lastSnapshot  time.Time
	lastUpdate    time.Time
}

// Stat 日志统计信息
type Stat struct {
	Version      uint32    // 当前版本号
	SnapshotSize int64     // 快照文件大小
	LogSize      int64     // 段文件大小, 包括文件头
	UpdateNum    uint64    // 上一次快照之后的更新次数
	LastSnapshot time.Time // 上一次快照的时间, 本次进程内没有快照时为零值
	LastUpdate   time.Time // 上一次更新的时间
	DiskSize     int64     // 日志目录占用的磁盘空间
}

// Open 打开日志目录, 确定已提交的版本号
// 第一次打开时调用 Handler.Initial 并立即生成版本 1 的快照.
// 返回的实例必须先调用 Recover 才能写入
func Open[S, U any](options Options, handler Handler[S, U]) (*Log[S, U], error) {
	if err := checkOptions(options); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, ErrHandlerIsNil
	}

	if _, err := os.Stat(options.DirPath); os.IsNotExist(err) {
		if err := os.MkdirAll(options.DirPath, os.ModePerm); err != nil {
			return nil, &IOError{Op: "mkdir", Path: options.DirPath, Err: err}
		}
	}

	// 判断是否正在使用
	fileLock := flock.New(filepath.Join(options.DirPath, fileLockName))
	hold, err := fileLock.TryLock()
	if err != nil {
		return nil, &IOError{Op: "lock", Path: options.DirPath, Err: err}
	}
	if !hold {
		return nil, ErrDirectoryInUse
	}

	l := &Log[S, U]{
		options:  options,
		handler:  handler,
		open:     options.Opener,
		logger:   options.Logger,
		mu:       new(sync.Mutex),
		fileLock: fileLock,
		state:    stateRecovering,
	}
	if l.open == nil {
		l.open = fio.NewIOManager(options.SectorSize)
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	l.logger = l.logger.With(zap.String("dir", options.DirPath))

	if err := l.load(); err != nil {
		if l.segment != nil {
			_ = l.segment.Close()
		}
		_ = fileLock.Unlock()
		return nil, err
	}
	return l, nil
}

// Close 关闭段文件并释放目录锁, 可以重复调用
func (l *Log[S, U]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == stateClosed {
		return nil
	}
	l.state = stateClosed

	var err error
	if l.segment != nil {
		err = multierr.Append(err, l.segment.Close())
		l.segment = nil
	}
	err = multierr.Append(err, l.fileLock.Unlock())
	l.logger.Debug("log closed", zap.Uint32("version", l.version))
	return err
}

// Stat 返回日志的统计信息
func (l *Log[S, U]) Stat() (*Stat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == stateClosed {
		return nil, ErrLogClosed
	}

	dirSize, err := utils.DirSize(l.options.DirPath)
	if err != nil {
		return nil, &IOError{Op: "stat", Path: l.options.DirPath, Err: err}
	}

	var logSize int64
	if l.segment != nil {
		logSize = l.segment.WriteOff
	} else if info, err := os.Stat(data.GetSegmentFileName(l.options.DirPath, l.version)); err == nil {
		logSize = info.Size()
	}

	return &Stat{
		Version:      l.version,
		SnapshotSize: l.snapshotBytes,
		LogSize:      logSize,
		UpdateNum:    l.updateNum,
		LastSnapshot: l.lastSnapshot,
		LastUpdate:   l.lastUpdate,
		DiskSize:     dirSize,
	}, nil
}

// 确定版本号, 必要时生成初始快照, 清理残留文件
func (l *Log[S, U]) load() error {
	version, err := l.loadVersion(true)
	if err != nil {
		return err
	}
	l.version = version

	if version == 0 {
		initial, err := l.handler.Initial()
		if err != nil {
			return &IOError{Op: "initial state", Path: l.options.DirPath, Err: err}
		}
		if err := l.snapshot(initial); err != nil {
			return err
		}
		l.logger.Info("log directory initialized", zap.Uint32("version", l.version))
	} else if info, err := os.Stat(data.GetSnapshotFileName(l.options.DirPath, version)); err == nil {
		l.snapshotBytes = info.Size()
	}

	return l.removeStaleFiles()
}

// 读取已提交的版本号
// 新版本号文件存在时说明上一次快照在切换版本的过程中中断了, 先完成提交.
// initialize 为 false 时目录必须已经初始化过, 已提交版本号缺失或不完整都视为损坏
func (l *Log[S, U]) loadVersion(initialize bool) (uint32, error) {
	pending := filepath.Join(l.options.DirPath, data.NewVersionFileName)
	committed := filepath.Join(l.options.DirPath, data.VersionFileName)

	version, err := data.ReadVersion(pending)
	switch {
	case err == nil:
		if err := l.commitVersion(version); err != nil {
			return 0, err
		}
		l.logger.Info("completed pending version commit", zap.Uint32("version", version))
		return version, nil
	case errors.Is(err, data.ErrShortVersion):
		// 新版本号没有写完整, 快照还没有进入提交阶段
		l.logger.Warn("discarding incomplete pending version file")
		if err := os.Remove(pending); err != nil {
			return 0, &IOError{Op: "remove", Path: pending, Err: err}
		}
	case !os.IsNotExist(err):
		return 0, &IOError{Op: "read version", Path: pending, Err: err}
	}

	version, err = data.ReadVersion(committed)
	if !initialize && (err == nil && version == 0 || os.IsNotExist(err) || errors.Is(err, data.ErrShortVersion)) {
		return 0, ErrDirectoryCorrupted
	}
	switch {
	case err == nil:
		return version, nil
	case os.IsNotExist(err):
	case errors.Is(err, data.ErrShortVersion):
		// 只有写入初始版本号时崩溃才会出现, 此时不应该有任何快照
		hasFiles, err := l.hasVersionedFiles()
		if err != nil {
			return 0, err
		}
		if hasFiles {
			return 0, ErrDirectoryCorrupted
		}
		l.logger.Warn("rewriting incomplete version file")
	default:
		return 0, &IOError{Op: "read version", Path: committed, Err: err}
	}

	if err := data.WriteVersion(committed, 0); err != nil {
		return 0, &IOError{Op: "write version", Path: committed, Err: err}
	}
	if err := utils.SyncDir(l.options.DirPath); err != nil {
		return 0, &IOError{Op: "sync", Path: l.options.DirPath, Err: err}
	}
	return 0, nil
}

// 两阶段提交的第二阶段: 写入已提交版本号, 删除新版本号文件
func (l *Log[S, U]) commitVersion(version uint32) error {
	pending := filepath.Join(l.options.DirPath, data.NewVersionFileName)
	committed := filepath.Join(l.options.DirPath, data.VersionFileName)

	if err := data.WriteVersion(committed, version); err != nil {
		return &IOError{Op: "write version", Path: committed, Err: err}
	}
	if err := os.Remove(pending); err != nil {
		return &IOError{Op: "remove", Path: pending, Err: err}
	}
	if err := utils.SyncDir(l.options.DirPath); err != nil {
		return &IOError{Op: "sync", Path: l.options.DirPath, Err: err}
	}
	return nil
}

func (l *Log[S, U]) hasVersionedFiles() (bool, error) {
	entries, err := os.ReadDir(l.options.DirPath)
	if err != nil {
		return false, &IOError{Op: "read dir", Path: l.options.DirPath, Err: err}
	}
	for _, entry := range entries {
		if _, _, ok := data.ParseFileName(entry.Name()); ok {
			return true, nil
		}
	}
	return false, nil
}

// 删除不属于当前版本的快照文件和段文件
// 快照在版本切换之后, 删除旧文件之前崩溃时会留下它们
func (l *Log[S, U]) removeStaleFiles() error {
	entries, err := os.ReadDir(l.options.DirPath)
	if err != nil {
		return &IOError{Op: "read dir", Path: l.options.DirPath, Err: err}
	}

	var stale []string
	for _, entry := range entries {
		if _, version, ok := data.ParseFileName(entry.Name()); ok && version != l.version {
			stale = append(stale, entry.Name())
		}
	}
	if len(stale) == 0 {
		return nil
	}

	slices.Sort(stale)
	for _, name := range stale {
		path := filepath.Join(l.options.DirPath, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return &IOError{Op: "remove", Path: path, Err: err}
		}
		l.logger.Info("removed stale file", zap.String("file", name))
	}
	return nil
}

// 检查是否可以写入, 调用前必须持有互斥锁
func (l *Log[S, U]) checkWritable() error {
	switch l.state {
	case stateClosed:
		return ErrLogClosed
	case stateRecovering:
		return ErrNotRecovered
	case stateBroken:
		return ErrNeedsRecovery
	}
	return nil
}
