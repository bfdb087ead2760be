package snaplog

import "io"

// Handler 由日志的使用者实现, 负责状态和更新的编解码, 以及把更新应用到状态上
// 日志本身不解释任何字节, 传入的流都只覆盖一条记录, 关闭它们不会关闭底层文件
type Handler[S, U any] interface {
	// Initial 日志目录第一次创建时的初始状态
	Initial() (S, error)

	// Encode 把完整状态写入快照
	Encode(w io.Writer, state S) error

	// Decode 从快照中读取完整状态
	Decode(r io.Reader) (S, error)

	// EncodeUpdate 把一次更新写入段文件记录
	EncodeUpdate(w io.Writer, update U) error

	// DecodeUpdate 从段文件记录中读取一次更新
	DecodeUpdate(r io.Reader) (U, error)

	// Apply 把更新应用到状态上, 返回新的状态
	Apply(update U, state S) (S, error)
}
