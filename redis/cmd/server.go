package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tidwall/redcon"
	"go.uber.org/zap"

	"snaplog/kv"
)

const (
	addr    = "127.0.0.1:6380"
	usage   = "snaplog-server"
	short   = "Serve a snaplog key/value directory over the redis protocol"
	example = "snaplog-server --dir /var/lib/snaplog --addr 127.0.0.1:6380"
)

var (
	// Cmd is the server command.
	Cmd = &cobra.Command{
		Use:          usage,
		Short:        short,
		Example:      example,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         executeServer,
	}
	// dirPath is the snaplog data directory.
	dirPath string
	// listenAddr is the address to accept redis connections on.
	listenAddr string
)

type SnapLogServer struct {
	db     *kv.DB
	server *redcon.Server
	logger *zap.Logger
	addr   string
	mu     sync.RWMutex
	conns  int
}

func init() {
	Cmd.Flags().StringVarP(&dirPath, "dir", "d", kv.DefaultOptions.DirPath, "snaplog data directory")
	Cmd.Flags().StringVarP(&listenAddr, "addr", "a", addr, "address to listen on")
}

func main() {
	if err := Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func executeServer(_ *cobra.Command, _ []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// 打开存储引擎, 恢复已有数据
	opts := kv.DefaultOptions
	opts.DirPath = dirPath
	opts.Logger = logger
	db, err := kv.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open snaplog %s: %w", dirPath, err)
	}

	svr := &SnapLogServer{db: db, logger: logger, addr: listenAddr}
	svr.server = redcon.NewServer(listenAddr, execClientCommand, svr.accept, svr.close)

	go svr.waitSignal()
	svr.listen()
	return nil
}

func (svr *SnapLogServer) listen() {
	svr.logger.Info("snaplog server running, ready to accept connections", zap.String("addr", svr.addr))
	if err := svr.server.ListenAndServe(); err != nil {
		svr.logger.Error("server stopped", zap.Error(err))
	}
	if err := svr.db.Close(); err != nil {
		svr.logger.Error("failed to close snaplog", zap.Error(err))
	}
}

// 收到退出信号后关闭监听, listen 负责关闭数据库
func (svr *SnapLogServer) waitSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	svr.logger.Info("shutting down", zap.String("signal", s.String()))
	_ = svr.server.Close()
}

func (svr *SnapLogServer) accept(conn redcon.Conn) bool {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	svr.conns++
	conn.SetContext(&SnapLogClient{server: svr, db: svr.db})
	return true
}

func (svr *SnapLogServer) close(conn redcon.Conn, err error) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	svr.conns--
	if err != nil {
		svr.logger.Debug("connection closed", zap.String("remote", conn.RemoteAddr()), zap.Error(err))
	}
}
