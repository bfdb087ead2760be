package main

import (
	"errors"
	"strings"

	"github.com/tidwall/redcon"
	"go.uber.org/zap"

	"snaplog/kv"
)

func newWrongNumberOfArgsError(cmd string) error {
	return errors.New("ERR wrong number of arguments for '" + cmd + "' command")
}

// simpleString 以 RESP 简单字符串的形式返回
type simpleString string

type cmdHandler func(cli *SnapLogClient, args [][]byte) (interface{}, error)

var supportedCommands = map[string]cmdHandler{
	"get":  get,
	"set":  set,
	"del":  del,
	"keys": keys,
	"save": save,
}

type SnapLogClient struct {
	server *SnapLogServer
	db     *kv.DB
}

func execClientCommand(conn redcon.Conn, cmd redcon.Command) {
	command := strings.ToLower(string(cmd.Args[0]))
	switch command {
	case "quit":
		conn.WriteString("OK")
		_ = conn.Close()
		return
	case "ping":
		if len(cmd.Args) > 1 {
			conn.WriteBulk(cmd.Args[1])
		} else {
			conn.WriteString("PONG")
		}
		return
	}

	cmdFunc, ok := supportedCommands[command]
	if !ok {
		conn.WriteError("ERR unsupported command: '" + command + "'")
		return
	}

	client, _ := conn.Context().(*SnapLogClient)
	res, err := cmdFunc(client, cmd.Args[1:])
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			conn.WriteNull()
			return
		}
		client.server.logger.Warn("command failed", zap.String("cmd", command), zap.Error(err))
		conn.WriteError(err.Error())
		return
	}
	writeReply(conn, res)
}

func writeReply(conn redcon.Conn, res interface{}) {
	switch v := res.(type) {
	case nil:
		conn.WriteNull()
	case simpleString:
		conn.WriteString(string(v))
	case []byte:
		conn.WriteBulk(v)
	case int:
		conn.WriteInt(v)
	case [][]byte:
		conn.WriteArray(len(v))
		for _, b := range v {
			conn.WriteBulk(b)
		}
	default:
		conn.WriteError("ERR unexpected reply type")
	}
}

func get(cli *SnapLogClient, args [][]byte) (interface{}, error) {
	if len(args) != 1 {
		return nil, newWrongNumberOfArgsError("get")
	}
	return cli.db.Get(args[0])
}

func set(cli *SnapLogClient, args [][]byte) (interface{}, error) {
	if len(args) != 2 {
		return nil, newWrongNumberOfArgsError("set")
	}
	if err := cli.db.Put(args[0], args[1]); err != nil {
		return nil, err
	}
	return simpleString("OK"), nil
}

func del(cli *SnapLogClient, args [][]byte) (interface{}, error) {
	if len(args) == 0 {
		return nil, newWrongNumberOfArgsError("del")
	}
	var deleted int
	for _, key := range args {
		if _, err := cli.db.Get(key); err != nil {
			if errors.Is(err, kv.ErrKeyNotFound) {
				continue
			}
			return nil, err
		}
		if err := cli.db.Delete(key); err != nil {
			return nil, err
		}
		deleted++
	}
	return deleted, nil
}

// 只支持 KEYS * 和前缀匹配 KEYS prefix*
func keys(cli *SnapLogClient, args [][]byte) (interface{}, error) {
	if len(args) != 1 {
		return nil, newWrongNumberOfArgsError("keys")
	}
	pattern := string(args[0])
	prefix := strings.TrimSuffix(pattern, "*")
	exact := prefix == pattern

	var matched [][]byte
	for _, key := range cli.db.ListKeys() {
		if exact && string(key) == pattern || !exact && strings.HasPrefix(string(key), prefix) {
			matched = append(matched, key)
		}
	}
	if matched == nil {
		matched = [][]byte{}
	}
	return matched, nil
}

func save(cli *SnapLogClient, args [][]byte) (interface{}, error) {
	if len(args) != 0 {
		return nil, newWrongNumberOfArgsError("save")
	}
	if err := cli.db.Sync(); err != nil {
		return nil, err
	}
	return simpleString("OK"), nil
}
