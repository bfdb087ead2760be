package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"snaplog/kv"
)

const (
	usage      = "snaplog"
	short      = "Inspect and modify a snaplog key/value directory"
	configDesc = "set the path for the snaplog YAML configuration file"
	dirDesc    = "data directory, overrides root_directory of the configuration file"
)

var (
	// configFilePath set flag for a path to the config file.
	configFilePath string
	// dirPath overrides the configured root directory.
	dirPath string
	// config is loaded before every subcommand runs.
	config *Config
)

func execute() error {
	c := &cobra.Command{
		Use:               usage,
		Short:             short,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}
	c.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", configDesc)
	c.PersistentFlags().StringVarP(&dirPath, "dir", "d", "", dirDesc)

	c.AddCommand(inspectCmd)
	c.AddCommand(getCmd)
	c.AddCommand(putCmd)
	c.AddCommand(delCmd)
	c.AddCommand(dumpCmd)
	c.AddCommand(snapshotCmd)
	c.AddCommand(exportCmd)
	return c.Execute()
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	config = defaultConfig()
	if configFilePath != "" {
		data, err := os.ReadFile(configFilePath)
		if err != nil {
			return fmt.Errorf("failed to read configuration file error: %w", err)
		}
		if err := config.Parse(data); err != nil {
			return fmt.Errorf("failed to parse configuration file error: %w", err)
		}
	}
	if dirPath != "" {
		config.RootDirectory = dirPath
	}
	return nil
}

// withDB 打开数据库执行 fn, 结束后关闭
func withDB(fn func(db *kv.DB, logger *zap.Logger) error) error {
	logger, err := config.newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := kv.Open(config.kvOptions(logger))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", config.RootDirectory, err)
	}
	if err := fn(db, logger); err != nil {
		_ = db.Close()
		return err
	}
	return db.Close()
}
