package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"snaplog/kv"
)

var snapshotCmd = &cobra.Command{
	Use:     "snapshot",
	Short:   "Write a new snapshot and empty the segment file",
	Aliases: []string{"compact"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(func(db *kv.DB, _ *zap.Logger) error {
			if err := db.Sync(); err != nil {
				return err
			}
			stat, err := db.Stat()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d, %d keys\n", stat.Version, stat.KeyNum)
			return nil
		})
	},
}
