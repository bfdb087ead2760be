package main

import (
	"fmt"
	"os"

	"code.cloudfoundry.org/bytefmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"snaplog/kv"
)

var inspectCmd = &cobra.Command{
	Use:     "inspect",
	Short:   "Print the committed version, file sizes and directory contents",
	Example: "snaplog inspect --dir /tmp/snaplog-kv",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(func(db *kv.DB, _ *zap.Logger) error {
			stat, err := db.Stat()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "directory:     %s\n", config.RootDirectory)
			fmt.Fprintf(out, "version:       %d\n", stat.Version)
			fmt.Fprintf(out, "keys:          %d\n", stat.KeyNum)
			fmt.Fprintf(out, "updates:       %d\n", stat.UpdateNum)
			fmt.Fprintf(out, "snapshot size: %s\n", bytefmt.ByteSize(uint64(stat.SnapshotSize)))
			fmt.Fprintf(out, "segment size:  %s\n", bytefmt.ByteSize(uint64(stat.LogSize)))
			fmt.Fprintf(out, "disk size:     %s\n", bytefmt.ByteSize(uint64(stat.DiskSize)))

			entries, err := os.ReadDir(config.RootDirectory)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "files:")
			for _, entry := range entries {
				info, err := entry.Info()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %-24s %s\n", entry.Name(), bytefmt.ByteSize(uint64(info.Size())))
			}
			return nil
		})
	},
}
