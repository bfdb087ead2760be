package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"snaplog/kv"
)

var (
	exportCmd = &cobra.Command{
		Use:     "export",
		Short:   "Copy every key/value pair into a bbolt database file",
		Example: "snaplog export --out snaplog.bolt",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(db *kv.DB, logger *zap.Logger) error {
				n, err := db.ExportBolt(exportPath)
				if err != nil {
					return err
				}
				logger.Info("export finished", zap.String("path", exportPath), zap.Int("keys", n))
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d keys to %s\n", n, exportPath)
				return nil
			})
		},
	}
	// exportPath is the bbolt file to write.
	exportPath string
)

func init() {
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "path of the bbolt database file")
	_ = exportCmd.MarkFlagRequired("out")
}
