package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"snaplog/kv"
)

var (
	getCmd = &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *kv.DB, _ *zap.Logger) error {
				value, err := db.Get([]byte(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(value))
				return nil
			})
		},
	}

	putCmd = &cobra.Command{
		Use:     "put <key> <value>",
		Short:   "Store a value under a key",
		Example: "snaplog put name snaplog",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *kv.DB, logger *zap.Logger) error {
				if err := db.Put([]byte(args[0]), []byte(args[1])); err != nil {
					return err
				}
				logger.Debug("put", zap.String("key", args[0]))
				return nil
			})
		},
	}

	delCmd = &cobra.Command{
		Use:   "del <key>...",
		Short: "Delete one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *kv.DB, _ *zap.Logger) error {
				for _, key := range args {
					if err := db.Delete([]byte(key)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	// quoteValues prints values Go-quoted.
	quoteValues bool

	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Print every key/value pair in key order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(db *kv.DB, _ *zap.Logger) error {
				out := cmd.OutOrStdout()
				return db.Fold(func(key []byte, value []byte) bool {
					if quoteValues {
						fmt.Fprintf(out, "%s\t%s\n", strconv.Quote(string(key)), strconv.Quote(string(value)))
					} else {
						fmt.Fprintf(out, "%s\t%s\n", key, value)
					}
					return true
				})
			})
		},
	}
)

func init() {
	dumpCmd.Flags().BoolVarP(&quoteValues, "quote", "q", false, "quote keys and values")
}
