package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sarchlab/nodetopo/datarecording"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [database]",
	Short: "Summarize a topology recorded with build --record.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	r := datarecording.NewTopologyReader(path)
	defer r.Close()

	color.New(color.Bold).Printf("%s\n", path)

	for _, table := range r.ListTables() {
		_, count, err := r.Query(ctx, table, datarecording.QueryParams{Limit: 1})
		if err != nil {
			return fmt.Errorf("reading %s: %w", table, err)
		}

		fmt.Printf("  %-16s %d\n", table, count)
	}

	return nil
}
