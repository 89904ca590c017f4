package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/driver"
	"github.com/sarchlab/cachesim/memory/cache"
	"github.com/sarchlab/cachesim/memory/trace"
)

var replayCmd = &cobra.Command{
	Use:   "replay RECORDING",
	Short: "Replay the accesses of a recording against the cache.",
	Long: "Replay the accesses stored by --record against the cache. The " +
		"cache may differ from the one that made the recording, so that " +
		"configurations can be compared on the same accesses.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")
		return runReplay(cmd, args[0], location)
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().String("location", "",
		"Only replay the accesses of the named cache.")
}

func runReplay(cmd *cobra.Command, path, location string) error {
	reader, err := datarecording.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	entries, err := trace.ReadAccesses(cmd.Context(), reader, location)
	if err != nil {
		return err
	}

	ops := make([]driver.Op, 0, len(entries))
	for _, e := range entries {
		op := driver.Op{Kind: driver.OpRead, Address: e.Address}
		if e.What == cache.AccessWrite.String() {
			op.Kind = driver.OpWrite
			op.Value = e.Value
		}

		ops = append(ops, op)
	}

	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.configure(opts); err != nil {
		return err
	}

	err = a.withProgress(path, uint64(len(ops)), func() error {
		return a.session.RunOps(ops)
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Replay of %s done (%d operations)\n", path, len(ops))

	return a.session.Report(out)
}
