package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/driver"
)

var traceCmd = &cobra.Command{
	Use:   "trace FILE",
	Short: "Replay a trace file against the cache.",
	Long: "Replay a trace file against the cache. Each line of the trace " +
		"is `op address [data]`, where op is r, read, w or write, the " +
		"address is hexadecimal and the data is decimal.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrace(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, path string) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.configure(opts); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ops, err := driver.ParseTrace(f)
	if err != nil {
		return err
	}

	err = a.withProgress(path, uint64(len(ops)), func() error {
		return a.session.RunOps(ops)
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Trace %s done (%d operations)\n", path, len(ops))

	return a.session.Report(out)
}
