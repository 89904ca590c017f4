package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/driver"
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Run uniformly distributed random accesses.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		count, _ := cmd.Flags().GetInt("count")
		readRatio, _ := cmd.Flags().GetFloat64("read-ratio")
		addrRange, _ := cmd.Flags().GetUint64("range")

		return runRandom(cmd, driver.RandomWorkload{
			Count:        count,
			ReadRatio:    readRatio,
			AddressRange: addrRange,
		})
	},
}

func init() {
	rootCmd.AddCommand(randomCmd)
	randomCmd.Flags().Int("count", 1000, "Number of accesses.")
	randomCmd.Flags().Float64("read-ratio", 0.7,
		"Probability for an access to be a read.")
	randomCmd.Flags().Uint64("range", 0,
		"Addresses are drawn from [0, range). 0 means the whole memory.")
}

func runRandom(cmd *cobra.Command, workload driver.RandomWorkload) error {
	if err := workload.Validate(); err != nil {
		return err
	}

	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.configure(opts); err != nil {
		return err
	}

	err = a.withProgress("random", uint64(workload.Count), func() error {
		return a.session.RunRandom(workload)
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Random access test done (%d operations)\n",
		workload.Count)

	return a.session.Report(out)
}
