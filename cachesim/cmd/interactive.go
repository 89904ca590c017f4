package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/driver"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Configure the cache and run workloads from a menu.",
	Long: "Configure the cache and run workloads from a menu. The cache " +
		"starts with the configuration given by the flags, and can be " +
		"reconfigured from the menu.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(opts)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.configure(opts); err != nil {
			return err
		}

		menu := driver.NewMenu(a.session, cmd.InOrStdin(), cmd.OutOrStdout())

		return menu.Run()
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
