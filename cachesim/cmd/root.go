// Package cmd provides the command-line interface of the cache simulator.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/memory/cache"
)

type options struct {
	cacheSize     uint64
	blockSize     uint64
	associativity uint64
	policy        string
	addressBits   uint
	seed          int64

	record   string
	logTrace bool

	monitor     bool
	monitorPort int
	openBrowser bool
}

var opts options

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cachesim",
	Short: "Cachesim simulates a set-associative cache.",
	Long: `Cachesim simulates a set-associative, write-back, write-around ` +
		`cache in front of a word-addressed memory. Workloads come from ` +
		`trace files, random generators or an interactive menu. Flags can ` +
		`also be set with CACHESIM_* environment variables or a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loadDotEnv()
		return applyEnv(cmd, os.LookupEnv)
	},
}

func init() {
	defaults := cache.DefaultConfig()

	flags := rootCmd.PersistentFlags()
	flags.Uint64Var(&opts.cacheSize, "cache-size", defaults.CacheSize,
		"Number of words the cache holds.")
	flags.Uint64Var(&opts.blockSize, "block-size", defaults.BlockSize,
		"Number of words in a block.")
	flags.Uint64Var(&opts.associativity, "associativity",
		defaults.Associativity, "Number of blocks in a set.")
	flags.StringVar(&opts.policy, "policy", string(defaults.Policy),
		"Replacement policy, one of FIFO, LRU and RANDOM.")
	flags.UintVar(&opts.addressBits, "address-bits", defaults.AddressBits,
		"Width of the addresses. The memory holds 2^bits words.")
	flags.Int64Var(&opts.seed, "seed", 0,
		"Seed of the random source. 0 seeds from the current time.")
	flags.StringVar(&opts.record, "record", "",
		"Record accesses and evictions into <record>.sqlite3.")
	flags.BoolVar(&opts.logTrace, "log-trace", false,
		"Print every access and eviction to stderr.")
	flags.BoolVar(&opts.monitor, "monitor", false,
		"Serve the state of the cache over HTTP.")
	flags.IntVar(&opts.monitorPort, "monitor-port", 0,
		"Port of the monitor. A random port is used if not set.")
	flags.BoolVar(&opts.openBrowser, "open-browser", false,
		"Open the monitor in a browser.")
}

// config returns the cache configuration described by the flags.
func (o options) config() (cache.Config, error) {
	policy, err := cache.ParsePolicy(o.policy)
	if err != nil {
		return cache.Config{}, err
	}

	return cache.Config{
		CacheSize:     o.cacheSize,
		BlockSize:     o.blockSize,
		Associativity: o.associativity,
		Policy:        policy,
		AddressBits:   o.addressBits,
	}, nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Exit handlers, such as the flush of recorded traces, run
// before the process exits.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
