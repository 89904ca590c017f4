package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const envPrefix = "CACHESIM_"

// envFlags lists the flags that take their defaults from the environment.
var envFlags = []string{
	"cache-size",
	"block-size",
	"associativity",
	"policy",
	"address-bits",
	"seed",
	"record",
	"log-trace",
	"monitor",
	"monitor-port",
	"open-browser",
}

// envName maps a flag name to its environment variable, for example
// cache-size to CACHESIM_CACHE_SIZE.
func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// loadDotEnv loads the .env file of the working directory, if any. Variables
// that are already set are not overridden.
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}
}

// applyEnv sets every flag that is not given on the command line from its
// environment variable.
func applyEnv(
	cmd *cobra.Command,
	lookup func(string) (string, bool),
) error {
	flags := cmd.Flags()

	for _, name := range envFlags {
		if flags.Lookup(name) == nil || flags.Changed(name) {
			continue
		}

		value, ok := lookup(envName(name))
		if !ok {
			continue
		}

		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("invalid value of %s: %w", envName(name), err)
		}
	}

	return nil
}
