// Command cachesim simulates a set-associative cache in front of a
// word-addressed memory.
package main

import "github.com/sarchlab/cachesim/cachesim/cmd"

func main() {
	cmd.Execute()
}
