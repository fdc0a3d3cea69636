// Command replaytool inspects and rejudges recorded replays offline.
package main

import (
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); nil != err {
		os.Exit(1)
	}
}
