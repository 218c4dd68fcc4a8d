// Command packdump inspects, verifies and re-encodes packstore blob files.
//
// Usage:
//
//	packdump inspect FILE
//	packdump verify FILE...
//	packdump convert IN OUT [--compression=zstd]
//
// Settings may also come from a config file (--config) or PACKDUMP_*
// environment variables, for example PACKDUMP_COMPRESSION=snappy.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
