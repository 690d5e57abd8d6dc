// Command modsynth runs modular synth patches.
//
// Usage:
//
//	modsynth render patch.yaml -o out.wav -d 4
//	modsynth play patch.yaml
//	modsynth serve -a :8080 patch.yaml
//	modsynth kinds
//
// Settings come from an optional YAML config file (--config); flags
// override it.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
