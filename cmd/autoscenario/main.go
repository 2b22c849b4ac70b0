// Command autoscenario generates the automotive panel, trains the models,
// forecasts every policy scenario and serves the results.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
