package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// outputJSON prints data as pretty-printed JSON to stdout.
func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// fail reports an error and exits 1. JSON mode emits a machine-readable
// failure object; text mode writes to stderr.
func fail(err error) {
	if jsonOutput() {
		outputJSON(map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
