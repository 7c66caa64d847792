package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/licverify/licverify/internal/batch"
	"github.com/licverify/licverify/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var status *batch.StatusError
		if errors.As(err, &status) {
			os.Exit(status.Severity.ExitCode())
		}
		os.Exit(1)
	}
}
