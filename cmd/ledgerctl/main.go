package main

import (
	"fmt"
	"os"

	"github.com/jhoicas/stock-ledger-api/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
