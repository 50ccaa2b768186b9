package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "tollgate",
		Short:   "Tollgate is a cost-aware multi-model request governor",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newDispatchCmd(),
		newClassifyCmd(),
		newBudgetCmd(),
		newCacheCmd(),
		newUsageCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
