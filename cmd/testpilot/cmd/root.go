package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

const appName = "testpilot"

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: fmt.Sprintf("%s executes declarative API test flows.", appName),
}

// Execute executes the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
