// marketctl is an operator CLI for inspecting marketplace data directly
// through the configured storage backend. It bypasses the HTTP server and
// its authentication; run it where the data lives.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "marketctl",
		Short:         "Inspect marketplace users, tasks, and audit logs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newUsersCmd(), newTasksCmd(), newAuditCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "marketctl:", err)
		os.Exit(1)
	}
}
