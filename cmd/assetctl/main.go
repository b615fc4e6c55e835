// Command assetctl manages the ict_assets inventory from the terminal.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	o := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "assetctl",
		Short:         "Manage ICT assets, lifecycle actions and maintenance tickets.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	o.Bind(cmd.PersistentFlags())

	cmd.AddCommand(
		newLoginCmd(o),
		newAssetsCmd(o),
		newLifecycleCmd(o),
		newTicketsCmd(o),
		newAuditCmd(o),
		newDashboardCmd(o),
	)
	return cmd
}
