package main

import (
	"github.com/spf13/cobra"
)

func newAuditCmd(g *globalOptions) *cobra.Command {
	var (
		serial string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			ctx, cancel := g.withTimeout(cmd.Context())
			defer cancel()

			entries, err := c.ListAudit(ctx, serial, limit)
			if err != nil {
				return err
			}
			if g.Output == "json" {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			return printAudit(cmd.OutOrStdout(), entries)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&serial, "serial", "", "Only entries for this asset serial.")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of entries.")
	return cmd
}

func newDashboardCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show inventory totals and recent activity.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			ctx, cancel := g.withTimeout(cmd.Context())
			defer cancel()

			d, err := c.Dashboard(ctx)
			if err != nil {
				return err
			}
			if g.Output == "json" {
				return printJSON(cmd.OutOrStdout(), d)
			}
			return printDashboard(cmd.OutOrStdout(), d)
		},
		SilenceUsage: true,
	}
}
