package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/tphummel/ict_assets/internal/apiclient"
	"github.com/tphummel/ict_assets/internal/models"
)

func newTicketsCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tickets",
		Aliases: []string{"ticket"},
		Short:   "Open, resolve and list maintenance tickets.",
	}
	cmd.AddCommand(newTicketsOpenCmd(g), newTicketsResolveCmd(g), newTicketsListCmd(g))
	return cmd
}

type ticketsOpenOptions struct {
	global *globalOptions
	apiclient.TicketRequest
}

func newTicketsOpenCmd(g *globalOptions) *cobra.Command {
	o := &ticketsOpenOptions{global: g}
	cmd := &cobra.Command{
		Use:   "open --serial SERIAL --title TITLE",
		Short: "Open a maintenance ticket and move the asset under maintenance.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	fs := cmd.Flags()
	fs.StringVar(&o.AssetSerial, "serial", "", "Serial of the faulty asset.")
	fs.StringVar(&o.Title, "title", "", "Short summary of the fault.")
	fs.StringVar(&o.Description, "description", "", "Details of the fault.")
	fs.StringVar(&o.Category, "category", string(models.CategoryHardware), "Hardware, Software, Network or Replacement.")
	fs.StringVar(&o.Priority, "priority", string(models.PriorityMedium), "Low, Medium, High or Critical.")
	fs.StringVar(&o.AssignedTo, "assign", "", "Technician to assign.")
	return cmd
}

func (o *ticketsOpenOptions) Validate() error {
	if o.AssetSerial == "" || o.Title == "" {
		return errors.New("--serial and --title are required")
	}
	return nil
}

func (o *ticketsOpenOptions) Run(ctx context.Context, out io.Writer) error {
	c, err := o.global.client()
	if err != nil {
		return err
	}
	ctx, cancel := o.global.withTimeout(ctx)
	defer cancel()

	t, err := c.OpenTicket(ctx, o.TicketRequest)
	if err != nil {
		return err
	}
	if o.global.Output == "json" {
		return printJSON(out, t)
	}
	return printTickets(out, []*models.MaintenanceTicket{t})
}

type ticketsResolveOptions struct {
	global *globalOptions
	apiclient.Resolution
}

func newTicketsResolveCmd(g *globalOptions) *cobra.Command {
	o := &ticketsResolveOptions{global: g}
	cmd := &cobra.Command{
		Use:   "resolve ID --resolution TEXT",
		Short: "Resolve a ticket, optionally declaring the asset obsolete.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args[0], cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	fs := cmd.Flags()
	fs.StringVar(&o.Resolution.Resolution, "resolution", "", "What was done.")
	fs.Float64Var(&o.Cost, "cost", 0, "Repair cost.")
	fs.BoolVar(&o.IsObsolete, "obsolete", false, "Declare the asset obsolete.")
	fs.StringVar(&o.ObsoleteReason, "reason", "", "Why the asset is obsolete.")
	fs.StringVar(&o.ReplacementSerial, "replacement", "", "Serial of an In Store asset that takes over.")
	return cmd
}

func (o *ticketsResolveOptions) Validate() error {
	if o.Resolution.Resolution == "" {
		return errors.New("--resolution is required")
	}
	if !o.IsObsolete && (o.ObsoleteReason != "" || o.ReplacementSerial != "") {
		return errors.New("--reason and --replacement require --obsolete")
	}
	return nil
}

func (o *ticketsResolveOptions) Run(ctx context.Context, id string, out io.Writer) error {
	c, err := o.global.client()
	if err != nil {
		return err
	}
	ctx, cancel := o.global.withTimeout(ctx)
	defer cancel()

	t, err := c.ResolveTicket(ctx, id, o.Resolution)
	if err != nil {
		return err
	}
	if o.global.Output == "json" {
		return printJSON(out, t)
	}
	return printTickets(out, []*models.MaintenanceTicket{t})
}

func newTicketsListCmd(g *globalOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List maintenance tickets.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			ctx, cancel := g.withTimeout(cmd.Context())
			defer cancel()

			tickets, err := c.ListTickets(ctx, status)
			if err != nil {
				return err
			}
			if g.Output == "json" {
				return printJSON(cmd.OutOrStdout(), tickets)
			}
			return printTickets(cmd.OutOrStdout(), tickets)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&status, "status", "", "Only tickets in this status.")
	return cmd
}
