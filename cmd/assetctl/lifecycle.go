package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/tphummel/ict_assets/internal/apiclient"
	"github.com/tphummel/ict_assets/internal/models"
)

func newLifecycleCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lifecycle",
		Aliases: []string{"action", "actions"},
		Short:   "Deploy, move and surrender assets.",
	}
	cmd.AddCommand(newLifecycleSubmitCmd(g), newLifecycleCompleteCmd(g), newLifecycleListCmd(g))
	return cmd
}

type lifecycleSubmitOptions struct {
	global *globalOptions
	apiclient.ActionRequest
}

func newLifecycleSubmitCmd(g *globalOptions) *cobra.Command {
	o := &lifecycleSubmitOptions{global: g}
	cmd := &cobra.Command{
		Use:   "submit --action ACTION --primary SERIAL",
		Short: "Submit a lifecycle action.",
		Example: `  assetctl lifecycle submit --action "New Deployment" --deployment-type Pair --pair-type PC \
    --primary CPU-001 --secondary MON-001 --holder "Jane Doe" --domain-account K12345678 \
    --location "Times Tower" --department ICT`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	fs := cmd.Flags()
	fs.StringVar(&o.ActionType, "action", "", "Action type, e.g. \"New Deployment\", Surrender.")
	fs.StringVar(&o.DeploymentType, "deployment-type", string(models.DeploymentIndividual), "Pair or Individual.")
	fs.StringVar(&o.PairType, "pair-type", "", "PC or VDI, for pair deployments.")
	fs.StringVar(&o.PrimarySerial, "primary", "", "Serial of the primary (or only) asset.")
	fs.StringVar(&o.SecondarySerial, "secondary", "", "Serial of the monitor in a pair.")
	fs.StringVar(&o.To.Holder, "holder", "", "New holder.")
	fs.StringVar(&o.To.DomainAccount, "domain-account", "", "Holder's domain account.")
	fs.StringVar(&o.To.Location, "location", "", "New location.")
	fs.StringVar(&o.To.Department, "department", "", "New department.")
	fs.StringVar(&o.To.Section, "section", "", "New section.")
	fs.StringVar(&o.Comments, "comments", "", "Free-text comments.")
	fs.BoolVar(&o.Pending, "pending", false, "Record the action as pending instead of applying it.")
	return cmd
}

func (o *lifecycleSubmitOptions) Validate() error {
	if o.ActionType == "" {
		return errors.New("--action is required")
	}
	if o.PrimarySerial == "" {
		return errors.New("--primary is required")
	}
	return nil
}

func (o *lifecycleSubmitOptions) Run(ctx context.Context, out io.Writer) error {
	c, err := o.global.client()
	if err != nil {
		return err
	}
	ctx, cancel := o.global.withTimeout(ctx)
	defer cancel()

	a, err := c.SubmitAction(ctx, o.ActionRequest)
	if err != nil {
		return err
	}
	if o.global.Output == "json" {
		return printJSON(out, a)
	}
	return printActions(out, []*models.LifecycleAction{a})
}

func newLifecycleCompleteCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete ID",
		Short: "Apply a pending lifecycle action.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			ctx, cancel := g.withTimeout(cmd.Context())
			defer cancel()

			a, err := c.CompleteAction(ctx, args[0])
			if err != nil {
				return err
			}
			if g.Output == "json" {
				return printJSON(cmd.OutOrStdout(), a)
			}
			return printActions(cmd.OutOrStdout(), []*models.LifecycleAction{a})
		},
		SilenceUsage: true,
	}
}

func newLifecycleListCmd(g *globalOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lifecycle actions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			ctx, cancel := g.withTimeout(cmd.Context())
			defer cancel()

			actions, err := c.ListActions(ctx, status)
			if err != nil {
				return err
			}
			if g.Output == "json" {
				return printJSON(cmd.OutOrStdout(), actions)
			}
			return printActions(cmd.OutOrStdout(), actions)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&status, "status", "", "Only actions in this status (Pending or Completed).")
	return cmd
}
