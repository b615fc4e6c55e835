package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/tphummel/ict_assets/internal/apiclient"
)

func newAssetsCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assets",
		Aliases: []string{"asset"},
		Short:   "List, inspect and register assets.",
	}
	cmd.AddCommand(newAssetsListCmd(g), newAssetsGetCmd(g), newAssetsCreateCmd(g))
	return cmd
}

type assetsListOptions struct {
	global *globalOptions
	apiclient.AssetFilter
}

func newAssetsListCmd(g *globalOptions) *cobra.Command {
	o := &assetsListOptions{global: g}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&o.Type, "type", "", "Only assets of this type (PC, Monitor, VDI, ...).")
	cmd.Flags().StringVar(&o.Status, "status", "", "Only assets in this status.")
	cmd.Flags().StringVar(&o.Serial, "serial", "", "Only the asset with this serial number.")
	return cmd
}

func (o *assetsListOptions) Run(ctx context.Context, out io.Writer) error {
	c, err := o.global.client()
	if err != nil {
		return err
	}
	ctx, cancel := o.global.withTimeout(ctx)
	defer cancel()

	assets, err := c.ListAssets(ctx, o.AssetFilter)
	if err != nil {
		return err
	}
	if o.global.Output == "json" {
		return printJSON(out, assets)
	}
	return printAssets(out, assets)
}

func newAssetsGetCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one asset.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			ctx, cancel := g.withTimeout(cmd.Context())
			defer cancel()

			a, err := c.GetAsset(ctx, args[0])
			if err != nil {
				return err
			}
			if g.Output == "json" {
				return printJSON(cmd.OutOrStdout(), a)
			}
			return printAsset(cmd.OutOrStdout(), a)
		},
		SilenceUsage: true,
	}
}

type assetsCreateOptions struct {
	global *globalOptions
	apiclient.NewAsset
}

func newAssetsCreateCmd(g *globalOptions) *cobra.Command {
	o := &assetsCreateOptions{global: g}
	cmd := &cobra.Command{
		Use:   "create --type TYPE --serial SERIAL",
		Short: "Register a new asset in ICT custody.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&o.Type, "type", "", "Asset type.")
	cmd.Flags().StringVar(&o.SerialNumber, "serial", "", "Serial number.")
	cmd.Flags().StringVar(&o.Brand, "brand", "", "Brand.")
	cmd.Flags().StringVar(&o.Model, "model", "", "Model.")
	return cmd
}

func (o *assetsCreateOptions) Validate() error {
	if o.Type == "" || o.SerialNumber == "" {
		return errors.New("--type and --serial are required")
	}
	return nil
}

func (o *assetsCreateOptions) Run(ctx context.Context, out io.Writer) error {
	c, err := o.global.client()
	if err != nil {
		return err
	}
	ctx, cancel := o.global.withTimeout(ctx)
	defer cancel()

	a, err := c.CreateAsset(ctx, o.NewAsset)
	if err != nil {
		return err
	}
	if o.global.Output == "json" {
		return printJSON(out, a)
	}
	return printAsset(out, a)
}
