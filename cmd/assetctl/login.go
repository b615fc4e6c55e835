package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphummel/ict_assets/internal/apiclient"
)

type loginOptions struct {
	global *globalOptions

	PersonalNumber string
	PasswordStdin  bool
}

func newLoginCmd(g *globalOptions) *cobra.Command {
	o := &loginOptions{global: g}
	cmd := &cobra.Command{
		Use:   "login --personal-number NUMBER --password-stdin",
		Short: "Sign in and print a bearer token.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&o.PersonalNumber, "personal-number", "u", "", "Personal number to sign in as.")
	cmd.Flags().BoolVar(&o.PasswordStdin, "password-stdin", false, "Read the password from stdin.")
	return cmd
}

func (o *loginOptions) Validate() error {
	if strings.TrimSpace(o.PersonalNumber) == "" {
		return errors.New("--personal-number is required")
	}
	if !o.PasswordStdin {
		return errors.New("--password-stdin is required")
	}
	_, _, err := o.global.validate(false)
	return err
}

func (o *loginOptions) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	password, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return errors.New("empty password on stdin")
	}

	endpoint, _, err := o.global.validate(false)
	if err != nil {
		return err
	}
	ctx, cancel := o.global.withTimeout(ctx)
	defer cancel()

	s, err := apiclient.NewClient(endpoint, "").Login(ctx, strings.TrimSpace(o.PersonalNumber), password)
	if err != nil {
		return err
	}
	if o.global.Output == "json" {
		return printJSON(out, s)
	}
	fmt.Fprintf(out, "Signed in as %s (%s), token expires %s.\n", s.User.Name, s.User.Role, age(s.ExpiresAt))
	fmt.Fprintf(out, "export %s=%s\n", envToken, s.Token)
	return nil
}
