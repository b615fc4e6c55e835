package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/tphummel/ict_assets/internal/apiclient"
)

const (
	envEndpoint = "ICT_ASSETS_ENDPOINT"
	envToken    = "ICT_ASSETS_TOKEN"
)

// connection is where the CLI sends requests and the token it sends.
type connection struct {
	Endpoint string
	Token    string
}

// resolveConfig merges flag and environment settings field by field. A
// non-blank flag wins over the environment. The endpoint must be an http or
// https URL; a trailing slash is dropped.
func resolveConfig(flags, env connection) (connection, error) {
	pick := func(flag, fromEnv string) string {
		if v := strings.TrimSpace(flag); v != "" {
			return v
		}
		return strings.TrimSpace(fromEnv)
	}
	c := connection{
		Endpoint: strings.TrimRight(pick(flags.Endpoint, env.Endpoint), "/"),
		Token:    pick(flags.Token, env.Token),
	}
	if c.Endpoint == "" {
		return c, nil
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return connection{}, fmt.Errorf("endpoint %q is not an http(s) URL", c.Endpoint)
	}
	return c, nil
}

// globalOptions are shared by every subcommand.
type globalOptions struct {
	Endpoint       string
	Token          string
	Output         string
	RequestTimeout time.Duration
}

func (o *globalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.Endpoint, "endpoint", "", "Base URL of the ict_assets API (or "+envEndpoint+").")
	fs.StringVar(&o.Token, "token", "", "Bearer token from 'assetctl login' (or "+envToken+").")
	fs.StringVarP(&o.Output, "output", "o", "table", "Output format: table or json.")
	fs.DurationVar(&o.RequestTimeout, "request-timeout", 30*time.Second, "Request timeout.")
}

func (o *globalOptions) validate(needToken bool) (endpoint, token string, err error) {
	if o.Output != "table" && o.Output != "json" {
		return "", "", fmt.Errorf("unsupported output format %q", o.Output)
	}
	c, err := resolveConfig(
		connection{Endpoint: o.Endpoint, Token: o.Token},
		connection{Endpoint: os.Getenv(envEndpoint), Token: os.Getenv(envToken)},
	)
	if err != nil {
		return "", "", err
	}
	endpoint, token = c.Endpoint, c.Token
	if endpoint == "" {
		return "", "", fmt.Errorf("no endpoint: pass --endpoint or set %s", envEndpoint)
	}
	if needToken && token == "" {
		return "", "", fmt.Errorf("not logged in: run 'assetctl login' and set %s", envToken)
	}
	return endpoint, token, nil
}

// client returns an API client for the resolved endpoint and token.
func (o *globalOptions) client() (*apiclient.Client, error) {
	endpoint, token, err := o.validate(true)
	if err != nil {
		return nil, err
	}
	return apiclient.NewClient(endpoint, token), nil
}

func (o *globalOptions) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.RequestTimeout > 0 {
		return context.WithTimeout(ctx, o.RequestTimeout)
	}
	return ctx, func() {}
}
