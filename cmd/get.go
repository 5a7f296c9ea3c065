package main

import (
	"errors"
	"fmt"
	"net/url"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tidwall/pretty"
	"github.com/urfave/cli/v2"
)

func get(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cliCtx.NArg() < 1 {
		return errors.New("endpoint argument is required")
	}
	endpoint := cliCtx.Args().First()
	params, err := parseParams(cliCtx.Args().Tail())
	if nil != err {
		return err
	}

	e, err := newEnv(cliCtx)
	if nil != err {
		return err
	}
	c, err := e.authenticatedClient(ctx)
	if nil != err {
		return err
	}

	callCtx, callCancel := e.apiContext(ctx)
	defer callCancel()

	v, err := c.JSON(callCtx, strings.ToUpper(cliCtx.String(flagMethod)), endpoint, params)
	if nil != err {
		return err
	}
	if path := cliCtx.String(flagPath); path != "" {
		v = v.Get(path)
		if !v.Exists() {
			return fmt.Errorf("path %q does not exist in response", path)
		}
	}

	out := pretty.Pretty([]byte(v.Raw))
	if cliCtx.Bool(flagColor) {
		out = pretty.Color(out, nil)
	}
	_, err = cliCtx.App.Writer.Write(out)
	return err
}

// parseParams turns key=value arguments into query parameters. Repeated keys
// are kept in order.
func parseParams(args []string) (url.Values, error) {
	params := url.Values{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q. expected key=value", arg)
		}
		params.Add(k, v)
	}
	return params, nil
}
