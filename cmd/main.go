package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/pxv/constant"
	"github.com/xeptore/pxv/errutil"
	"github.com/xeptore/pxv/log"
	"github.com/xeptore/pxv/must"
	"github.com/xeptore/pxv/pixiv"
)

const (
	flagConfigFilePath = "config"
	flagVerbose        = "verbose"
	flagNoBrowser      = "no-browser"
	flagMethod         = "method"
	flagPath           = "path"
	flagColor          = "color"
	flagOutputDir      = "output"
)

func main() {
	logger := log.NewPretty(os.Stderr).Level(zerolog.InfoLevel)
	if err := godotenv.Load(); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatal().Err(err).Msg("Failed to load .env file")
		}
	}

	var verbose bool

	//nolint:exhaustruct
	app := &cli.App{
		Name:     "pxv",
		Version:  constant.Version,
		Compiled: constant.CompileTime,
		Suggest:  true,
		Usage:    "pixiv App-API client",
		Before: func(cliCtx *cli.Context) error {
			verbose = cliCtx.Bool(flagVerbose)
			return nil
		},
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:    flagConfigFilePath,
				Aliases: []string{"c"},
				Usage:   "Config file path",
			},
			//nolint:exhaustruct
			&cli.BoolFlag{
				Name:    flagVerbose,
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			//nolint:exhaustruct
			{
				Name:   "login",
				Usage:  "Log in through the browser and store the issued credentials",
				Action: login,
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.BoolFlag{
						Name:  flagNoBrowser,
						Usage: "Print the login URL instead of opening it",
					},
				},
			},
			//nolint:exhaustruct
			{
				Name:   "logout",
				Usage:  "Delete stored credentials",
				Action: logout,
			},
			//nolint:exhaustruct
			{
				Name:   "refresh",
				Usage:  "Redeem the stored refresh token and store the new credentials",
				Action: refresh,
			},
			//nolint:exhaustruct
			{
				Name:   "whoami",
				Usage:  "Print the logged in account",
				Action: whoami,
			},
			//nolint:exhaustruct
			{
				Name:      "get",
				Usage:     "Send an App-API request and print the JSON response",
				ArgsUsage: "<endpoint> [key=value...]",
				Action:    get,
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:    flagMethod,
						Aliases: []string{"X"},
						Value:   "GET",
						Usage:   "HTTP method",
					},
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:    flagPath,
						Aliases: []string{"p"},
						Usage:   "Print only the value at this gjson path",
					},
					//nolint:exhaustruct
					&cli.BoolFlag{
						Name:  flagColor,
						Usage: "Colorize output",
					},
				},
			},
			//nolint:exhaustruct
			{
				Name:      "download",
				Aliases:   []string{"dl"},
				Usage:     "Download the original images of illustrations",
				ArgsUsage: "<illust-id>...",
				Action:    download,
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:    flagOutputDir,
						Aliases: []string{"o"},
						Usage:   "Download directory, overriding download_dir of the config",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			return
		}
		if verbose && errutil.IsFlaw(err) {
			if reportErr := writeFlawReport(os.Stderr, err); nil != reportErr {
				logger.Error().Func(log.Flaw(reportErr)).Msg("Failed to write error report")
			}
		}
		if pixivErr := pixiv.Error(nil); errors.As(err, &pixivErr) {
			logger.Fatal().Func(log.Flaw(pixivErr)).Msg("Application exited with pixiv error")
			return
		}
		if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
			logger.Fatal().Func(log.Flaw(flawErr)).Msg("Application exited with flaw")
			return
		}
		logger.Fatal().Err(err).Msg("Application exited with error")
	}
}

// writeFlawReport writes the YAML report of the flaw err carries.
func writeFlawReport(w io.Writer, err error) error {
	report, err := errutil.FlawToYAML(must.BeFlaw(err))
	if nil != err {
		return err
	}
	if _, err := w.Write(report); nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to write error report: %v", err)).Append(flawP)
	}
	return nil
}
