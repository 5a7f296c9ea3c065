package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/xeptore/pxv/aapi"
	"github.com/xeptore/pxv/config"
	"github.com/xeptore/pxv/errutil"
	"github.com/xeptore/pxv/log"
	"github.com/xeptore/pxv/pixiv"
	"github.com/xeptore/pxv/tokenstore"
)

const (
	envConfig       = "PXV_CONFIG"
	envRefreshToken = "PXV_REFRESH_TOKEN"
)

var errNotLoggedIn = errors.New("not logged in. run the login command first")

type env struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  *tokenstore.Store
	http   *http.Client
}

func loadConfig(cliCtx *cli.Context, logger zerolog.Logger) (*config.Config, error) {
	cfgEnv := os.Getenv(envConfig)
	cfgFilePath := cliCtx.String(flagConfigFilePath)
	switch {
	case cfgFilePath != "" && cfgEnv != "":
		return nil, errors.New("config file path and config environment variable are both set. specify only one")
	case cfgFilePath != "":
		logger.Debug().Str("config_file_path", cfgFilePath).Msg("Loading config from file")
		cfg, err := config.FromFile(cfgFilePath)
		if nil != err {
			return nil, fmt.Errorf("failed to load config file: %v", err)
		}
		return cfg, nil
	case cfgEnv != "":
		logger.Debug().Msg("Loading config from environment variable")
		cfg, err := config.FromString(cfgEnv)
		if nil != err {
			return nil, fmt.Errorf("failed to load config from environment variable: %v", err)
		}
		return cfg, nil
	default:
		logger.Debug().Msg("Using default config")
		cfg := config.Default()
		return &cfg, nil
	}
}

func newEnv(cliCtx *cli.Context) (*env, error) {
	level := zerolog.InfoLevel
	if cliCtx.Bool(flagVerbose) {
		level = zerolog.TraceLevel
	}
	logger := log.NewPretty(os.Stderr).Level(level)

	cfg, err := loadConfig(cliCtx, logger)
	if nil != err {
		return nil, err
	}

	store := tokenstore.New(logger.With().Str("module", "tokenstore").Logger(), cfg.CredsDir, cfg.Keyring)
	if err := store.MigrateToKeyring(); nil != err {
		logger.Warn().Func(log.Flaw(err)).Msg("Failed to migrate credentials file to system keyring")
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		store:  store,
		http:   newHTTPClient(cfg.RequestTimeout),
	}, nil
}

func (e *env) newClient(info *pixiv.AuthInfo) *aapi.Client {
	return aapi.New(
		e.http,
		aapi.WithLogger(e.logger.With().Str("module", "aapi").Logger()),
		aapi.WithAuthInfo(info),
	)
}

// save persists the credential set held by c. A refresh token in the
// environment is never written back, as it belongs to whoever set it.
func (e *env) save(c *aapi.Client) error {
	info := c.AuthInfo()
	if nil == info {
		return errNotLoggedIn
	}
	if os.Getenv(envRefreshToken) != "" {
		return nil
	}
	if err := e.store.Save(*info); nil != err {
		return fmt.Errorf("failed to store credentials: %v", err)
	}
	e.logger.Debug().Bool("keyring", e.store.UsingKeyring()).Msg("Credentials stored")
	return nil
}

// loadClient returns a client holding a credential set, taken from the
// environment refresh token when set and from the store otherwise. refreshed
// reports whether a refresh token was redeemed to get it.
func (e *env) loadClient(ctx context.Context) (c *aapi.Client, refreshed bool, err error) {
	if rt := os.Getenv(envRefreshToken); rt != "" {
		e.logger.Debug().Str("refresh_token", log.RedactString(rt)).Msg("Using refresh token from environment")
		c := e.newClient(nil)
		if err := c.RefreshAuth(ctx, rt); nil != err {
			return nil, false, err
		}
		return c, true, nil
	}

	info, err := e.store.Load()
	if nil != err {
		switch {
		case errors.Is(err, tokenstore.ErrNotFound):
			return nil, false, errNotLoggedIn
		case errutil.IsFlaw(err):
			return nil, false, err
		default:
			panic(errutil.UnknownError(err))
		}
	}
	return e.newClient(info), false, nil
}

// needsRefresh reports whether the access token of info is expired, or about
// to, at now. A set without an issue time always needs one.
func needsRefresh(info *pixiv.AuthInfo, now time.Time) bool {
	return info.IssuedAt.IsZero() || info.Expired(now.Add(time.Minute))
}

// authenticatedClient returns a client whose access token is usable,
// refreshing and storing the held set when needsRefresh says so.
func (e *env) authenticatedClient(ctx context.Context) (*aapi.Client, error) {
	c, refreshed, err := e.loadClient(ctx)
	if nil != err {
		return nil, err
	}
	if info := c.AuthInfo(); !refreshed && needsRefresh(info, time.Now()) {
		e.logger.Debug().Time("expires_at", info.ExpiresAt()).Msg("Access token expired. Refreshing")
		if err := c.Refresh(ctx); nil != err {
			return nil, err
		}
		if err := e.save(c); nil != err {
			return nil, err
		}
	}
	return c, nil
}

// refreshCredentials redeems the refresh token exactly once and stores the
// resulting set.
func (e *env) refreshCredentials(ctx context.Context) (*aapi.Client, error) {
	c, refreshed, err := e.loadClient(ctx)
	if nil != err {
		return nil, err
	}
	if !refreshed {
		if err := c.Refresh(ctx); nil != err {
			return nil, err
		}
	}
	if err := e.save(c); nil != err {
		return nil, err
	}
	return c, nil
}

// newHTTPClient bounds the wait for response headers only, so that large
// image bodies on slow links are not cut off. API calls bound their whole
// exchange with apiContext instead.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert
	transport.ResponseHeaderTimeout = timeout
	//nolint:exhaustruct
	return &http.Client{Transport: transport}
}

// apiContext bounds a single App-API call, body included.
func (e *env) apiContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.RequestTimeout)
}
