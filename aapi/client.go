// Package aapi is an authenticated client for the pixiv App API.
//
// A Client starts unauthenticated. It becomes authenticated through the
// interactive authorization flow (Authenticate) or by redeeming a previously
// persisted refresh token (RefreshAuth), and stays authenticated from then on.
// Refresh replaces the held credential set with a new one; a failed refresh
// leaves the previous set in place. Access token expiry is advisory: the
// client never refreshes on its own.
//
// Refresh reads the held refresh token and swaps the credential set in two
// steps. Callers issuing requests concurrently with a refresh may observe
// either token and should serialize refreshes themselves.
package aapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/xeptore/pxv/log"
	"github.com/xeptore/pxv/oauth"
	"github.com/xeptore/pxv/pixiv"
)

var ErrUnauthenticated = errors.New("client is not authenticated")

type Client struct {
	http   *http.Client
	logger zerolog.Logger

	mu   sync.RWMutex
	auth *pixiv.AuthInfo
}

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithAuthInfo starts the client authenticated with a previously issued
// credential set.
func WithAuthInfo(info *pixiv.AuthInfo) Option {
	return func(c *Client) {
		if nil == info {
			return
		}
		cp := *info
		c.auth = &cp
	}
}

// New creates an unauthenticated client. The client keeps its own copy of
// httpClient; later changes to httpClient do not affect it. A nil httpClient
// is treated as a zero http.Client.
func New(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		http:   configureHTTPClient(httpClient),
		logger: zerolog.Nop(),
		mu:     sync.RWMutex{},
		auth:   nil,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthInfo returns a copy of the held credential set, or nil when the client
// is unauthenticated.
func (c *Client) AuthInfo() *pixiv.AuthInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if nil == c.auth {
		return nil
	}
	cp := *c.auth
	return &cp
}

func (c *Client) IsAuthenticated() bool {
	return nil != c.AuthInfo()
}

func (c *Client) setAuth(info *pixiv.AuthInfo) {
	c.mu.Lock()
	c.auth = info
	c.mu.Unlock()

	c.logger.
		Debug().
		Stringer("user_id", info.User.ID).
		Str("access_token", log.RedactString(info.AccessToken)).
		Dur("expires_in", info.ExpiresIn).
		Msg("Credential set replaced")
}

// Authenticate runs the interactive authorization code flow, asking src for
// the code, and replaces the held credential set on success.
func (c *Client) Authenticate(ctx context.Context, src oauth.CodeSource) error {
	info, err := oauth.Authenticate(ctx, c.http, src)
	if nil != err {
		c.logger.Debug().Func(log.Flaw(err)).Msg("Authorization code exchange failed")
		return err
	}
	c.setAuth(info)
	return nil
}

// RefreshAuth redeems refreshToken, typically one persisted from an earlier
// session, and replaces the held credential set on success.
func (c *Client) RefreshAuth(ctx context.Context, refreshToken string) error {
	info, err := oauth.Refresh(ctx, c.http, refreshToken)
	if nil != err {
		c.logger.Debug().Func(log.Flaw(err)).Msg("Refresh token exchange failed")
		return err
	}
	c.setAuth(info)
	return nil
}

// Refresh redeems the refresh token of the held credential set. It returns
// ErrUnauthenticated when there is none.
func (c *Client) Refresh(ctx context.Context) error {
	current := c.AuthInfo()
	if nil == current {
		return ErrUnauthenticated
	}
	return c.RefreshAuth(ctx, current.RefreshToken)
}

// Token returns the held access token in golang.org/x/oauth2 form, so that a
// Client can serve as an oauth2.TokenSource. It never refreshes.
func (c *Client) Token() (*oauth2.Token, error) {
	info := c.AuthInfo()
	if nil == info {
		return nil, ErrUnauthenticated
	}
	return &oauth2.Token{
		AccessToken:  info.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: info.RefreshToken,
		Expiry:       info.ExpiresAt(),
		ExpiresIn:    int64(info.ExpiresIn / time.Second),
	}, nil
}

var _ oauth2.TokenSource = (*Client)(nil)
