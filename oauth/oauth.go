// Package oauth exchanges authorization codes and refresh tokens for pixiv
// credential sets at the pixiv OAuth token endpoint.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/pxv/errutil"
	"github.com/xeptore/pxv/httputil"
	"github.com/xeptore/pxv/jsonutil"
	"github.com/xeptore/pxv/pixiv"
	"github.com/xeptore/pxv/pkce"
)

// Credentials of the official Android app. The latest version can be found at
// https://app-api.pixiv.net/v1/application-info/android.
const (
	clientID     = "MOBrBDS8blbauoSck0ZfDbtuzpyT"
	clientSecret = "lsACyCD94FhDUtGTXi3QzcFE2uU1hqtDaKeqrdwj" //nolint:gosec

	TokenURL    = "https://oauth.secure.pixiv.net/auth/token"
	RedirectURI = pixiv.AppAPIBaseURL + "/web/v1/users/auth/pixiv/callback"
	loginURL    = pixiv.AppAPIBaseURL + "/web/v1/login"
)

// CodeSource shows loginURL to the user and returns the authorization code
// the login page redirects with.
type CodeSource func(ctx context.Context, loginURL string) (code string, err error)

// LoginURL returns the interactive login page URL for a PKCE challenge.
func LoginURL(challenge string) string {
	return loginURL + "?code_challenge=" + url.QueryEscape(challenge) + "&code_challenge_method=" + pkce.MethodS256 + "&client=pixiv-android"
}

// Authenticate runs the authorization code flow: it asks src for a code using
// a fresh PKCE challenge, then exchanges the code for a credential set.
func Authenticate(ctx context.Context, client *http.Client, src CodeSource) (*pixiv.AuthInfo, error) {
	pair, err := pkce.New(pkce.DefaultVerifierLength)
	if nil != err {
		return nil, err
	}

	code, err := src(ctx, LoginURL(pair.Challenge))
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		var pixivErr pixiv.Error
		if errors.As(err, &pixivErr) {
			return nil, err
		}
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, &pixiv.IOError{Err: flaw.From(fmt.Errorf("failed to obtain authorization code: %v", err)).Append(flawP)}
	}

	params := url.Values{
		"client_id":      {clientID},
		"client_secret":  {clientSecret},
		"redirect_uri":   {RedirectURI},
		"code":           {strings.TrimSpace(code)},
		"code_verifier":  {pair.Verifier},
		"grant_type":     {"authorization_code"},
		"include_policy": {"true"},
	}
	return exchange(ctx, client, params)
}

// Refresh exchanges refreshToken for a new credential set.
func Refresh(ctx context.Context, client *http.Client, refreshToken string) (*pixiv.AuthInfo, error) {
	params := url.Values{
		"client_id":      {clientID},
		"client_secret":  {clientSecret},
		"grant_type":     {"refresh_token"},
		"refresh_token":  {refreshToken},
		"get_secure_url": {"1"},
	}
	return exchange(ctx, client, params)
}

func exchange(ctx context.Context, client *http.Client, params url.Values) (info *pixiv.AuthInfo, err error) {
	flawP := flaw.P{"url": TokenURL, "grant_type": params.Get("grant_type")}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, TokenURL, strings.NewReader(params.Encode()))
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, &pixiv.TransportError{
			StatusCode: 0,
			Err:        flaw.From(fmt.Errorf("failed to create token request: %v", err)).Append(flawP),
		}
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httputil.Send(ctx, client, req)
	if nil != err {
		return nil, err
	}
	defer func() {
		httputil.CloseResponseBody(resp, &err)
		if nil != err {
			info = nil
		}
	}()
	flawP["response"] = errutil.HTTPResponseFlawPayload(resp)

	respBytes, err := httputil.ReadResponseBody(ctx, resp)
	if nil != err {
		return nil, err
	}

	if !gjson.ValidBytes(respBytes) {
		if !httputil.IsSuccess(resp.StatusCode) {
			return nil, httputil.StatusError(resp, respBytes)
		}
		flawP["response_body"] = string(respBytes)
		return nil, &pixiv.DecodeError{Err: flaw.From(errors.New("token response body is not valid json")).Append(flawP)}
	}

	if err := checkError(gjson.ParseBytes(respBytes)); nil != err {
		return nil, err
	}

	var out pixiv.AuthInfo
	if err := json.Unmarshal(respBytes, &out); nil != err {
		if decodeErr := new(pixiv.DecodeError); errors.As(err, &decodeErr) {
			return nil, decodeErr
		}
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, &pixiv.DecodeError{Err: flaw.From(fmt.Errorf("failed to decode token response body: %v", err)).Append(flawP)}
	}
	out.IssuedAt = time.Now()

	return &out, nil
}

// checkError reports the provider error carried by a token endpoint response,
// if any. Missing error details default to an empty message and code zero.
func checkError(v gjson.Result) error {
	if !jsonutil.Bool(v, "has_error") {
		return nil
	}

	system := v.Get("errors.system")
	return &pixiv.APIError{
		Origin:  pixiv.OriginOAuth,
		Code:    pixiv.ErrorCode(jsonutil.Uint16(system, "code")),
		Message: jsonutil.String(system, "message"),
	}
}
