package aapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/pxv/errutil"
	"github.com/xeptore/pxv/httputil"
	"github.com/xeptore/pxv/jsonutil"
	"github.com/xeptore/pxv/pixiv"
)

// Do sends an authenticated App-API request and returns the response when its
// status is 2xx. The caller must close the response body.
//
// endpoint is either a path relative to pixiv.AppAPIBaseURL or an absolute
// URL, such as the next_url of a paginated response. params are added to the
// query string of the request URL.
//
// A 4xx response is returned as a *pixiv.APIError carrying the status code.
// Any other non-2xx response is a *pixiv.TransportError carrying it.
func (c *Client) Do(ctx context.Context, method, endpoint string, params url.Values) (*http.Response, error) {
	info := c.AuthInfo()
	if nil == info {
		return nil, ErrUnauthenticated
	}

	reqURL, err := resolveEndpoint(endpoint, params)
	if nil != err {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if nil != err {
		flawP := flaw.P{"method": method, "url": reqURL}
		return nil, &pixiv.TransportError{
			StatusCode: 0,
			Err:        flaw.From(fmt.Errorf("failed to create request: %v", err)).Append(flawP),
		}
	}
	req.Header.Set("Authorization", "Bearer "+info.AccessToken)

	resp, err := httputil.Send(ctx, c.http, req)
	if nil != err {
		return nil, err
	}

	c.logger.
		Debug().
		Str("method", method).
		Str("url", req.URL.Redacted()).
		Int("status_code", resp.StatusCode).
		Msg("App-API response received")

	if err := classifyResponse(ctx, resp); nil != err {
		if closeErr := resp.Body.Close(); nil != closeErr {
			c.logger.Debug().Err(closeErr).Msg("Failed to close error response body")
		}
		return nil, err
	}
	return resp, nil
}

func resolveEndpoint(endpoint string, params url.Values) (string, error) {
	raw := endpoint
	if !strings.HasPrefix(endpoint, "https://") && !strings.HasPrefix(endpoint, "http://") {
		if !strings.HasPrefix(endpoint, "/") {
			raw = "/" + endpoint
		}
		raw = pixiv.AppAPIBaseURL + raw
	}

	u, err := url.Parse(raw)
	if nil != err {
		flawP := flaw.P{"endpoint": endpoint}
		return "", &pixiv.TransportError{
			StatusCode: 0,
			Err:        flaw.From(fmt.Errorf("invalid endpoint: %v", err)).Append(flawP),
		}
	}
	if len(params) == 0 {
		return u.String(), nil
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func classifyResponse(ctx context.Context, resp *http.Response) error {
	switch code := resp.StatusCode; {
	case httputil.IsSuccess(code):
		return nil
	case httputil.IsClientError(code):
		body, err := httputil.ReadResponseBody(ctx, resp)
		if nil != err {
			return err
		}
		if !gjson.ValidBytes(body) {
			flawP := flaw.P{
				"response":      errutil.HTTPResponseFlawPayload(resp),
				"response_body": string(body),
			}
			return &pixiv.DecodeError{
				Err: flaw.From(fmt.Errorf("App-API error response with status code %d is not valid JSON", code)).Append(flawP),
			}
		}
		v := gjson.ParseBytes(body).Get("error")
		return &pixiv.APIError{
			Origin:  pixiv.OriginAppAPI,
			Code:    pixiv.ErrorCode(code), //nolint:gosec
			Message: jsonutil.String(v, "reason") + jsonutil.String(v, "user_message") + jsonutil.String(v, "message"),
		}
	default:
		body, err := httputil.ReadResponseBody(ctx, resp)
		if nil != err && errutil.IsContext(ctx) {
			return err
		}
		return httputil.StatusError(resp, body)
	}
}

func (c *Client) readBody(ctx context.Context, method, endpoint string, params url.Values) (body []byte, err error) {
	resp, err := c.Do(ctx, method, endpoint, params)
	if nil != err {
		return nil, err
	}
	defer func() {
		httputil.CloseResponseBody(resp, &err)
		if nil != err {
			body = nil
		}
	}()

	return httputil.ReadResponseBody(ctx, resp)
}

// Text returns the body of a successful App-API response as is.
func (c *Client) Text(ctx context.Context, method, endpoint string, params url.Values) (string, error) {
	body, err := c.readBody(ctx, method, endpoint, params)
	if nil != err {
		return "", err
	}
	return string(body), nil
}

// JSON returns the parsed body of a successful App-API response. A body that
// is not valid JSON is a *pixiv.DecodeError.
func (c *Client) JSON(ctx context.Context, method, endpoint string, params url.Values) (gjson.Result, error) {
	body, err := c.readBody(ctx, method, endpoint, params)
	if nil != err {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		flawP := flaw.P{"endpoint": endpoint, "response_body": string(body)}
		return gjson.Result{}, &pixiv.DecodeError{
			Err: flaw.From(errors.New("App-API response is not valid JSON")).Append(flawP),
		}
	}
	return gjson.ParseBytes(body), nil
}

// Into decodes the body of a successful App-API response into a new T.
func Into[T any](ctx context.Context, c *Client, method, endpoint string, params url.Values) (*T, error) {
	body, err := c.readBody(ctx, method, endpoint, params)
	if nil != err {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(body, &out); nil != err {
		var decodeErr *pixiv.DecodeError
		if errors.As(err, &decodeErr) {
			return nil, decodeErr
		}
		flawP := flaw.P{
			"endpoint":       endpoint,
			"response_body":  string(body),
			"err_debug_tree": errutil.Tree(err).FlawP(),
		}
		return nil, &pixiv.DecodeError{
			Err: flaw.From(fmt.Errorf("failed to decode App-API response: %v", err)).Append(flawP),
		}
	}
	return &out, nil
}
