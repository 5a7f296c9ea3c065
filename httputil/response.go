package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/pxv/errutil"
	"github.com/xeptore/pxv/pixiv"
)

// Send issues req with client. Failures caused by ctx ending are returned as
// ctx.Err(), every other failure as a *pixiv.TransportError.
func Send(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP := flaw.P{
			"request":        errutil.HTTPRequestFlawPayload(req),
			"err_debug_tree": errutil.Tree(err).FlawP(),
		}
		return nil, &pixiv.TransportError{
			StatusCode: 0,
			Err:        flaw.From(fmt.Errorf("failed to issue %s request: %v", req.Method, err)).Append(flawP),
		}
	}
	return resp, nil
}

// ReadResponseBody reads the whole body of resp. An empty body is not an error.
func ReadResponseBody(ctx context.Context, resp *http.Response) ([]byte, error) {
	respBody, err := io.ReadAll(resp.Body)
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP := flaw.P{
			"response":       errutil.HTTPResponseFlawPayload(resp),
			"err_debug_tree": errutil.Tree(err).FlawP(),
		}
		return nil, &pixiv.TransportError{
			StatusCode: 0,
			Err:        flaw.From(fmt.Errorf("failed to read response body: %v", err)).Append(flawP),
		}
	}
	return respBody, nil
}

// CloseResponseBody closes the body of resp and reports a close failure
// through err, unless err already holds a failure.
func CloseResponseBody(resp *http.Response, err *error) {
	closeErr := resp.Body.Close()
	if nil == closeErr || nil != *err {
		return
	}
	flawP := flaw.P{
		"response":       errutil.HTTPResponseFlawPayload(resp),
		"err_debug_tree": errutil.Tree(closeErr).FlawP(),
	}
	*err = &pixiv.TransportError{
		StatusCode: 0,
		Err:        flaw.From(fmt.Errorf("failed to close response body: %v", closeErr)).Append(flawP),
	}
}

// StatusError builds the *pixiv.TransportError for a response whose status
// code the caller does not handle. body may be nil.
func StatusError(resp *http.Response, body []byte) error {
	flawP := flaw.P{"response": errutil.HTTPResponseFlawPayload(resp)}
	if len(body) > 0 {
		flawP["response_body"] = string(body)
	}
	return &pixiv.TransportError{
		StatusCode: resp.StatusCode,
		Err:        flaw.From(fmt.Errorf("unexpected status code: %d", resp.StatusCode)).Append(flawP),
	}
}

func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

func IsClientError(code int) bool {
	return code >= 400 && code < 500
}
