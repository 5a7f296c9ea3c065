package aapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/pxv/errutil"
	"github.com/xeptore/pxv/httputil"
	"github.com/xeptore/pxv/pixiv"
)

type sinkWriter struct {
	w   io.Writer
	err error
}

func (s *sinkWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if nil == err && n < len(p) {
		err = io.ErrShortWrite
	}
	if nil != err {
		s.err = err
	}
	return n, err
}

// Download fetches rawURL, usually a pixiv image URL, and streams its body to
// w. It returns the number of bytes written. On failure the count is 0 and w
// may hold a partial body.
//
// The request carries the App-API Referer and no credentials, so it works on
// an unauthenticated client.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (n int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if nil != err {
		flawP := flaw.P{"url": rawURL}
		return 0, &pixiv.TransportError{
			StatusCode: 0,
			Err:        flaw.From(fmt.Errorf("failed to create download request: %v", err)).Append(flawP),
		}
	}
	req.Header.Set("Referer", pixiv.AppAPIBaseURL)

	resp, err := httputil.Send(ctx, c.http, req)
	if nil != err {
		return 0, err
	}
	defer func() {
		httputil.CloseResponseBody(resp, &err)
		if nil != err {
			n = 0
		}
	}()

	if !httputil.IsSuccess(resp.StatusCode) {
		return 0, httputil.StatusError(resp, nil)
	}

	sink := &sinkWriter{w: w, err: nil}
	written, err := io.Copy(sink, resp.Body)
	if nil != err {
		flawP := flaw.P{
			"response":       errutil.HTTPResponseFlawPayload(resp),
			"written":        written,
			"err_debug_tree": errutil.Tree(err).FlawP(),
		}
		if nil != sink.err || errors.Is(err, io.ErrShortWrite) {
			return 0, &pixiv.IOError{
				Err: flaw.From(fmt.Errorf("failed to write download body: %v", err)).Append(flawP),
			}
		}
		if errutil.IsContext(ctx) {
			return 0, ctx.Err()
		}
		return 0, &pixiv.TransportError{
			StatusCode: 0,
			Err:        flaw.From(fmt.Errorf("failed to read download body: %v", err)).Append(flawP),
		}
	}

	c.logger.
		Debug().
		Str("url", req.URL.Redacted()).
		Int64("bytes", written).
		Msg("Download completed")
	return written, nil
}
