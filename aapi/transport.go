package aapi

import (
	"errors"
	"net/http"

	"github.com/xeptore/pxv/pixiv"
)

const maxRedirects = 10

type userAgentTransport struct {
	base http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Header.Set("User-Agent", pixiv.UserAgent)
	return t.base.RoundTrip(out)
}

// configureHTTPClient returns a copy of hc that sends the fixed User-Agent on
// every request and does not send the Referer net/http adds on redirects,
// unless the first request of the chain set one itself.
func configureHTTPClient(hc *http.Client) *http.Client {
	out := new(http.Client)
	if nil != hc {
		*out = *hc
	}

	base := out.Transport
	if nil == base {
		base = http.DefaultTransport
	}
	out.Transport = userAgentTransport{base: base}

	checkRedirect := out.CheckRedirect
	out.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if via[0].Header.Get("Referer") == "" {
			req.Header.Del("Referer")
		}
		if nil != checkRedirect {
			return checkRedirect(req, via)
		}
		if len(via) >= maxRedirects {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}
	return out
}
