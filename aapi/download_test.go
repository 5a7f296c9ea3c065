package aapi_test

import (
	"bytes"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/pxv/aapi"
	"github.com/xeptore/pxv/internal/testutil"
	"github.com/xeptore/pxv/pixiv"
)

var errSinkFull = errors.New("sink full")

// failingWriter accepts limit bytes and fails on the next one.
type failingWriter struct {
	limit int
	buf   bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	room := w.limit - w.buf.Len()
	if len(p) <= room {
		return w.buf.Write(p)
	}
	n, _ := w.buf.Write(p[:room])
	return n, errSinkFull
}

// shortWriter accepts at most limit bytes per call and never fails.
type shortWriter struct {
	limit int
	buf   bytes.Buffer
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > w.limit {
		p = p[:w.limit]
	}
	return w.buf.Write(p)
}

func downloadServer(t *testing.T, status int, body []byte) (*aapi.Client, <-chan apiRequest) {
	t.Helper()

	reqs := make(chan apiRequest, 1)
	_, hc := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- apiRequest{
			host:          r.Header.Get(testutil.OriginalHostHeader),
			method:        r.Method,
			path:          r.URL.Path,
			query:         r.URL.Query(),
			authorization: r.Header.Get("Authorization"),
			userAgent:     r.Header.Get("User-Agent"),
			referer:       r.Header.Get("Referer"),
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	return aapi.New(hc, aapi.WithAuthInfo(authInfo())), reqs
}

func TestDownload(t *testing.T) {
	t.Parallel()

	body := []byte("0123456789")

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		c, reqs := downloadServer(t, http.StatusOK, body)
		var sink bytes.Buffer

		n, err := c.Download(t.Context(), "https://i.pximg.net/img-original/img/1_p0.png", &sink)
		require.NoError(t, err)
		assert.Equal(t, int64(len(body)), n)
		assert.Equal(t, body, sink.Bytes())

		req := <-reqs
		assert.Equal(t, "i.pximg.net", req.host)
		assert.Equal(t, "/img-original/img/1_p0.png", req.path)
		assert.Equal(t, "https://app-api.pixiv.net", req.referer)
		assert.Equal(t, pixiv.UserAgent, req.userAgent)
		assert.Empty(t, req.authorization)
	})

	t.Run("sink_failure", func(t *testing.T) {
		t.Parallel()

		c, _ := downloadServer(t, http.StatusOK, body)
		sink := &failingWriter{limit: 4, buf: bytes.Buffer{}}

		n, err := c.Download(t.Context(), "https://i.pximg.net/img.png", sink)
		var ioErr *pixiv.IOError
		require.ErrorAs(t, err, &ioErr)
		assert.Zero(t, n)
	})

	t.Run("short_write_sink", func(t *testing.T) {
		t.Parallel()

		c, _ := downloadServer(t, http.StatusOK, body)
		sink := &shortWriter{limit: 4, buf: bytes.Buffer{}}

		n, err := c.Download(t.Context(), "https://i.pximg.net/img.png", sink)
		var ioErr *pixiv.IOError
		require.ErrorAs(t, err, &ioErr)
		var transportErr *pixiv.TransportError
		assert.False(t, errors.As(err, &transportErr))
		assert.Zero(t, n)
	})

	t.Run("status_failure", func(t *testing.T) {
		t.Parallel()

		c, _ := downloadServer(t, http.StatusForbidden, []byte("forbidden"))
		var sink bytes.Buffer

		n, err := c.Download(t.Context(), "https://i.pximg.net/img.png", &sink)
		var transportErr *pixiv.TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, http.StatusForbidden, transportErr.StatusCode)
		assert.Zero(t, n)
		assert.Zero(t, sink.Len())
	})

	t.Run("unauthenticated_client", func(t *testing.T) {
		t.Parallel()

		_, hc := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(body)
		}))
		var sink bytes.Buffer

		n, err := aapi.New(hc).Download(t.Context(), "https://i.pximg.net/img.png", &sink)
		require.NoError(t, err)
		assert.Equal(t, int64(len(body)), n)
	})
}
