package errutil_test

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/pxv/errutil"
	"github.com/xeptore/pxv/pixiv"
)

func TestTree(t *testing.T) {
	t.Parallel()

	t.Run("NilErr", func(t *testing.T) {
		t.Parallel()
		assert.PanicsWithValue(t, "nil error", func() { errutil.Tree(nil) })
	})

	t.Run("SimpleStringErr", func(t *testing.T) {
		t.Parallel()
		tree := errutil.Tree(errors.New("simple string error"))
		expected := errutil.ErrInfo{
			Message:  "simple string error",
			TypeName: "*errors.errorString",
			Children: nil,
		}
		assertErrInfoAreEqual(t, expected, tree)
	})

	t.Run("URLErr", func(t *testing.T) {
		t.Parallel()
		tree := errutil.Tree(&url.Error{Op: "Post", URL: "https://oauth.secure.pixiv.net/auth/token", Err: io.ErrUnexpectedEOF})
		expected := errutil.ErrInfo{
			Message:  `Post "https://oauth.secure.pixiv.net/auth/token": unexpected EOF`,
			TypeName: "*url.Error",
			Children: []errutil.ErrInfo{
				{
					Message:  "unexpected EOF",
					TypeName: "*errors.errorString",
					Children: nil,
				},
			},
		}
		assertErrInfoAreEqual(t, expected, tree)
	})

	t.Run("JoinedTransportErrs", func(t *testing.T) {
		t.Parallel()
		tree := errutil.Tree(
			errors.Join(
				&pixiv.TransportError{StatusCode: 0, Err: errors.New("connection reset")},
				fmt.Errorf("wrapped: %w", &pixiv.IOError{Err: io.ErrShortWrite}),
			),
		)
		expected := errutil.ErrInfo{
			Message:  "transport error: connection reset\nwrapped: io error: short write",
			TypeName: "*errors.joinError",
			Children: []errutil.ErrInfo{
				{
					Message:  "transport error: connection reset",
					TypeName: "*pixiv.TransportError",
					Children: []errutil.ErrInfo{
						{
							Message:  "connection reset",
							TypeName: "*errors.errorString",
							Children: nil,
						},
					},
				},
				{
					Message:  "wrapped: io error: short write",
					TypeName: "*fmt.wrapError",
					Children: []errutil.ErrInfo{
						{
							Message:  "io error: short write",
							TypeName: "*pixiv.IOError",
							Children: []errutil.ErrInfo{
								{
									Message:  "short write",
									TypeName: "*errors.errorString",
									Children: nil,
								},
							},
						},
					},
				},
			},
		}
		assertErrInfoAreEqual(t, expected, tree)
	})

	t.Run("FlawP", func(t *testing.T) {
		t.Parallel()
		p := errutil.Tree(fmt.Errorf("outer: %w", errors.New("inner"))).FlawP()
		assert.Equal(t, "outer: inner", p["message"])
		assert.Len(t, p["children"], 1)
	})
}

func assertErrInfoAreEqual(t *testing.T, expected, actual errutil.ErrInfo) {
	t.Helper()
	assert.Exactly(t, expected.Message, actual.Message, "unequal Message field: expected: %q, actual: %q", expected.Message, actual.Message)
	assert.Exactly(t, expected.TypeName, actual.TypeName, "unequal TypeName field: expected: %q, actual: %q", expected.TypeName, actual.TypeName)
	assert.Len(t, actual.Children, len(expected.Children), "unequal Children length: expected: %d, actual: %d", len(expected.Children), len(actual.Children))
	for i, child := range actual.Children {
		assertErrInfoAreEqual(t, expected.Children[i], child)
	}
}
