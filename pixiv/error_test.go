package pixiv_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/pxv/pixiv"
)

func TestAPIError(t *testing.T) {
	t.Parallel()

	err := error(&pixiv.APIError{Origin: pixiv.OriginOAuth, Code: pixiv.CodeInvalidGrant, Message: "invalid_grant"})
	assert.Equal(t, "OAuth error: invalid_grant (invalid_grant code 1508)", err.Error())

	wrapped := fmt.Errorf("refresh: %w", err)
	assert.True(t, pixiv.IsAPIError(wrapped, pixiv.CodeInvalidGrant))
	assert.False(t, pixiv.IsAPIError(wrapped, pixiv.CodeBadRequest))
	assert.False(t, pixiv.IsAPIError(errors.New("other"), pixiv.CodeInvalidGrant))

	assert.Equal(t, "App-API", pixiv.OriginAppAPI.String())
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	errs := []pixiv.Error{
		&pixiv.TransportError{StatusCode: 0, Err: io.ErrUnexpectedEOF},
		&pixiv.DecodeError{Err: io.ErrUnexpectedEOF},
		&pixiv.IOError{Err: io.ErrUnexpectedEOF},
	}
	for _, err := range errs {
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	}

	status := &pixiv.TransportError{StatusCode: 503, Err: errors.New("unexpected status code: 503")}
	assert.Contains(t, status.Error(), "503")
}
