package tokenstore_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/xeptore/pxv/pixiv"
	"github.com/xeptore/pxv/tokenstore"
)

func authInfo() pixiv.AuthInfo {
	return pixiv.AuthInfo{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    time.Hour,
		User: pixiv.User{
			ID:               7,
			Name:             "name",
			Account:          "account",
			MailAddress:      "m@example.com",
			ProfileImageURLs: pixiv.ProfileImageURLs{"a", "b", "c"},
			IsMailAuthorized: true,
			IsPremium:        true,
			XRestrict:        1,
		},
		IssuedAt: time.Unix(1700000000, 0),
	}
}

func TestFile(t *testing.T) {
	t.Parallel()

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		_, err := tokenstore.FileFrom(t.TempDir()).Read()
		require.ErrorIs(t, err, tokenstore.ErrNotFound)
	})

	t.Run("round_trip", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested")
		f := tokenstore.FileFrom(dir)
		info := authInfo()

		require.NoError(t, f.Write(info))
		got, err := f.Read()
		require.NoError(t, err)
		assert.Equal(t, info.AccessToken, got.AccessToken)
		assert.Equal(t, info.RefreshToken, got.RefreshToken)
		assert.Equal(t, info.ExpiresIn, got.ExpiresIn)
		assert.Equal(t, info.User, got.User)
		assert.True(t, info.IssuedAt.Equal(got.IssuedAt))

		if runtime.GOOS != "windows" {
			stat, err := os.Stat(filepath.Join(dir, "credentials.json"))
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		t.Parallel()

		f := tokenstore.FileFrom(t.TempDir())
		first := authInfo()
		second := authInfo()
		second.RefreshToken = "rotated"

		require.NoError(t, f.Write(first))
		require.NoError(t, f.Write(second))
		got, err := f.Read()
		require.NoError(t, err)
		assert.Equal(t, "rotated", got.RefreshToken)
	})

	t.Run("corrupt", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.json"), []byte(`{"access_token":`), 0o600))

		_, err := tokenstore.FileFrom(dir).Read()
		require.Error(t, err)
		assert.False(t, errors.Is(err, tokenstore.ErrNotFound))
	})

	t.Run("remove", func(t *testing.T) {
		t.Parallel()

		f := tokenstore.FileFrom(t.TempDir())
		require.NoError(t, f.Remove())
		require.NoError(t, f.Write(authInfo()))
		require.NoError(t, f.Remove())

		_, err := f.Read()
		require.ErrorIs(t, err, tokenstore.ErrNotFound)
	})
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	s := tokenstore.New(zerolog.Nop(), t.TempDir(), false)
	require.False(t, s.UsingKeyring())

	_, err := s.Load()
	require.ErrorIs(t, err, tokenstore.ErrNotFound)

	require.NoError(t, s.Save(authInfo()))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "refresh", got.RefreshToken)

	require.NoError(t, s.Delete())
	_, err = s.Load()
	require.ErrorIs(t, err, tokenstore.ErrNotFound)
}

// Keyring tests replace the global keyring provider and must not run in
// parallel with each other.

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	s := tokenstore.New(zerolog.Nop(), t.TempDir(), true)
	require.True(t, s.UsingKeyring())

	_, err := s.Load()
	require.ErrorIs(t, err, tokenstore.ErrNotFound)

	require.NoError(t, s.Save(authInfo()))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, pixiv.ID(7), got.User.ID)

	require.NoError(t, s.Delete())
	require.NoError(t, s.Delete())
	_, err = s.Load()
	require.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestKeyringUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))

	dir := t.TempDir()
	s := tokenstore.New(zerolog.Nop(), dir, true)
	require.False(t, s.UsingKeyring())

	require.NoError(t, s.Save(authInfo()))
	_, err := os.Stat(filepath.Join(dir, "credentials.json"))
	require.NoError(t, err)
}

func TestMigrateToKeyring(t *testing.T) {
	keyring.MockInit()

	dir := t.TempDir()
	require.NoError(t, tokenstore.FileFrom(dir).Write(authInfo()))

	s := tokenstore.New(zerolog.Nop(), dir, true)
	require.NoError(t, s.MigrateToKeyring())

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "refresh", got.RefreshToken)

	_, err = tokenstore.FileFrom(dir).Read()
	require.ErrorIs(t, err, tokenstore.ErrNotFound)
}
