// Package tokenstore persists pixiv credential sets between runs, in the
// system keyring when one is available and in a JSON file otherwise.
package tokenstore

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"
	"github.com/zalando/go-keyring"

	"github.com/xeptore/pxv/errutil"
	"github.com/xeptore/pxv/pixiv"
)

const (
	keyringService = "pxv"
	keyringUser    = "pixiv"
	checkUser      = "pxv::check"
)

var ErrNotFound = errors.New("no stored credentials")

type Store struct {
	useKeyring bool
	file       File
}

// New returns a store that keeps credentials in the system keyring when
// useKeyring is set and the keyring accepts writes, and in a file under dir
// otherwise.
func New(logger zerolog.Logger, dir string, useKeyring bool) *Store {
	s := &Store{useKeyring: false, file: FileFrom(dir)}
	if !useKeyring {
		return s
	}

	if err := keyring.Set(keyringService, checkUser, "check"); nil != err {
		logger.
			Warn().
			Err(err).
			Str("path", s.file.path()).
			Msg("System keyring is unavailable. Credentials will be stored in plaintext file")
		return s
	}
	_ = keyring.Delete(keyringService, checkUser)
	s.useKeyring = true
	return s
}

func (s *Store) UsingKeyring() bool {
	return s.useKeyring
}

// Load returns the stored credential set, or ErrNotFound when none is stored.
func (s *Store) Load() (*pixiv.AuthInfo, error) {
	if !s.useKeyring {
		return s.file.Read()
	}

	data, err := keyring.Get(keyringService, keyringUser)
	if nil != err {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to read credentials from keyring: %v", err)).Append(flawP)
	}

	info := new(pixiv.AuthInfo)
	if err := json.Unmarshal([]byte(data), info); nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to decode keyring credentials: %v", err)).Append(flawP)
	}
	return info, nil
}

// Save replaces the stored credential set with info.
func (s *Store) Save(info pixiv.AuthInfo) error {
	if !s.useKeyring {
		return s.file.Write(info)
	}

	data, err := json.Marshal(info)
	if nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to encode credentials: %v", err)).Append(flawP)
	}
	if err := keyring.Set(keyringService, keyringUser, string(data)); nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to write credentials to keyring: %v", err)).Append(flawP)
	}
	return nil
}

// Delete removes the stored credential set. Deleting when nothing is stored
// is not an error.
func (s *Store) Delete() error {
	if !s.useKeyring {
		return s.file.Remove()
	}
	if err := keyring.Delete(keyringService, keyringUser); nil != err && !errors.Is(err, keyring.ErrNotFound) {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to delete credentials from keyring: %v", err)).Append(flawP)
	}
	return nil
}

// MigrateToKeyring moves credentials stored in the fallback file into the
// keyring and removes the file. It does nothing when the keyring is not in
// use or no file exists.
func (s *Store) MigrateToKeyring() error {
	if !s.useKeyring {
		return nil
	}

	info, err := s.file.Read()
	if nil != err {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.Save(*info); nil != err {
		return err
	}
	return s.file.Remove()
}
