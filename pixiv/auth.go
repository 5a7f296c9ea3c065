package pixiv

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/pxv/errutil"
)

// AuthInfo is the credential set issued by the token endpoint. It is replaced
// as a whole on refresh and never mutated in place.
type AuthInfo struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access token lifetime relative to IssuedAt.
	ExpiresIn time.Duration
	User      User
	// IssuedAt is when the token endpoint response was received. It is zero
	// for credential sets decoded from a payload that does not record it.
	IssuedAt time.Time
}

func (a AuthInfo) ExpiresAt() time.Time {
	if a.IssuedAt.IsZero() {
		return time.Time{}
	}
	return a.IssuedAt.Add(a.ExpiresIn)
}

// Expired reports whether the access token lifetime has passed at now. It
// always reports false when the issue time is unknown.
func (a AuthInfo) Expired(now time.Time) bool {
	if a.IssuedAt.IsZero() {
		return false
	}
	return !now.Before(a.ExpiresAt())
}

type authInfoWire struct {
	AccessToken  *string         `json:"access_token"`
	RefreshToken *string         `json:"refresh_token"`
	ExpiresIn    *int64          `json:"expires_in"`
	User         json.RawMessage `json:"user"`
	IssuedAt     int64           `json:"issued_at,omitempty"`
}

func (a *AuthInfo) UnmarshalJSON(b []byte) error {
	var wire authInfoWire
	if err := json.Unmarshal(b, &wire); nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return &DecodeError{Err: flaw.From(fmt.Errorf("failed to decode auth info: %v", err)).Append(flawP)}
	}

	switch {
	case nil == wire.AccessToken:
		return &DecodeError{Err: flaw.From(errors.New("missing field access_token"))}
	case nil == wire.RefreshToken:
		return &DecodeError{Err: flaw.From(errors.New("missing field refresh_token"))}
	case nil == wire.ExpiresIn:
		return &DecodeError{Err: flaw.From(errors.New("missing field expires_in"))}
	case len(wire.User) == 0:
		return &DecodeError{Err: flaw.From(errors.New("missing field user"))}
	}

	var user User
	if err := user.UnmarshalJSON(wire.User); nil != err {
		return err
	}

	out := AuthInfo{
		AccessToken:  *wire.AccessToken,
		RefreshToken: *wire.RefreshToken,
		ExpiresIn:    time.Duration(*wire.ExpiresIn) * time.Second,
		User:         user,
		IssuedAt:     time.Time{},
	}
	if wire.IssuedAt != 0 {
		out.IssuedAt = time.Unix(wire.IssuedAt, 0)
	}
	*a = out
	return nil
}

// MarshalJSON encodes a in the token endpoint response shape, plus the issue
// time when known, so that the output decodes back into an equal AuthInfo.
func (a AuthInfo) MarshalJSON() ([]byte, error) {
	user, err := a.User.MarshalJSON()
	if nil != err {
		return nil, err
	}
	expiresIn := int64(a.ExpiresIn / time.Second)
	wire := authInfoWire{
		AccessToken:  &a.AccessToken,
		RefreshToken: &a.RefreshToken,
		ExpiresIn:    &expiresIn,
		User:         user,
		IssuedAt:     0,
	}
	if !a.IssuedAt.IsZero() {
		wire.IssuedAt = a.IssuedAt.Unix()
	}
	return json.Marshal(wire)
}
