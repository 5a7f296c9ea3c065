// Package pkce generates Proof Key for Code Exchange verifiers and their S256
// challenges.
package pkce

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/xeptore/flaw/v8"
	"golang.org/x/oauth2"

	"github.com/xeptore/pxv/errutil"
	"github.com/xeptore/pxv/pixiv"
)

const (
	DefaultVerifierLength = 32
	MethodS256            = "S256"
)

// Pair is a verifier and the challenge derived from it.
type Pair struct {
	Verifier  string
	Challenge string
	Method    string
}

func New(length int) (*Pair, error) {
	verifier, err := RandomVerifier(length)
	if nil != err {
		return nil, err
	}
	return &Pair{
		Verifier:  verifier,
		Challenge: Challenge(verifier),
		Method:    MethodS256,
	}, nil
}

// RandomVerifier returns length random bytes encoded as unpadded URL-safe
// base64.
func RandomVerifier(length int) (string, error) {
	return randomVerifier(rand.Reader, length)
}

func randomVerifier(r io.Reader, length int) (string, error) {
	if length < 0 {
		return "", &pixiv.IOError{Err: flaw.From(fmt.Errorf("invalid verifier length %d", length))}
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); nil != err {
		flawP := flaw.P{"length": length, "err_debug_tree": errutil.Tree(err).FlawP()}
		return "", &pixiv.IOError{Err: flaw.From(fmt.Errorf("failed to read random bytes: %v", err)).Append(flawP)}
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Challenge returns the unpadded URL-safe base64 SHA-256 digest of verifier.
func Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}
