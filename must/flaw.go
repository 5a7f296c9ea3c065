// Package must converts errors whose type is guaranteed by construction,
// panicking when the guarantee is broken.
package must

import (
	"errors"
	"fmt"

	"github.com/xeptore/flaw/v8"
)

// BeFlaw returns the *flaw.Flaw in the chain of err. pixiv errors carry one
// as their cause.
func BeFlaw(err error) *flaw.Flaw {
	if f := new(flaw.Flaw); errors.As(err, &f) {
		return f
	}
	panic(fmt.Sprintf("expected error to be of type *flaw.Flaw, got error of type %T: %v", err, err))
}

// JoinFlaw adds next to err, which must hold a *flaw.Flaw when non-nil. It
// returns next when err is nil.
func JoinFlaw(err error, next *flaw.Flaw) error {
	if nil == err {
		return next
	}
	return BeFlaw(err).Join(next)
}
