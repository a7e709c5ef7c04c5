package wallet

import (
	"context"
	"errors"
	"regexp"
)

// Signing failures callers can branch on.
var (
	ErrInvalidSecret      = errors.New("wallet: invalid secret")
	ErrMethodUnavailable  = errors.New("wallet: signing method unavailable")
	ErrSignRejected       = errors.New("wallet: signing rejected by user")
	ErrSignTimeout        = errors.New("wallet: signing timed out")
	ErrNoUsableSignMethod = errors.New("wallet: no usable signing method")
)

var (
	addressPattern = regexp.MustCompile(`^r[1-9A-HJ-NP-Za-km-z]{24,34}$`)
	secretPattern  = regexp.MustCompile(`^s[1-9A-HJ-NP-Za-km-z]{25,}$`)
)

func IsValidAddress(address string) bool {
	return addressPattern.MatchString(address)
}

type SignedTx struct {
	Hash string
	Blob string
}

// Signer is the capability a session carries for producing signed
// transactions. Exactly two implementations exist: LocalSigner holds secret
// material and signs synchronously; DelegatedSigner forwards to externally
// provided signing callbacks with bounded waits.
type Signer interface {
	Address() string
	Sign(ctx context.Context, tx map[string]any) (*SignedTx, error)
}
