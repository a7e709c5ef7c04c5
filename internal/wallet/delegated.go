package wallet

import (
	"context"
	"errors"
	"time"
)

// SignFunc is one externally provided signing capability, e.g. a browser
// extension method proxied to the backend. It may block until the user acts.
type SignFunc func(ctx context.Context, tx map[string]any) (*SignedTx, error)

// methodOrder is the fixed preference order in which capabilities are tried.
var methodOrder = []string{"signAndSubmit", "sign", "signTransaction"}

// DelegatedSigner tries each available signing method in preference order,
// bounding every attempt with a wall-clock timeout. Unavailable methods and
// timeouts fall through to the next method; an outright user rejection stops
// the chain.
type DelegatedSigner struct {
	address string
	methods map[string]SignFunc
	timeout time.Duration
}

func NewDelegatedSigner(address string, methods map[string]SignFunc, timeout time.Duration) (*DelegatedSigner, error) {
	if !IsValidAddress(address) {
		return nil, errors.New("wallet: invalid address")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DelegatedSigner{address: address, methods: methods, timeout: timeout}, nil
}

func (s *DelegatedSigner) Address() string {
	return s.address
}

func (s *DelegatedSigner) Sign(ctx context.Context, tx map[string]any) (*SignedTx, error) {
	tx["Account"] = s.address
	for _, name := range methodOrder {
		fn, ok := s.methods[name]
		if !ok {
			continue
		}
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		signed, err := fn(attemptCtx, tx)
		cancel()
		if err == nil {
			return signed, nil
		}
		if errors.Is(err, ErrSignRejected) {
			return nil, err
		}
		if errors.Is(err, ErrMethodUnavailable) ||
			errors.Is(err, ErrSignTimeout) ||
			errors.Is(err, context.DeadlineExceeded) {
			continue
		}
		return nil, err
	}
	return nil, ErrNoUsableSignMethod
}
