package ledger

import "errors"

// Closed set of error kinds callers branch on. Everything else the ledger
// returns is wrapped as a generic error with the server's message preserved.
var (
	ErrNotConnected    = errors.New("ledger: not connected")
	ErrAccountNotFound = errors.New("ledger: account not found")
	ErrTxNotFound      = errors.New("ledger: transaction not found")
	ErrTimeout         = errors.New("ledger: request timed out")
	ErrRejected        = errors.New("ledger: transaction rejected")
)
