package wallet

import (
	"crypto/rand"
	"fmt"
)

const secretLength = 28

// Generate creates a new local signer with a random secret. The secret is
// returned only through the signer; callers decide whether to surface it.
func Generate() (*LocalSigner, error) {
	buf := make([]byte, secretLength)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("wallet: entropy: %w", err)
	}
	secret := make([]byte, 0, secretLength+1)
	secret = append(secret, 's')
	for _, b := range buf {
		secret = append(secret, base58Alphabet[int(b)%len(base58Alphabet)])
	}
	return NewLocalSigner(string(secret))
}
