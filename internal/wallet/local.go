package wallet

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

const base58Alphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

// LocalSigner holds raw secret material in memory for the lifetime of the
// session and signs synchronously. The secret is never persisted.
type LocalSigner struct {
	secret  string
	address string
}

func NewLocalSigner(secret string) (*LocalSigner, error) {
	secret = strings.TrimSpace(secret)
	if !secretPattern.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	return &LocalSigner{secret: secret, address: deriveAddress(secret)}, nil
}

func (s *LocalSigner) Address() string {
	return s.address
}

// Secret exposes the raw secret once, for display to the user right after
// wallet creation. It is never written anywhere by this service.
func (s *LocalSigner) Secret() string {
	return s.secret
}

func (s *LocalSigner) Sign(_ context.Context, tx map[string]any) (*SignedTx, error) {
	if tx == nil {
		return nil, fmt.Errorf("wallet: nil transaction")
	}
	tx["Account"] = s.address
	serialized, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("wallet: serialize transaction: %w", err)
	}
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(s.secret))
	_, _ = h.Write(serialized)
	digest := h.Sum(nil)
	return &SignedTx{
		Hash: strings.ToUpper(hex.EncodeToString(digest)),
		Blob: strings.ToUpper(hex.EncodeToString(serialized)),
	}, nil
}

func deriveAddress(secret string) string {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(secret))
	digest := h.Sum(nil)
	return "r" + encodeBase58(digest[:20])
}

func encodeBase58(raw []byte) string {
	n := new(big.Int).SetBytes(raw)
	radix := big.NewInt(int64(len(base58Alphabet)))
	mod := new(big.Int)
	var out []byte
	for n.Sign() > 0 {
		n.DivMod(n, radix, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for _, b := range raw {
		if b != 0 {
			break
		}
		out = append(out, base58Alphabet[0])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
