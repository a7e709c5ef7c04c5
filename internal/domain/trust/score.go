package trust

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/domain/identity"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/ledger"
)

type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

type Factors struct {
	IdentityVerified bool `json:"identity_verified"`
	TransactionCount int  `json:"transaction_count"`
}

type Score struct {
	Score   int     `json:"score"`
	Risk    Risk    `json:"risk"`
	Factors Factors `json:"factors"`
}

type LedgerClient interface {
	AccountInfo(ctx context.Context, address string) (*ledger.AccountInfo, error)
	AccountTx(ctx context.Context, address string, limit int) ([]ledger.Transaction, error)
}

type Service struct {
	ledger LedgerClient
}

func NewService(ledgerClient LedgerClient) *Service {
	return &Service{ledger: ledgerClient}
}

// Evaluate derives a risk classification from the account's observable
// history. It never fails: any lookup error collapses to the worst bucket,
// and a partial failure (history fetched, account info not) keeps whatever
// points were computable and drops only the age bonus.
func (s *Service) Evaluate(ctx context.Context, address string) Score {
	txs, err := s.ledger.AccountTx(ctx, address, 100)
	if err != nil {
		return Score{Score: 0, Risk: RiskHigh, Factors: Factors{}}
	}

	txCount := len(txs)
	verified := false
	for _, tx := range txs {
		if identity.HasClaimMemo(tx) {
			verified = true
			break
		}
	}

	var sequence uint32
	info, err := s.ledger.AccountInfo(ctx, address)
	if err == nil {
		sequence = info.Sequence
		if !verified && domainMarksIdentity(info.Domain) {
			verified = true
		}
	}

	score, risk := Compute(txCount, verified, sequence)
	return Score{
		Score:   score,
		Risk:    risk,
		Factors: Factors{IdentityVerified: verified, TransactionCount: txCount},
	}
}

// Compute is the deterministic core of the score: activity points capped at
// 20, an age proxy from the account sequence capped at 5, and a flat 10 for
// a present identity claim.
func Compute(txCount int, identityVerified bool, sequence uint32) (int, Risk) {
	activityPoints := txCount / 10
	if activityPoints > 20 {
		activityPoints = 20
	}

	agePoints := 0
	if sequence > 0 {
		agePoints = int(sequence / 50)
		if agePoints > 5 {
			agePoints = 5
		}
	}

	identityPoints := 0
	if identityVerified {
		identityPoints = 10
	}

	score := activityPoints + agePoints + identityPoints
	return score, BucketFor(score)
}

func BucketFor(score int) Risk {
	switch {
	case score > 20:
		return RiskLow
	case score >= 10:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func domainMarksIdentity(domainHex string) bool {
	raw, err := hex.DecodeString(strings.TrimSpace(domainHex))
	if err != nil {
		return false
	}
	return string(raw) == identity.DomainMarker
}
