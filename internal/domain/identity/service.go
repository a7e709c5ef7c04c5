package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/ledger"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/wallet"
)

// Identity claims are self-asserted records embedded as tagged memos on
// otherwise-inert account-configuration transactions. There is no update or
// delete: a new claim is appended and the most recent one wins.
const (
	// MemoTypeClaim tags a memo carrying an identity claim.
	MemoTypeClaim = "did:claim"
	// DomainMarker is the decoded account domain value that also counts as
	// an identity-verification signal.
	DomainMarker = "did:verified"
)

// ErrInvalidClaim reports a claim rejected before anything was submitted.
var ErrInvalidClaim = errors.New("identity: name and phone are required")

type Claim struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"-"`
	TxHash  string `json:"-"`
}

type LedgerClient interface {
	AccountInfo(ctx context.Context, address string) (*ledger.AccountInfo, error)
	AccountTx(ctx context.Context, address string, limit int) ([]ledger.Transaction, error)
	Submit(ctx context.Context, txBlob string) (*ledger.SubmitResult, error)
}

type Service struct {
	ledger LedgerClient
}

func NewService(ledgerClient LedgerClient) *Service {
	return &Service{ledger: ledgerClient}
}

// PublishClaim appends a new identity claim for the session's account. The
// claim rides on an AccountSet transaction whose only payload is the memo.
func (s *Service) PublishClaim(ctx context.Context, session *wallet.Session, name, phone string) (string, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return "", ErrInvalidClaim
	}

	payload, err := json.Marshal(Claim{Name: name, Phone: phone})
	if err != nil {
		return "", err
	}

	info, err := s.ledger.AccountInfo(ctx, session.Address)
	if err != nil {
		return "", fmt.Errorf("identity: account lookup: %w", err)
	}

	tx := map[string]any{
		"TransactionType": ledger.TxTypeAccountSet,
		"Sequence":        info.Sequence,
		"Memos": []map[string]any{
			{"Memo": map[string]string{
				"MemoType": ledger.EncodeMemo(MemoTypeClaim),
				"MemoData": ledger.EncodeMemo(string(payload)),
			}},
		},
	}

	signed, err := session.Signer.Sign(ctx, tx)
	if err != nil {
		return "", err
	}
	result, err := s.ledger.Submit(ctx, signed.Blob)
	if err != nil {
		return "", err
	}
	if result.Hash != "" {
		return result.Hash, nil
	}
	return signed.Hash, nil
}

// ResolveClaim scans history newest-first and returns the first structurally
// valid claim. Entries that fail to decode are skipped silently.
func (s *Service) ResolveClaim(ctx context.Context, address string) (*Claim, error) {
	txs, err := s.ledger.AccountTx(ctx, address, 100)
	if err != nil {
		return nil, fmt.Errorf("identity: history lookup: %w", err)
	}
	for _, tx := range txs {
		if tx.Type != ledger.TxTypeAccountSet {
			continue
		}
		claim, ok := decodeClaim(tx)
		if !ok {
			continue
		}
		claim.Address = address
		claim.TxHash = tx.Hash
		return claim, nil
	}
	return nil, nil
}

// HasClaimMemo reports whether the transaction carries an identity-claim
// memo. Payment transactions count as carriers too, matching how claims were
// historically attached.
func HasClaimMemo(tx ledger.Transaction) bool {
	if tx.Type != ledger.TxTypeAccountSet && tx.Type != ledger.TxTypePayment {
		return false
	}
	for _, memo := range tx.Memos {
		decoded, err := ledger.DecodeMemo(memo.Type)
		if err != nil {
			continue
		}
		if decoded == MemoTypeClaim {
			return true
		}
	}
	return false
}

func decodeClaim(tx ledger.Transaction) (*Claim, bool) {
	for _, memo := range tx.Memos {
		memoType, err := ledger.DecodeMemo(memo.Type)
		if err != nil || memoType != MemoTypeClaim {
			continue
		}
		data, err := ledger.DecodeMemo(memo.Data)
		if err != nil {
			continue
		}
		var claim Claim
		if err := json.Unmarshal([]byte(data), &claim); err != nil {
			continue
		}
		if strings.TrimSpace(claim.Name) == "" {
			continue
		}
		return &claim, true
	}
	return nil, false
}
