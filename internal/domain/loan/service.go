package loan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/domain/trust"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/ledger"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/wallet"
)

// ErrMissingTrustLine is the one business condition callers must be able to
// distinguish from generic failures: the borrower cannot receive the
// stablecoin, and the caller may offer a base-asset fallback after explicit
// user confirmation.
var ErrMissingTrustLine = errors.New("loan: borrower has no stablecoin trust line")

const (
	MinAmount       = 1
	MaxAmount       = 50000
	MinInterestRate = 0.1
	MaxInterestRate = 50
)

// Memo type tags. Stablecoin and base-asset funding payments are annotated
// distinctly so history classification can tell them apart.
const (
	memoTypeLoanTerms      = "loan:terms"
	memoTypeFundStablecoin = "loan:fund:stablecoin"
	memoTypeFundBase       = "loan:fund:xrp"
)

const outboxTopicConfirmTx = "confirm_tx"

// ValidationError reports a request rejected before any network call was
// made. Callers branch on the type, not the message.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

type FundingAsset string

const (
	AssetStablecoin FundingAsset = "stablecoin"
	AssetBase       FundingAsset = "xrp"
)

type Terms struct {
	Amount       int64   `json:"amount"`
	Purpose      string  `json:"purpose"`
	InterestRate float64 `json:"interest_rate"`
	Duration     string  `json:"duration"`
}

type FundingResult struct {
	Loan        *Entity      `json:"loan"`
	TxHash      string       `json:"tx_hash"`
	Asset       FundingAsset `json:"asset"`
	FullyFunded bool         `json:"fully_funded"`
}

type LedgerClient interface {
	AccountInfo(ctx context.Context, address string) (*ledger.AccountInfo, error)
	AccountLines(ctx context.Context, address string) ([]ledger.TrustLine, error)
	Submit(ctx context.Context, txBlob string) (*ledger.SubmitResult, error)
}

type TrustEvaluator interface {
	Evaluate(ctx context.Context, address string) trust.Score
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, topic string, payload []byte) error
}

// Notifier receives funding events for fan-out to subscribed clients.
type Notifier interface {
	FundingRecorded(loanID string, amount int64, asset string, txHash string)
}

type Stablecoin struct {
	Code   string
	Issuer string
}

type Service struct {
	repo       Repository
	outboxRepo OutboxRepository
	ledger     LedgerClient
	trust      TrustEvaluator
	notifier   Notifier
	stablecoin Stablecoin
}

func NewService(repo Repository, outboxRepo OutboxRepository, ledgerClient LedgerClient, trustEval TrustEvaluator, notifier Notifier, stablecoin Stablecoin) *Service {
	return &Service{
		repo:       repo,
		outboxRepo: outboxRepo,
		ledger:     ledgerClient,
		trust:      trustEval,
		notifier:   notifier,
		stablecoin: stablecoin,
	}
}

// ValidateTerms rejects out-of-range terms before any network call is made.
func ValidateTerms(t Terms) error {
	if t.Amount < MinAmount || t.Amount > MaxAmount {
		return validationErrorf("invalid_amount: must be between %d and %d", MinAmount, MaxAmount)
	}
	if strings.TrimSpace(t.Purpose) == "" {
		return validationErrorf("invalid_purpose: required")
	}
	if t.InterestRate < MinInterestRate || t.InterestRate > MaxInterestRate {
		return validationErrorf("invalid_interest_rate: must be between %g and %g", MinInterestRate, float64(MaxInterestRate))
	}
	for _, d := range Durations {
		if t.Duration == d {
			return nil
		}
	}
	return validationErrorf("invalid_duration: must be one of %s", strings.Join(Durations, ", "))
}

// Create tokenizes the loan terms as an NFT mint on the ledger and persists
// the record. The mint transaction hash doubles as the record reference.
func (s *Service) Create(ctx context.Context, session *wallet.Session, terms Terms) (*Entity, error) {
	if err := ValidateTerms(terms); err != nil {
		return nil, err
	}

	score := s.trust.Evaluate(ctx, session.Address)

	termsJSON, err := json.Marshal(terms)
	if err != nil {
		return nil, err
	}
	tx := map[string]any{
		"TransactionType": ledger.TxTypeNFTMint,
		"NFTokenTaxon":    0,
		"URI":             ledger.EncodeMemo(string(termsJSON)),
		"Memos": []map[string]any{
			{"Memo": map[string]string{
				"MemoType": ledger.EncodeMemo(memoTypeLoanTerms),
				"MemoData": ledger.EncodeMemo(terms.Purpose),
			}},
		},
	}
	txHash, err := s.signAndSubmit(ctx, session, tx)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, CreateInput{
		ID:              uuid.NewString(),
		BorrowerAddress: session.Address,
		Amount:          terms.Amount,
		Purpose:         strings.TrimSpace(terms.Purpose),
		InterestRate:    terms.InterestRate,
		Duration:        terms.Duration,
		Verified:        score.Factors.IdentityVerified,
		Risk:            string(score.Risk),
		RecordRef:       txHash,
		TxRef:           txHash,
	})
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{"loan_id": created.ID, "tx_hash": txHash})
	if err := s.outboxRepo.Enqueue(ctx, outboxTopicConfirmTx, payload); err != nil {
		return nil, err
	}
	return created, nil
}

// Fund moves funds from the session's account to the borrower. Stablecoin is
// the preferred asset; when the borrower has no trust line for it, the call
// fails with ErrMissingTrustLine and nothing is submitted. The base-asset
// path is only taken when the caller passes AssetBase after explicit user
// confirmation.
func (s *Service) Fund(ctx context.Context, session *wallet.Session, loanID string, amount int64, asset FundingAsset) (*FundingResult, error) {
	// The cap also keeps the base-asset drops conversion far from int64
	// overflow.
	if amount <= 0 || amount > MaxAmount {
		return nil, validationErrorf("invalid_funding_amount: must be between %d and %d", 1, MaxAmount)
	}

	target, err := s.repo.GetByID(ctx, loanID)
	if err != nil {
		return nil, validationErrorf("loan_not_found")
	}
	if target.Status == StatusCompleted {
		return nil, validationErrorf("loan_already_completed")
	}
	if target.FundedAmount >= target.Amount {
		return nil, validationErrorf("loan_fully_funded")
	}

	var payment map[string]any
	var memoType string
	switch asset {
	case AssetBase:
		memoType = memoTypeFundBase
		payment = map[string]any{
			"TransactionType": ledger.TxTypePayment,
			"Destination":     target.BorrowerAddress,
			"Amount":          strconv.FormatInt(amount*ledger.DropsPerXRP, 10),
		}
	default:
		asset = AssetStablecoin
		ok, err := s.hasStablecoinTrustLine(ctx, target.BorrowerAddress)
		if err != nil {
			return nil, fmt.Errorf("trust line lookup: %w", err)
		}
		if !ok {
			return nil, ErrMissingTrustLine
		}
		memoType = memoTypeFundStablecoin
		payment = map[string]any{
			"TransactionType": ledger.TxTypePayment,
			"Destination":     target.BorrowerAddress,
			"Amount": map[string]string{
				"currency": s.stablecoin.Code,
				"issuer":   s.stablecoin.Issuer,
				"value":    strconv.FormatInt(amount, 10),
			},
		}
	}
	payment["Memos"] = []map[string]any{
		{"Memo": map[string]string{
			"MemoType": ledger.EncodeMemo(memoType),
			"MemoData": ledger.EncodeMemo(loanID),
		}},
	}

	txHash, err := s.signAndSubmit(ctx, session, payment)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.ApplyFunding(ctx, loanID, amount)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{"loan_id": loanID, "tx_hash": txHash})
	if err := s.outboxRepo.Enqueue(ctx, outboxTopicConfirmTx, payload); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.FundingRecorded(loanID, amount, string(asset), txHash)
	}

	return &FundingResult{
		Loan:        updated,
		TxHash:      txHash,
		Asset:       asset,
		FullyFunded: updated.FundedAmount >= updated.Amount,
	}, nil
}

// Complete moves a funded loan to completed. Transitions only run forward.
func (s *Service) Complete(ctx context.Context, loanID string) (*Entity, error) {
	target, err := s.repo.GetByID(ctx, loanID)
	if err != nil {
		return nil, validationErrorf("loan_not_found")
	}
	if target.Status != StatusFunded {
		return nil, validationErrorf("invalid_status_transition: %s -> %s", target.Status, StatusCompleted)
	}
	if err := s.repo.MarkCompleted(ctx, loanID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, loanID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Entity, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, loanID string) (*Entity, error) {
	return s.repo.GetByID(ctx, loanID)
}

func (s *Service) hasStablecoinTrustLine(ctx context.Context, address string) (bool, error) {
	lines, err := s.ledger.AccountLines(ctx, address)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, line := range lines {
		if line.Currency == s.stablecoin.Code && line.Issuer == s.stablecoin.Issuer {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) signAndSubmit(ctx context.Context, session *wallet.Session, tx map[string]any) (string, error) {
	if _, ok := tx["Sequence"]; !ok {
		info, err := s.ledger.AccountInfo(ctx, session.Address)
		if err != nil {
			return "", fmt.Errorf("account lookup: %w", err)
		}
		tx["Sequence"] = info.Sequence
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
