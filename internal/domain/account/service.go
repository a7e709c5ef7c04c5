package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/ledger"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/wallet"
)

const (
	balanceRetryAttempts = 5
	balanceRetryDelay    = 2 * time.Second
)

// Balance is one spendable asset on an account. The base asset sorts first,
// issued assets follow lexicographically by currency code.
type Balance struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
	Issuer   string `json:"issuer,omitempty"`
}

type LedgerClient interface {
	AccountInfo(ctx context.Context, address string) (*ledger.AccountInfo, error)
	AccountLines(ctx context.Context, address string) ([]ledger.TrustLine, error)
	Submit(ctx context.Context, txBlob string) (*ledger.SubmitResult, error)
}

type Stablecoin struct {
	Code   string
	Issuer string
}

type Service struct {
	ledger     LedgerClient
	stablecoin Stablecoin
	faucetURL  string
	httpClient *http.Client
}

func NewService(ledgerClient LedgerClient, stablecoin Stablecoin, faucetURL string) *Service {
	return &Service{
		ledger:     ledgerClient,
		stablecoin: stablecoin,
		faucetURL:  faucetURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// Balances fetches the base-asset balance and trust-line balances
// concurrently and merges them base-asset-first.
func (s *Service) Balances(ctx context.Context, address string) ([]Balance, error) {
	var (
		wg       sync.WaitGroup
		info     *ledger.AccountInfo
		infoErr  error
		lines    []ledger.TrustLine
		linesErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		info, infoErr = s.ledger.AccountInfo(ctx, address)
	}()
	go func() {
		defer wg.Done()
		lines, linesErr = s.ledger.AccountLines(ctx, address)
	}()
	wg.Wait()

	if infoErr != nil {
		return nil, fmt.Errorf("account lookup: %w", infoErr)
	}
	if linesErr != nil && !errors.Is(linesErr, ledger.ErrAccountNotFound) {
		return nil, fmt.Errorf("trust line lookup: %w", linesErr)
	}

	out := []Balance{{
		Currency: "XRP",
		Value:    formatDrops(info.BalanceDrops),
	}}

	issued := make([]Balance, 0, len(lines))
	for _, line := range lines {
		issued = append(issued, Balance{
			Currency: line.Currency,
			Value:    line.Balance,
			Issuer:   line.Issuer,
		})
	}
	sort.Slice(issued, func(i, j int) bool { return issued[i].Currency < issued[j].Currency })
	return append(out, issued...), nil
}

// Create generates a fresh local wallet, asks the testnet faucet to fund it,
// and waits for the balance to appear. The faucet is eventually consistent,
// so the balance fetch retries a fixed number of times with a fixed delay.
func (s *Service) Create(ctx context.Context) (*wallet.LocalSigner, []Balance, error) {
	signer, err := wallet.Generate()
	if err != nil {
		return nil, nil, err
	}

	if err := s.requestFaucetFunding(ctx, signer.Address()); err != nil {
		return nil, nil, fmt.Errorf("faucet funding: %w", err)
	}

	var balances []Balance
	for attempt := 0; attempt < balanceRetryAttempts; attempt++ {
		balances, err = s.Balances(ctx, signer.Address())
		if err == nil {
			return signer, balances, nil
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(balanceRetryDelay):
		}
	}
	return nil, nil, fmt.Errorf("wallet funded but balance not visible yet: %w", err)
}

// SetupTrustLine opts the session's account into holding the stablecoin.
// The trust ceiling is a fixed large constant.
func (s *Service) SetupTrustLine(ctx context.Context, session *wallet.Session) (string, error) {
	info, err := s.ledger.AccountInfo(ctx, session.Address)
	if err != nil {
		return "", fmt.Errorf("account lookup: %w", err)
	}
	tx := map[string]any{
		"TransactionType": ledger.TxTypeTrustSet,
		"Sequence":        info.Sequence,
		"LimitAmount": map[string]string{
			"currency": s.stablecoin.Code,
			"issuer":   s.stablecoin.Issuer,
			"value":    ledger.TrustLimit,
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

func (s *Service) requestFaucetFunding(ctx context.Context, address string) error {
	body, _ := json.Marshal(map[string]string{"destination": address})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.faucetURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("faucet returned status %d", resp.StatusCode)
	}
	return nil
}

func formatDrops(drops int64) string {
	whole := drops / ledger.DropsPerXRP
	frac := drops % ledger.DropsPerXRP
	if frac == 0 {
		return strconv.FormatInt(whole, 10)
	}
	return fmt.Sprintf("%d.%06d", whole, frac)
}
