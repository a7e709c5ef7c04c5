package trust

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/domain/identity"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/ledger"
)

type ledgerMock struct {
	txs     []ledger.Transaction
	txErr   error
	info    *ledger.AccountInfo
	infoErr error
}

func (m *ledgerMock) AccountTx(_ context.Context, _ string, _ int) ([]ledger.Transaction, error) {
	return m.txs, m.txErr
}

func (m *ledgerMock) AccountInfo(_ context.Context, _ string) (*ledger.AccountInfo, error) {
	return m.info, m.infoErr
}

func paymentTxs(n int) []ledger.Transaction {
	out := make([]ledger.Transaction, n)
	for i := range out {
		out[i] = ledger.Transaction{Type: ledger.TxTypePayment}
	}
	return out
}

func claimTx() ledger.Transaction {
	return ledger.Transaction{
		Type: ledger.TxTypeAccountSet,
		Memos: []ledger.Memo{
			{Type: ledger.EncodeMemo(identity.MemoTypeClaim), Data: ledger.EncodeMemo(`{"name":"A","phone":"1"}`)},
		},
	}
}

func TestComputeActivityPointsCap(t *testing.T) {
	cases := []struct {
		txCount int
		want    int
	}{
		{0, 0},
		{9, 0},
		{10, 1},
		{199, 19},
		{200, 20},
		{1000, 20},
	}
	for _, tc := range cases {
		got, _ := Compute(tc.txCount, false, 0)
		if got != tc.want {
			t.Fatalf("txCount=%d: score=%d, want %d", tc.txCount, got, tc.want)
		}
	}
}

func TestComputeIdentityPointsAreZeroOrTen(t *testing.T) {
	withOut, _ := Compute(0, false, 0)
	with, _ := Compute(0, true, 0)
	if with-withOut != 10 {
		t.Fatalf("identity bonus = %d, want 10", with-withOut)
	}
}

func TestComputeAgePoints(t *testing.T) {
	cases := []struct {
		sequence uint32
		want     int
	}{
		{0, 0},
		{49, 0},
		{50, 1},
		{249, 4},
		{250, 5},
		{100000, 5},
	}
	for _, tc := range cases {
		got, _ := Compute(0, false, tc.sequence)
		if got != tc.want {
			t.Fatalf("sequence=%d: score=%d, want %d", tc.sequence, got, tc.want)
		}
	}
}

func TestBucketBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Risk
	}{
		{0, RiskHigh},
		{9, RiskHigh},
		{10, RiskMedium},
		{20, RiskMedium},
		{21, RiskLow},
	}
	for _, tc := range cases {
		if got := BucketFor(tc.score); got != tc.want {
			t.Fatalf("score=%d: bucket=%s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestEvaluateFailsClosedOnHistoryError(t *testing.T) {
	svc := NewService(&ledgerMock{txErr: errors.New("boom")})
	got := svc.Evaluate(context.Background(), "rBorrower")
	if got.Score != 0 || got.Risk != RiskHigh || got.Factors.IdentityVerified || got.Factors.TransactionCount != 0 {
		t.Fatalf("unexpected fail-closed result: %+v", got)
	}
}

func TestEvaluatePartialFailureDropsOnlyAgeBonus(t *testing.T) {
	txs := append(paymentTxs(199), claimTx())
	svc := NewService(&ledgerMock{txs: txs, infoErr: ledger.ErrAccountNotFound})
	got := svc.Evaluate(context.Background(), "rBorrower")

	// 200 txs -> 20 activity points, claim -> 10, no age bonus.
	if got.Score != 30 || got.Risk != RiskLow {
		t.Fatalf("score=%d risk=%s, want 30/low", got.Score, got.Risk)
	}
	if !got.Factors.IdentityVerified || got.Factors.TransactionCount != 200 {
		t.Fatalf("unexpected factors: %+v", got.Factors)
	}
}

func TestEvaluateDomainMarkerCountsAsVerified(t *testing.T) {
	info := &ledger.AccountInfo{
		Sequence: 250,
		Domain:   hex.EncodeToString([]byte(identity.DomainMarker)),
	}
	svc := NewService(&ledgerMock{txs: paymentTxs(50), info: info})
	got := svc.Evaluate(context.Background(), "rBorrower")

	// 50 txs -> 5, sequence 250 -> 5, domain marker -> 10.
	if got.Score != 20 || got.Risk != RiskMedium {
		t.Fatalf("score=%d risk=%s, want 20/medium", got.Score, got.Risk)
	}
	if !got.Factors.IdentityVerified {
		t.Fatalf("expected identity verified via domain marker")
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	svc := NewService(&ledgerMock{txs: paymentTxs(37), info: &ledger.AccountInfo{Sequence: 120}})
	first := svc.Evaluate(context.Background(), "rBorrower")
	second := svc.Evaluate(context.Background(), "rBorrower")
	if first != second {
		t.Fatalf("repeated evaluation differs: %+v vs %+v", first, second)
	}
}
