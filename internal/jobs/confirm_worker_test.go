package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/ledger"
)

type outboxMock struct {
	jobs    []OutboxJob
	done    []int64
	retried []int64
	failed  []int64
	lastErr string
}

func (m *outboxMock) ClaimPending(_ context.Context, _ int32) ([]OutboxJob, error) {
	return m.jobs, nil
}

func (m *outboxMock) MarkDone(_ context.Context, jobID int64) error {
	m.done = append(m.done, jobID)
	return nil
}

func (m *outboxMock) MarkRetry(_ context.Context, jobID int64, _ time.Time, lastError string) error {
	m.retried = append(m.retried, jobID)
	m.lastErr = lastError
	return nil
}

func (m *outboxMock) MarkFailed(_ context.Context, jobID int64, lastError string) error {
	m.failed = append(m.failed, jobID)
	m.lastErr = lastError
	return nil
}

type loanRepoMock struct {
	confirmed map[string]bool
}

func (m *loanRepoMock) SetLedgerConfirmed(_ context.Context, loanID string, confirmed bool) error {
	if m.confirmed == nil {
		m.confirmed = map[string]bool{}
	}
	m.confirmed[loanID] = confirmed
	return nil
}

type ledgerMock struct {
	tx    *ledger.Transaction
	txErr error
}

func (m *ledgerMock) Tx(_ context.Context, _ string) (*ledger.Transaction, error) {
	return m.tx, m.txErr
}

func confirmJob(t *testing.T, id int64, attempts int32, loanID, hash string) OutboxJob {
	t.Helper()
	payload, err := json.Marshal(confirmTxPayload{LoanID: loanID, TxHash: hash})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return OutboxJob{ID: id, Topic: confirmTxTopic, Payload: payload, Attempts: attempts}
}

func TestRunOnceConfirmsValidatedTx(t *testing.T) {
	outbox := &outboxMock{jobs: []OutboxJob{confirmJob(t, 1, 0, "loan-1", "AB12")}}
	repo := &loanRepoMock{}
	w := NewWorker(outbox, repo, &ledgerMock{tx: &ledger.Transaction{Hash: "AB12", Validated: true}})

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !repo.confirmed["loan-1"] {
		t.Fatalf("loan not marked confirmed")
	}
	if len(outbox.done) != 1 || outbox.done[0] != 1 {
		t.Fatalf("job not marked done: %+v", outbox.done)
	}
}

func TestRunOnceRetriesUnvalidatedTx(t *testing.T) {
	outbox := &outboxMock{jobs: []OutboxJob{confirmJob(t, 7, 2, "loan-1", "AB12")}}
	repo := &loanRepoMock{}
	w := NewWorker(outbox, repo, &ledgerMock{tx: &ledger.Transaction{Hash: "AB12"}})

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(outbox.retried) != 1 || outbox.retried[0] != 7 {
		t.Fatalf("job not retried: %+v", outbox.retried)
	}
	if outbox.lastErr != "tx_not_validated_yet" {
		t.Fatalf("lastErr = %q", outbox.lastErr)
	}
	if len(repo.confirmed) != 0 {
		t.Fatalf("loan confirmed before validation")
	}
}

func TestRunOnceRetriesMissingTx(t *testing.T) {
	outbox := &outboxMock{jobs: []OutboxJob{confirmJob(t, 3, 0, "loan-1", "AB12")}}
	w := NewWorker(outbox, &loanRepoMock{}, &ledgerMock{txErr: ledger.ErrTxNotFound})

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(outbox.retried) != 1 || outbox.lastErr != "tx_not_validated_yet" {
		t.Fatalf("missing tx should be a normal retry, got %+v %q", outbox.retried, outbox.lastErr)
	}
}

func TestRunOnceParksJobAfterMaxAttempts(t *testing.T) {
	outbox := &outboxMock{jobs: []OutboxJob{confirmJob(t, 9, 10, "loan-1", "AB12")}}
	w := NewWorker(outbox, &loanRepoMock{}, &ledgerMock{txErr: ledger.ErrTxNotFound})

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(outbox.failed) != 1 || outbox.failed[0] != 9 {
		t.Fatalf("exhausted job not parked: %+v", outbox.failed)
	}
}

func TestRunOnceFailsMalformedPayload(t *testing.T) {
	outbox := &outboxMock{jobs: []OutboxJob{{ID: 4, Topic: confirmTxTopic, Payload: []byte("{"), Attempts: 10}}}
	w := NewWorker(outbox, &loanRepoMock{}, &ledgerMock{})

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(outbox.failed) != 1 {
		t.Fatalf("malformed payload at max attempts should park the job")
	}
}

func TestRetryBackoffGrowsWithAttempts(t *testing.T) {
	w := NewWorker(&outboxMock{}, &loanRepoMock{}, &ledgerMock{})

	if got := w.retryBackoff(1); got != 15*time.Second {
		t.Fatalf("attempt 1 backoff = %v", got)
	}
	if got := w.retryBackoff(4); got != 60*time.Second {
		t.Fatalf("attempt 4 backoff = %v", got)
	}
	if got := w.retryBackoff(0); got != 15*time.Second {
		t.Fatalf("attempt 0 backoff = %v", got)
	}
}
