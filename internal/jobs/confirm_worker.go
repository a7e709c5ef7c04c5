package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/ledger"
)

const confirmTxTopic = "confirm_tx"

type OutboxJob struct {
	ID          int64
	Topic       string
	Payload     []byte
	Status      string
	Attempts    int32
	LastError   string
	AvailableAt time.Time
}

type OutboxRepository interface {
	ClaimPending(ctx context.Context, limit int32) ([]OutboxJob, error)
	MarkDone(ctx context.Context, jobID int64) error
	MarkRetry(ctx context.Context, jobID int64, nextAvailableAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, jobID int64, lastError string) error
}

type LoanRepository interface {
	SetLedgerConfirmed(ctx context.Context, loanID string, confirmed bool) error
}

type LedgerClient interface {
	Tx(ctx context.Context, hash string) (*ledger.Transaction, error)
}

// Worker confirms submitted transactions after the fact. A submission that
// timed out locally can still land on the ledger, so every submitted hash is
// polled until it shows up validated or the attempt budget runs out.
type Worker struct {
	outboxRepo   OutboxRepository
	loanRepo     LoanRepository
	ledger       LedgerClient
	maxAttempts  int32
	now          func() time.Time
	retryBackoff func(attempt int32) time.Duration
}

func NewWorker(outboxRepo OutboxRepository, loanRepo LoanRepository, ledgerClient LedgerClient) *Worker {
	return &Worker{
		outboxRepo:  outboxRepo,
		loanRepo:    loanRepo,
		ledger:      ledgerClient,
		maxAttempts: 10,
		now:         func() time.Time { return time.Now().UTC() },
		retryBackoff: func(attempt int32) time.Duration {
			if attempt < 1 {
				attempt = 1
			}
			return time.Duration(attempt*15) * time.Second
		},
	}
}

func (w *Worker) RunOnce(ctx context.Context, batchSize int32) error {
	jobs, err := w.outboxRepo.ClaimPending(ctx, batchSize)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			return err
		}
	}

	return nil
}

func (w *Worker) processJob(ctx context.Context, job OutboxJob) error {
	switch job.Topic {
	case confirmTxTopic:
		return w.processConfirmTx(ctx, job)
	default:
		if job.Attempts >= w.maxAttempts {
			return w.outboxRepo.MarkFailed(ctx, job.ID, "unsupported_topic")
		}
		next := w.now().Add(w.retryBackoff(job.Attempts))
		return w.outboxRepo.MarkRetry(ctx, job.ID, next, "unsupported_topic")
	}
}

type confirmTxPayload struct {
	LoanID string `json:"loan_id"`
	TxHash string `json:"tx_hash"`
}

func (w *Worker) processConfirmTx(ctx context.Context, job OutboxJob) error {
	var payload confirmTxPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return w.handleJobError(ctx, job, errors.New("invalid_payload"))
	}
	if payload.LoanID == "" || payload.TxHash == "" {
		return w.handleJobError(ctx, job, errors.New("missing_loan_id_or_tx_hash"))
	}

	tx, err := w.ledger.Tx(ctx, payload.TxHash)
	if err != nil {
		// Not found yet is the normal in-flight case.
		if errors.Is(err, ledger.ErrTxNotFound) {
			return w.handleJobError(ctx, job, errors.New("tx_not_validated_yet"))
		}
		return w.handleJobError(ctx, job, err)
	}
	if !tx.Validated {
		return w.handleJobError(ctx, job, errors.New("tx_not_validated_yet"))
	}

	if err := w.loanRepo.SetLedgerConfirmed(ctx, payload.LoanID, true); err != nil {
		return w.handleJobError(ctx, job, err)
	}

	return w.outboxRepo.MarkDone(ctx, job.ID)
}

func (w *Worker) handleJobError(ctx context.Context, job OutboxJob, err error) error {
	msg := err.Error()
	if job.Attempts >= w.maxAttempts {
		return w.outboxRepo.MarkFailed(ctx, job.ID, msg)
	}
	next := w.now().Add(w.retryBackoff(job.Attempts))
	return w.outboxRepo.MarkRetry(ctx, job.ID, next, msg)
}
