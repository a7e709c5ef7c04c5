package loan

import (
	"context"
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusFunded    Status = "funded"
	StatusCompleted Status = "completed"
)

// Durations is the closed set of loan duration labels.
var Durations = []string{"1 month", "3 months", "6 months", "12 months"}

type Entity struct {
	ID              string    `json:"id"`
	BorrowerAddress string    `json:"borrower_address"`
	Amount          int64     `json:"amount"`
	Purpose         string    `json:"purpose"`
	InterestRate    float64   `json:"interest_rate"`
	Duration        string    `json:"duration"`
	FundedAmount    int64     `json:"funded_amount"`
	Status          Status    `json:"status"`
	Verified        bool      `json:"verified"`
	Risk            string    `json:"risk"`
	RecordRef       string    `json:"record_ref"`
	TxRef           string    `json:"tx_ref"`
	LedgerConfirmed bool      `json:"ledger_confirmed"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateInput struct {
	ID              string
	BorrowerAddress string
	Amount          int64
	Purpose         string
	InterestRate    float64
	Duration        string
	Verified        bool
	Risk            string
	RecordRef       string
	TxRef           string
}

type ListFilter struct {
	Status    string
	Risk      string
	MinAmount int64
	MaxAmount int64
	SortBy    string
	SortDesc  bool
	Limit     int32
	Offset    int32
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	List(ctx context.Context, f ListFilter) ([]Entity, error)
	// ApplyFunding atomically adds to the funded amount, capped at the
	// requested amount, and flips an active loan to funded. Returns the
	// updated row.
	ApplyFunding(ctx context.Context, id string, amount int64) (*Entity, error)
	MarkCompleted(ctx context.Context, id string) error
	SetLedgerConfirmed(ctx context.Context, id string, confirmed bool) error
}
