package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/domain/loan"
)

const loanColumns = `id, borrower_address, amount, purpose, interest_rate, duration,
       funded_amount, status, verified, risk, record_ref, tx_ref,
       ledger_confirmed, created_at, updated_at`

// sortColumns is the allow-list of sortable columns.
var sortColumns = map[string]string{
	"created_at":    "created_at",
	"amount":        "amount",
	"interest_rate": "interest_rate",
	"funded_amount": "funded_amount",
}

type LoanRepository struct {
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

func (r *LoanRepository) Create(ctx context.Context, in loan.CreateInput) (*loan.Entity, error) {
	q := `
INSERT INTO loans (
  id, borrower_address, amount, purpose, interest_rate, duration,
  verified, risk, record_ref, tx_ref
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING ` + loanColumns
	return r.scanOne(r.pool.QueryRow(ctx, q,
		in.ID, in.BorrowerAddress, in.Amount, in.Purpose, in.InterestRate, in.Duration,
		in.Verified, in.Risk, in.RecordRef, in.TxRef,
	))
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loan.Entity, error) {
	q := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, q, id))
}

func (r *LoanRepository) List(ctx context.Context, f loan.ListFilter) ([]loan.Entity, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + loanColumns + ` FROM loans WHERE 1=1`)

	args := []any{}
	argPos := 1
	if strings.TrimSpace(f.Status) != "" {
		builder.WriteString(" AND status = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.Status)
		argPos++
	}
	if strings.TrimSpace(f.Risk) != "" {
		builder.WriteString(" AND risk = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.Risk)
		argPos++
	}
	if f.MinAmount > 0 {
		builder.WriteString(" AND amount >= $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.MinAmount)
		argPos++
	}
	if f.MaxAmount > 0 {
		builder.WriteString(" AND amount <= $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.MaxAmount)
		argPos++
	}

	sortCol, ok := sortColumns[f.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	builder.WriteString(" ORDER BY " + sortCol)
	if f.SortDesc || f.SortBy == "" {
		builder.WriteString(" DESC")
	}
	builder.WriteString(" LIMIT $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Limit)
	argPos++
	builder.WriteString(" OFFSET $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Offset)

	rows, err := r.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]loan.Entity, 0)
	for rows.Next() {
		var item loan.Entity
		if err := rows.Scan(
			&item.ID, &item.BorrowerAddress, &item.Amount, &item.Purpose, &item.InterestRate, &item.Duration,
			&item.FundedAmount, &item.Status, &item.Verified, &item.Risk, &item.RecordRef, &item.TxRef,
			&item.LedgerConfirmed, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyFunding is a single conditional update so concurrent funders cannot
// lose each other's increments: the funded amount is capped at the requested
// amount and an active loan flips to funded in the same statement.
func (r *LoanRepository) ApplyFunding(ctx context.Context, id string, amount int64) (*loan.Entity, error) {
	q := `
UPDATE loans
SET funded_amount = LEAST(funded_amount + $2, amount),
    status = CASE WHEN status = 'active' THEN 'funded' ELSE status END,
    updated_at = NOW()
WHERE id = $1 AND status != 'completed'
RETURNING ` + loanColumns
	return r.scanOne(r.pool.QueryRow(ctx, q, id, amount))
}

func (r *LoanRepository) MarkCompleted(ctx context.Context, id string) error {
	q := `UPDATE loans SET status = 'completed', updated_at = NOW() WHERE id = $1 AND status = 'funded'`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *LoanRepository) SetLedgerConfirmed(ctx context.Context, id string, confirmed bool) error {
	q := `UPDATE loans SET ledger_confirmed = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, confirmed)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LoanRepository) scanOne(row rowScanner) (*loan.Entity, error) {
	out := &loan.Entity{}
	err := row.Scan(
		&out.ID, &out.BorrowerAddress, &out.Amount, &out.Purpose, &out.InterestRate, &out.Duration,
		&out.FundedAmount, &out.Status, &out.Verified, &out.Risk, &out.RecordRef, &out.TxRef,
		&out.LedgerConfirmed, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
