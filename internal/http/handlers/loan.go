package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	loandomain "github.com/avdheshcharjan/microloan-ripple-hackathon/internal/domain/loan"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/http/middleware"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/wallet"
)

type LoanService interface {
	Create(ctx context.Context, session *wallet.Session, terms loandomain.Terms) (*loandomain.Entity, error)
	Fund(ctx context.Context, session *wallet.Session, loanID string, amount int64, asset loandomain.FundingAsset) (*loandomain.FundingResult, error)
	Complete(ctx context.Context, loanID string) (*loandomain.Entity, error)
	List(ctx context.Context, filter loandomain.ListFilter) ([]loandomain.Entity, error)
	Get(ctx context.Context, loanID string) (*loandomain.Entity, error)
}

type LoanHandler struct {
	loanService LoanService
}

func NewLoanHandler(loanService LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

func (h *LoanHandler) CreateLoan(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req loandomain.Terms
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	created, err := h.loanService.Create(c.Request.Context(), session, req)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondSubmitError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *LoanHandler) ListLoans(c *gin.Context) {
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	minAmount, _ := strconv.ParseInt(strings.TrimSpace(c.Query("min_amount")), 10, 64)
	maxAmount, _ := strconv.ParseInt(strings.TrimSpace(c.Query("max_amount")), 10, 64)

	items, err := h.loanService.List(c.Request.Context(), loandomain.ListFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Risk:      strings.TrimSpace(c.Query("risk")),
		MinAmount: minAmount,
		MaxAmount: maxAmount,
		SortBy:    strings.TrimSpace(c.Query("sort_by")),
		SortDesc:  c.DefaultQuery("order", "desc") == "desc",
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_loans_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *LoanHandler) GetLoan(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return
	}
	item, err := h.loanService.Get(c.Request.Context(), loanID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "loan_not_found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// FundLoan attempts a stablecoin payment by default. When the borrower has
// no trust line the response carries the distinguishable missing_trustline
// code; the client asks the user and retries with use_base_asset=true.
func (h *LoanHandler) FundLoan(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	loanID := strings.TrimSpace(c.Param("loanId"))
	var req struct {
		Amount       int64 `json:"amount"`
		UseBaseAsset bool  `json:"use_base_asset"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	asset := loandomain.AssetStablecoin
	if req.UseBaseAsset {
		asset = loandomain.AssetBase
	}

	result, err := h.loanService.Fund(c.Request.Context(), session, loanID, req.Amount, asset)
	if err != nil {
		if errors.Is(err, loandomain.ErrMissingTrustLine) {
			c.JSON(http.StatusConflict, gin.H{
				"error":              "missing_trustline",
				"fallback_available": true,
				"hint":               "borrower cannot receive the stablecoin; confirm to fund with XRP instead",
			})
			return
		}
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondSubmitError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *LoanHandler) CompleteLoan(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return
	}
	updated, err := h.loanService.Complete(c.Request.Context(), loanID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// isValidationError recognizes the pre-network rejections produced by the
// loan domain.
func isValidationError(err error) bool {
	var vErr *loandomain.ValidationError
	return errors.As(err, &vErr)
}
