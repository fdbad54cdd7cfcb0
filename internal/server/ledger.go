package server

import (
	"github.com/gin-gonic/gin"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
)

func (s *Server) registerLedgerRoutes(r gin.IRouter) {
	r.GET("/balance", s.handleBalance)
	r.GET("/user-products", s.handleUserProducts)
	r.GET("/wallet", s.handleWallet)
	r.GET("/wallet/batches", s.handleWalletBatches)
	r.GET("/wallet/transactions", s.handleWalletTransactions)
	r.POST("/wallet/consume", s.handleConsume)
	r.POST("/exchange", s.handleExchange)
}

// handleBalance implements GET /balance: a read-only resolve plus the
// single product_key's active balance.
func (s *Server) handleBalance(c *gin.Context) {
	ref, err := refFromQuery(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	productKey := c.Query("product_key")
	if productKey == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	userID, err := s.resolveRead(c.Request.Context(), ref)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	balance, err := s.ledger.GetBalance(c.Request.Context(), userID, productKey)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, gin.H{"product_key": catalogdomain.Normalize(productKey), "balance": balance})
}

// handleUserProducts implements GET /user-products: active batches,
// optionally narrowed to one product_key.
func (s *Server) handleUserProducts(c *gin.Context) {
	ref, err := refFromQuery(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	userID, err := s.resolveRead(c.Request.Context(), ref)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var productKey *string
	if pk := c.Query("product_key"); pk != "" {
		productKey = &pk
	}
	batches, err := s.ledger.ListActiveBatches(c.Request.Context(), userID, productKey)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, batches)
}

// handleWallet implements GET /wallet: aggregate product_key -> balance.
func (s *Server) handleWallet(c *gin.Context) {
	ref, err := refFromQuery(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	userID, err := s.resolveRead(c.Request.Context(), ref)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	wallet, err := s.ledger.GetWallet(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, wallet)
}

// handleWalletBatches implements GET /wallet/batches: the same detailed
// view as /user-products, kept as its own route per spec §6.
func (s *Server) handleWalletBatches(c *gin.Context) {
	s.handleUserProducts(c)
}

// handleWalletTransactions implements GET /wallet/transactions: history
// filterable by product_key/action_type/date_from, newest-first, capped
// at 100 (spec §6).
func (s *Server) handleWalletTransactions(c *gin.Context) {
	ref, err := refFromQuery(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	userID, err := s.resolveRead(c.Request.Context(), ref)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	dateFrom, err := parseOptionalTime(c.Query("date_from"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	txns, err := s.ledger.ListTransactions(c.Request.Context(), userID, c.Query("product_key"), c.Query("action_type"), dateFrom)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, txns)
}

// consumeRequest's Amount defaults to 1 when omitted: the distilled spec's
// HTTP body table for /wallet/consume does not list it alongside the
// CONSUME operation's other parameters, but CONSUME's own signature
// (spec §4.3.2) is unchanged and requires one.
type consumeRequest struct {
	identityRef
	ProductKey     string         `json:"product_key" binding:"required"`
	Amount         int64          `json:"amount"`
	ActionType     string         `json:"action_type" binding:"required"`
	ActionID       *string        `json:"action_id"`
	IdempotencyKey *string        `json:"idempotency_key"`
	Metadata       map[string]any `json:"metadata"`
}

// handleConsume implements POST /wallet/consume: CONSUME on a
// write-resolved caller.
func (s *Server) handleConsume(c *gin.Context) {
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	userID, err := s.resolveWrite(c.Request.Context(), req.identityRef)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	amount := req.Amount
	if amount <= 0 {
		amount = 1
	}
	result, err := s.ledger.Consume(c.Request.Context(), userID, req.ProductKey, amount, req.ActionType, req.ActionID, req.IdempotencyKey, req.Metadata)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, gin.H{
		"transaction_id": result.TransactionID,
		"remaining":      result.Remaining,
		"metadata":       result.Metadata,
		"replayed":       result.Replayed,
	})
}

type exchangeRequest struct {
	identityRef
	SKU string `json:"sku" binding:"required"`
}

// handleExchange implements POST /exchange: EXCHANGE on a write-resolved
// caller.
func (s *Server) handleExchange(c *gin.Context) {
	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	userID, err := s.resolveWrite(c.Request.Context(), req.identityRef)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	offer, err := s.catalog.GetActiveOffer(c.Request.Context(), catalogdomain.Normalize(req.SKU))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	batches, err := s.ledger.Exchange(c.Request.Context(), userID, offer, nil)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, batches)
}
