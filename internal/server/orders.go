package server

import (
	"github.com/gin-gonic/gin"

	orderdomain "github.com/railzway/billing/internal/order/domain"
)

func (s *Server) registerOrderRoutes(r gin.IRouter) {
	r.POST("/orders", s.handleCreateOrder)
	r.POST("/orders/:id/confirm", s.handleConfirmOrder)
	r.POST("/orders/:id/refund", s.handleRefundOrder)
	r.GET("/orders/:id", s.handleGetOrder)
}

type orderItemRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required"`
}

type createOrderRequest struct {
	identityRef
	Items    []orderItemRequest `json:"items" binding:"required"`
	Metadata map[string]any     `json:"metadata"`
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	userID, err := s.resolveWrite(c.Request.Context(), req.identityRef)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]orderdomain.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orderdomain.ItemInput{SKU: it.SKU, Quantity: it.Quantity})
	}

	order, err := s.order.Create(c.Request.Context(), userID, items, req.Metadata)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, order)
}

type confirmOrderRequest struct {
	PaymentID     *string `json:"payment_id"`
	PaymentMethod string  `json:"payment_method"`
}

func (s *Server) handleConfirmOrder(c *gin.Context) {
	orderID, err := parseOptionalSnowflakeID(c.Param("id"))
	if err != nil || orderID == nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req confirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	paymentID := ""
	if req.PaymentID != nil {
		paymentID = *req.PaymentID
	}

	order, err := s.order.Confirm(c.Request.Context(), *orderID, paymentID, req.PaymentMethod)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, order)
}

type refundOrderRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleRefundOrder(c *gin.Context) {
	orderID, err := parseOptionalSnowflakeID(c.Param("id"))
	if err != nil || orderID == nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req refundOrderRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "refund"
	}

	order, err := s.order.Refund(c.Request.Context(), *orderID, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, order)
}

func (s *Server) handleGetOrder(c *gin.Context) {
	orderID, err := parseOptionalSnowflakeID(c.Param("id"))
	if err != nil || orderID == nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	order, err := s.order.Get(c.Request.Context(), *orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, order)
}
