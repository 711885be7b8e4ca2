package handler

import (
	"custodial-wallet/internal/adapter/http/dto"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"
	"custodial-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// PurchaseHandler handles the buy workflow endpoints.
type PurchaseHandler struct {
	purchaseSvc ports.PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(purchaseSvc ports.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseSvc: purchaseSvc}
}

// Buy handles POST /api/v1/purchases.
func (h *PurchaseHandler) Buy(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	txn, err := h.purchaseSvc.Buy(c.Request.Context(), userID, ports.PurchaseRequest{
		Amount: req.Amount,
		Card: ports.CardDetails{
			HolderName: req.Card.HolderName,
			Number:     req.Card.Number,
			Expiry:     req.Card.Expiry,
			CVV:        req.Card.CVV,
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// Denominations handles GET /api/v1/purchases/denominations.
func (h *PurchaseHandler) Denominations(c *gin.Context) {
	amounts := h.purchaseSvc.Denominations()
	out := make([]string, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, a.String())
	}
	response.OK(c, dto.DenominationsResponse{Denominations: out})
}
