package handler

import (
	"time"

	"custodial-wallet/internal/adapter/http/dto"
	"custodial-wallet/internal/adapter/http/middleware"
	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"
	"custodial-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles the PIN gate and wallet view endpoints.
type WalletHandler struct {
	pinGate   ports.PinGate
	ledgerSvc ports.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(pinGate ports.PinGate, ledgerSvc ports.LedgerService) *WalletHandler {
	return &WalletHandler{
		pinGate:   pinGate,
		ledgerSvc: ledgerSvc,
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	uid, ok := c.Get(middleware.CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := uid.(uuid.UUID)
	return id, ok
}

// Unlock handles POST /api/v1/wallet/unlock.
func (h *WalletHandler) Unlock(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.pinGate.Unlock(c.Request.Context(), userID, req.Pin); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"unlocked": true})
}

// Lock handles POST /api/v1/wallet/lock.
func (h *WalletHandler) Lock(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	if err := h.pinGate.Lock(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"unlocked": false})
}

// GetWallet handles GET /api/v1/wallet.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.ledgerSvc.CurrentBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletResponse{
		WalletID: wallet.ID.String(),
		Address:  wallet.Address,
		Balance:  wallet.Balance.String(),
	})
}

// ListTransactions handles GET /api/v1/wallet/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	txns, err := h.ledgerSvc.History(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}

	response.OK(c, dto.TransactionListResponse{
		Items: items,
		Total: len(items),
	})
}

// ListNetworks handles GET /api/v1/networks.
func (h *WalletHandler) ListNetworks(c *gin.Context) {
	networks := domain.Networks()
	out := make([]dto.NetworkResponse, 0, len(networks))
	for _, n := range networks {
		out = append(out, dto.NetworkResponse{
			Code:      string(n.Code),
			Name:      n.Name,
			Fee:       n.Fee.String(),
			MinAmount: n.MinAmount.String(),
		})
	}
	response.OK(c, out)
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:           t.ID.String(),
		Type:         string(t.Type),
		Direction:    string(t.Direction),
		Amount:       t.Amount.String(),
		SignedAmount: t.SignedAmount().String(),
		Network:      string(t.Network),
		ToAddress:    t.ToAddress,
		TxHash:       t.TxHash,
		Status:       string(t.Status),
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
	}
}
