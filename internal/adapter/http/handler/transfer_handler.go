package handler

import (
	"time"

	"custodial-wallet/internal/adapter/http/dto"
	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"
	"custodial-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler handles the multi-step transfer workflow endpoints.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

func flowIDParam(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// Start handles POST /api/v1/transfers.
func (h *TransferHandler) Start(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	flow, err := h.transferSvc.Start(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toFlowResponse(flow))
}

// ConfirmIdentity handles POST /api/v1/transfers/:id/identity.
func (h *TransferHandler) ConfirmIdentity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	flowID, err := flowIDParam(c)
	if err != nil {
		response.Error(c, apperror.Validation("invalid transfer id"))
		return
	}

	var req dto.IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	flow, err := h.transferSvc.ConfirmIdentity(c.Request.Context(), userID, flowID, ports.IdentityConfirmation{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		CompanySecret: req.CompanySecret,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toFlowResponse(flow))
}

// SubmitDetails handles POST /api/v1/transfers/:id/details.
func (h *TransferHandler) SubmitDetails(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	flowID, err := flowIDParam(c)
	if err != nil {
		response.Error(c, apperror.Validation("invalid transfer id"))
		return
	}

	var req dto.DetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	flow, err := h.transferSvc.SubmitDetails(c.Request.Context(), userID, flowID, ports.PaymentDetails{
		Network:   domain.NetworkCode(req.Network),
		ToAddress: req.ToAddress,
		Amount:    req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toFlowResponse(flow))
}

// Confirm handles POST /api/v1/transfers/:id/confirm.
func (h *TransferHandler) Confirm(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	flowID, err := flowIDParam(c)
	if err != nil {
		response.Error(c, apperror.Validation("invalid transfer id"))
		return
	}

	txn, err := h.transferSvc.Confirm(c.Request.Context(), userID, flowID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionResponse(txn))
}

// Get handles GET /api/v1/transfers/:id.
func (h *TransferHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	flowID, err := flowIDParam(c)
	if err != nil {
		response.Error(c, apperror.Validation("invalid transfer id"))
		return
	}

	flow, err := h.transferSvc.Get(c.Request.Context(), userID, flowID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toFlowResponse(flow))
}

// Abandon handles DELETE /api/v1/transfers/:id.
func (h *TransferHandler) Abandon(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	flowID, err := flowIDParam(c)
	if err != nil {
		response.Error(c, apperror.Validation("invalid transfer id"))
		return
	}

	if err := h.transferSvc.Abandon(c.Request.Context(), userID, flowID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

func toFlowResponse(flow *domain.TransferFlow) dto.TransferFlowResponse {
	resp := dto.TransferFlowResponse{
		ID:        flow.ID.String(),
		State:     string(flow.State),
		Network:   string(flow.Network),
		ToAddress: flow.ToAddress,
		CreatedAt: flow.CreatedAt.Format(time.RFC3339),
		UpdatedAt: flow.UpdatedAt.Format(time.RFC3339),
	}
	if !flow.Amount.IsZero() {
		resp.Amount = flow.Amount.String()
	}
	if flow.TransactionID != nil {
		id := flow.TransactionID.String()
		resp.TransactionID = &id
	}
	return resp
}
