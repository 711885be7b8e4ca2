package dto

import "github.com/shopspring/decimal"

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username  string  `json:"username" binding:"required,min=3,max=50"`
	Password  string  `json:"password" binding:"required,min=8,max=128"`
	Pin       string  `json:"pin" binding:"required,wallet_pin"`
	FirstName string  `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string  `json:"last_name" binding:"required,min=1,max=100"`
	CompanyID *string `json:"company_id,omitempty" binding:"omitempty,uuid"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID   string `json:"user_id"`
	WalletID string `json:"wallet_id"`
	Address  string `json:"address"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// UnlockRequest is the request body for the PIN gate.
type UnlockRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// WalletResponse is the response for the wallet view.
type WalletResponse struct {
	WalletID string `json:"wallet_id"`
	Address  string `json:"address"`
	Balance  string `json:"balance"`
}

// TransactionResponse is the response body for a ledger entry.
type TransactionResponse struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Direction    string `json:"direction"`
	Amount       string `json:"amount"`
	SignedAmount string `json:"signed_amount"`
	Network      string `json:"network"`
	ToAddress    string `json:"to_address"`
	TxHash       string `json:"tx_hash"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// TransactionListResponse wraps the wallet history.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Total int                   `json:"total"`
}

// NetworkResponse describes one supported transfer network.
type NetworkResponse struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Fee       string `json:"fee"`
	MinAmount string `json:"min_amount"`
}

// TransferFlowResponse is the response body for a transfer workflow instance.
type TransferFlowResponse struct {
	ID            string  `json:"id"`
	State         string  `json:"state"`
	Network       string  `json:"network,omitempty"`
	ToAddress     string  `json:"to_address,omitempty"`
	Amount        string  `json:"amount,omitempty"`
	TransactionID *string `json:"transaction_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// IdentityRequest is the request body for the transfer identity step.
type IdentityRequest struct {
	FirstName     string `json:"first_name" binding:"required,min=1,max=100"`
	LastName      string `json:"last_name" binding:"required,min=1,max=100"`
	CompanySecret string `json:"company_secret" binding:"required"`
}

// DetailsRequest is the request body for the transfer details step.
type DetailsRequest struct {
	Network   string          `json:"network" binding:"required"`
	ToAddress string          `json:"to_address" binding:"required,wallet_address"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// CardRequest is the simulated card form for purchases.
type CardRequest struct {
	HolderName string `json:"holder_name" binding:"required,min=1,max=100"`
	Number     string `json:"number" binding:"required"`
	Expiry     string `json:"expiry" binding:"required,card_expiry"`
	CVV        string `json:"cvv" binding:"required"`
}

// PurchaseRequest is the request body for the buy workflow.
type PurchaseRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Card   CardRequest     `json:"card" binding:"required"`
}

// DenominationsResponse lists the quick-buy amounts.
type DenominationsResponse struct {
	Denominations []string `json:"denominations"`
}
