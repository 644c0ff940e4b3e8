package dto

import (
	"time"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/utils"
	"github.com/shopspring/decimal"
)

// DepositRequest moves money from the user's funding boundary into a savings account.
type DepositRequest struct {
	WalletKey   string          `json:"walletKey" binding:"required" validate:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"money" validate:"required,money" swaggertype:"string" example:"100.00"`
	Description string          `json:"description" binding:"max=255" validate:"max=255"`
}

// WithdrawRequest moves money from a savings account back out of the system.
type WithdrawRequest struct {
	WalletKey   string          `json:"walletKey" binding:"required" validate:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"money" validate:"required,money" swaggertype:"string" example:"50.00"`
	Description string          `json:"description" binding:"max=255" validate:"max=255"`
}

// TopUpRequest funds a wallet from one of the user's savings accounts.
type TopUpRequest struct {
	WalletKey        string          `json:"walletKey" binding:"required" validate:"required"`
	SourceAccountKey string          `json:"sourceAccountKey" binding:"required" validate:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"money" validate:"required,money" swaggertype:"string" example:"25.00"`
	Description      string          `json:"description" binding:"max=255" validate:"max=255"`
}

// TransferRequest sends money between two wallets. The sender pays the commission.
type TransferRequest struct {
	SenderWalletKey   string          `json:"senderWalletKey" binding:"required" validate:"required"`
	ReceiverWalletKey string          `json:"receiverWalletKey" binding:"required" validate:"required"`
	Amount            decimal.Decimal `json:"amount" binding:"money" validate:"required,money" swaggertype:"string" example:"100.00"`
	Description       string          `json:"description" binding:"max=255" validate:"max=255"`
}

type BalanceResponse struct {
	RefNumber  string `json:"refNumber"`
	NewBalance string `json:"newBalance"`
}

func ToBalanceResponse(r *domain.BalanceResult) BalanceResponse {
	return BalanceResponse{RefNumber: r.RefNumber, NewBalance: utils.FormatMoney(r.NewBalance)}
}

type TopUpResponse struct {
	RefNumber        string `json:"refNumber"`
	NewSourceBalance string `json:"newSourceBalance"`
	NewTargetBalance string `json:"newTargetBalance"`
}

func ToTopUpResponse(r *domain.TopUpResult) TopUpResponse {
	return TopUpResponse{
		RefNumber:        r.RefNumber,
		NewSourceBalance: utils.FormatMoney(r.NewSourceBalance),
		NewTargetBalance: utils.FormatMoney(r.NewTargetBalance),
	}
}

type TransferResponse struct {
	RefNumber          string `json:"refNumber"`
	CommissionFee      string `json:"commissionFee"`
	NewSenderBalance   string `json:"newSenderBalance"`
	NewReceiverBalance string `json:"newReceiverBalance"`
}

func ToTransferResponse(r *domain.TransferResult) TransferResponse {
	return TransferResponse{
		RefNumber:          r.RefNumber,
		CommissionFee:      utils.FormatMoney(r.CommissionFee),
		NewSenderBalance:   utils.FormatMoney(r.NewSenderBalance),
		NewReceiverBalance: utils.FormatMoney(r.NewReceiverBalance),
	}
}

// EntryResponse is one side of a posted transaction.
type EntryResponse struct {
	Key         string `json:"key"`
	AcctKey     string `json:"acctKey"`
	Entry       string `json:"entry"`
	AmountDr    string `json:"amountDr"`
	AmountCr    string `json:"amountCr"`
	Description string `json:"description"`
}

// TransactionResponse mirrors domain.LedgerTransaction with formatted amounts.
type TransactionResponse struct {
	Key             string          `json:"key"`
	RefNumber       string          `json:"refNumber"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	SenderAcctKey   string          `json:"senderAcctKey"`
	ReceiverAcctKey string          `json:"receiverAcctKey"`
	Description     string          `json:"description"`
	Amount          string          `json:"amount"`
	CommissionFee   string          `json:"commissionFee"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
	Entries         []EntryResponse `json:"entries,omitempty"`
}

func ToTransactionResponse(t domain.LedgerTransaction) TransactionResponse {
	resp := TransactionResponse{
		Key:             t.Key,
		RefNumber:       t.RefNumber,
		Type:            string(t.Type),
		Status:          string(t.Status),
		SenderAcctKey:   t.SenderAcctKey,
		ReceiverAcctKey: t.ReceiverAcctKey,
		Description:     t.Description,
		Amount:          utils.FormatMoney(t.Amount),
		CommissionFee:   utils.FormatMoney(t.CommissionFee),
		Version:         t.Version,
		CreatedAt:       t.CreatedAt,
		CreatedBy:       t.CreatedBy,
	}
	for _, e := range t.Entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			Key:         e.Key,
			AcctKey:     e.AcctKey,
			Entry:       string(e.Entry),
			AmountDr:    utils.FormatMoney(e.AmountDr),
			AmountCr:    utils.FormatMoney(e.AmountCr),
			Description: e.Description,
		})
	}
	return resp
}

// ListTransactionsParams are the query parameters of a transaction history page.
type ListTransactionsParams struct {
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken string `form:"nextToken"`
}

type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

func ToListTransactionsResponse(txns []domain.LedgerTransaction, nextToken *string) ListTransactionsResponse {
	resp := ListTransactionsResponse{
		Transactions: make([]TransactionResponse, 0, len(txns)),
		NextToken:    nextToken,
	}
	for _, t := range txns {
		resp.Transactions = append(resp.Transactions, ToTransactionResponse(t))
	}
	return resp
}

type BalanceHistoryParams struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

type BalanceHistoryResponse struct {
	Key            string    `json:"key"`
	TrxnKey        string    `json:"trxnKey"`
	PrevBalance    string    `json:"prevBalance"`
	TrxnAmount     string    `json:"trxnAmount"`
	RunningBalance string    `json:"runningBalance"`
	CreatedAt      time.Time `json:"createdAt"`
}

func ToBalanceHistoryResponses(history []domain.BalanceHistory) []BalanceHistoryResponse {
	out := make([]BalanceHistoryResponse, 0, len(history))
	for _, h := range history {
		out = append(out, BalanceHistoryResponse{
			Key:            h.Key,
			TrxnKey:        h.TrxnKey,
			PrevBalance:    utils.FormatMoney(h.PrevBalance),
			TrxnAmount:     utils.FormatMoney(h.TrxnAmount),
			RunningBalance: utils.FormatMoney(h.RunningBalance),
			CreatedAt:      h.CreatedAt,
		})
	}
	return out
}
