package dto

import (
	"time"

	"github.com/shadwattai/miniwallet/internal/core/domain"
	"github.com/shadwattai/miniwallet/internal/utils"
)

// CreateWalletRequest defines the data needed to open a wallet or savings account.
type CreateWalletRequest struct {
	AccountName string             `json:"accountName" binding:"required,max=100"`
	AccountType domain.AccountType `json:"accountType" binding:"required,oneof=wallet savings"`
	Currency    string             `json:"currency" binding:"required,len=3"`
	IsDefault   bool               `json:"isDefault"`
}

// OnboardRequest opens the user's funding boundary and first wallet.
// An empty currency means the configured default.
type OnboardRequest struct {
	Currency string `json:"currency" binding:"omitempty,len=3"`
}

// WalletResponse defines the data returned for an account.
// Mirrors domain.Account.
type WalletResponse struct {
	Key           string             `json:"key"`
	AccountNumber string             `json:"accountNumber"`
	AccountName   string             `json:"accountName"`
	AccountType   domain.AccountType `json:"accountType"`
	Currency      string             `json:"currency"`
	Balance       string             `json:"balance"`
	IsActive      bool               `json:"isActive"`
	IsDefault     bool               `json:"isDefault"`
	Version       int64              `json:"version"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// ToWalletResponse converts a domain.Account to WalletResponse DTO
func ToWalletResponse(a *domain.Account) WalletResponse {
	return WalletResponse{
		Key:           a.Key,
		AccountNumber: a.AccountNumber,
		AccountName:   a.AccountName,
		AccountType:   a.AccountType,
		Currency:      a.Currency,
		Balance:       utils.FormatMoney(a.Balance),
		IsActive:      a.IsActive,
		IsDefault:     a.IsDefault,
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func ToWalletResponses(accounts []domain.Account) []WalletResponse {
	out := make([]WalletResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, ToWalletResponse(&accounts[i]))
	}
	return out
}

type OnboardResponse struct {
	Initial WalletResponse `json:"initial"`
	Wallet  WalletResponse `json:"wallet"`
}
