package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	portssvc "github.com/shadwattai/miniwallet/internal/core/ports/services"
	"github.com/shadwattai/miniwallet/internal/dto"
	"github.com/shadwattai/miniwallet/internal/middleware"
)

// walletHandler handles HTTP requests related to a user's accounts.
type walletHandler struct {
	walletService portssvc.WalletSvcFacade
	ledgerService portssvc.LedgerReaderSvc
}

func newWalletHandler(ws portssvc.WalletSvcFacade, ls portssvc.LedgerReaderSvc) *walletHandler {
	return &walletHandler{walletService: ws, ledgerService: ls}
}

// registerWalletRoutes registers onboarding, wallet management and wallet history routes.
func registerWalletRoutes(rg *gin.RouterGroup, walletService portssvc.WalletSvcFacade, ledgerService portssvc.LedgerReaderSvc) {
	h := newWalletHandler(walletService, ledgerService)

	rg.POST("/onboarding", h.onboard)

	wallets := rg.Group("/wallets")
	{
		wallets.POST("", h.createWallet)
		wallets.GET("", h.listWallets)
		wallets.GET("/:key", h.getWallet)
		wallets.POST("/:key/deactivate", h.deactivateWallet)
		wallets.POST("/:key/reactivate", h.reactivateWallet)
		wallets.POST("/:key/default", h.setDefaultWallet)
		wallets.GET("/:key/transactions", h.listTransactions)
		wallets.GET("/:key/balances", h.balanceHistory)
	}
}

// onboard godoc
// @Summary Onboard the caller
// @Description Opens the caller's initial account and default wallet. Repeating the call returns the existing accounts.
// @Tags wallets
// @Accept  json
// @Produce  json
// @Param   onboarding body dto.OnboardRequest false "Currency, defaults to the configured one"
// @Success 201 {object} dto.OnboardResponse
// @Failure 400 {object} map[string]string "Unsupported currency"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to onboard user"
// @Security BearerAuth
// @Router /onboarding [post]
func (h *walletHandler) onboard(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.OnboardRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, logger, err)
			return
		}
	}
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	initial, wallet, err := h.walletService.Onboard(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, logger, err, "Failed to onboard user")
		return
	}

	logger.Info("User onboarded", slog.String("wallet_key", wallet.Key))
	c.JSON(http.StatusCreated, dto.OnboardResponse{
		Initial: dto.ToWalletResponse(initial),
		Wallet:  dto.ToWalletResponse(wallet),
	})
}

// createWallet godoc
// @Summary Open a wallet or savings account
// @Tags wallets
// @Accept  json
// @Produce  json
// @Param   wallet body dto.CreateWalletRequest true "Wallet details"
// @Success 201 {object} dto.WalletResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create wallet"
// @Security BearerAuth
// @Router /wallets [post]
func (h *walletHandler) createWallet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	wallet, err := h.walletService.CreateWallet(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create wallet")
		return
	}

	logger.Info("Wallet created", slog.String("wallet_key", wallet.Key), slog.String("account_number", wallet.AccountNumber))
	c.JSON(http.StatusCreated, dto.ToWalletResponse(wallet))
}

// listWallets godoc
// @Summary List the caller's wallets
// @Description Returns wallet and savings accounts. The initial account is not listed.
// @Tags wallets
// @Produce  json
// @Success 200 {array} dto.WalletResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list wallets"
// @Security BearerAuth
// @Router /wallets [get]
func (h *walletHandler) listWallets(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	wallets, err := h.walletService.ListWallets(c.Request.Context(), actor)
	if err != nil {
		respondError(c, logger, err, "Failed to list wallets")
		return
	}
	c.JSON(http.StatusOK, dto.ToWalletResponses(wallets))
}

// getWallet godoc
// @Summary Get a wallet by key
// @Tags wallets
// @Produce  json
// @Param   key path string true "Wallet key"
// @Success 200 {object} dto.WalletResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Wallet belongs to another user"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 500 {object} map[string]string "Failed to retrieve wallet"
// @Security BearerAuth
// @Router /wallets/{key} [get]
func (h *walletHandler) getWallet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	key := c.Param("key")
	wallet, err := h.walletService.GetWallet(c.Request.Context(), actor, key)
	if err != nil {
		respondError(c, logger.With(slog.String("wallet_key", key)), err, "Failed to retrieve wallet")
		return
	}
	c.JSON(http.StatusOK, dto.ToWalletResponse(wallet))
}

// deactivateWallet godoc
// @Summary Deactivate a wallet
// @Description Inactive wallets cannot send or receive money. Deactivating twice is a no-op.
// @Tags wallets
// @Produce  json
// @Param   key path string true "Wallet key"
// @Success 200 {object} dto.WalletResponse
// @Failure 400 {object} map[string]string "Account type cannot be deactivated"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Wallet belongs to another user"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 409 {object} map[string]string "Wallet changed concurrently"
// @Security BearerAuth
// @Router /wallets/{key}/deactivate [post]
func (h *walletHandler) deactivateWallet(c *gin.Context) {
	h.changeWallet(c, "Failed to deactivate wallet", h.walletService.DeactivateWallet)
}

// reactivateWallet godoc
// @Summary Reactivate a wallet
// @Tags wallets
// @Produce  json
// @Param   key path string true "Wallet key"
// @Success 200 {object} dto.WalletResponse
// @Failure 400 {object} map[string]string "Account type cannot be reactivated"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Wallet belongs to another user"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 409 {object} map[string]string "Wallet changed concurrently"
// @Security BearerAuth
// @Router /wallets/{key}/reactivate [post]
func (h *walletHandler) reactivateWallet(c *gin.Context) {
	h.changeWallet(c, "Failed to reactivate wallet", h.walletService.ReactivateWallet)
}

// setDefaultWallet godoc
// @Summary Make a wallet the default
// @Description Clears the default flag on the caller's other wallets.
// @Tags wallets
// @Produce  json
// @Param   key path string true "Wallet key"
// @Success 200 {object} dto.WalletResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Wallet belongs to another user"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 422 {object} map[string]string "Wallet is inactive"
// @Security BearerAuth
// @Router /wallets/{key}/default [post]
func (h *walletHandler) setDefaultWallet(c *gin.Context) {
	h.changeWallet(c, "Failed to set default wallet", h.walletService.SetDefaultWallet)
}

type walletChange func(ctx context.Context, actor domain.Actor, key string) (*domain.Account, error)

func (h *walletHandler) changeWallet(c *gin.Context, failure string, change walletChange) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	key := c.Param("key")
	logger = logger.With(slog.String("wallet_key", key))
	wallet, err := change(c.Request.Context(), actor, key)
	if err != nil {
		respondError(c, logger, err, failure)
		return
	}

	logger.Info("Wallet updated", slog.Bool("is_active", wallet.IsActive), slog.Bool("is_default", wallet.IsDefault))
	c.JSON(http.StatusOK, dto.ToWalletResponse(wallet))
}

// listTransactions godoc
// @Summary List a wallet's transactions
// @Description Newest first. Pass nextToken from the previous page to continue.
// @Tags wallets
// @Produce  json
// @Param   key path string true "Wallet key"
// @Param   limit query int false "Page size (1-100, default 20)"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Wallet belongs to another user"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 500 {object} map[string]string "Failed to list transactions"
// @Security BearerAuth
// @Router /wallets/{key}/transactions [get]
func (h *walletHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	key := c.Param("key")
	txns, next, err := h.ledgerService.ListTransactions(c.Request.Context(), actor, key, params)
	if err != nil {
		respondError(c, logger.With(slog.String("wallet_key", key)), err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, dto.ToListTransactionsResponse(txns, next))
}

// balanceHistory godoc
// @Summary List a wallet's balance snapshots
// @Description One snapshot per posted movement, newest first.
// @Tags wallets
// @Produce  json
// @Param   key path string true "Wallet key"
// @Param   limit query int false "Number of snapshots (1-200, default 50)"
// @Success 200 {array} dto.BalanceHistoryResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Wallet belongs to another user"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 500 {object} map[string]string "Failed to load balance history"
// @Security BearerAuth
// @Router /wallets/{key}/balances [get]
func (h *walletHandler) balanceHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.BalanceHistoryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	key := c.Param("key")
	history, err := h.ledgerService.BalanceHistory(c.Request.Context(), actor, key, params.Limit)
	if err != nil {
		respondError(c, logger.With(slog.String("wallet_key", key)), err, "Failed to load balance history")
		return
	}
	c.JSON(http.StatusOK, dto.ToBalanceHistoryResponses(history))
}
