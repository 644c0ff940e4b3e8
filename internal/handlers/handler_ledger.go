package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/shadwattai/miniwallet/internal/core/ports/services"
	"github.com/shadwattai/miniwallet/internal/dto"
	"github.com/shadwattai/miniwallet/internal/middleware"
)

// ledgerHandler handles HTTP requests that move money.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// registerLedgerRoutes registers the posting and transaction lookup routes.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	ledger := rg.Group("/ledger")
	{
		ledger.POST("/deposit", h.deposit)
		ledger.POST("/withdraw", h.withdraw)
		ledger.POST("/topup", h.topUp)
		ledger.POST("/transfer", h.transfer)
		ledger.GET("/transactions/:ref", h.getTransaction)
	}
}

// deposit godoc
// @Summary Deposit into a savings account
// @Description Moves money from the user's initial account into one of their savings accounts
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   deposit body dto.DepositRequest true "Deposit details"
// @Success 201 {object} dto.BalanceResponse
// @Failure 400 {object} map[string]string "Invalid input, wrong account type or currency mismatch"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Account belongs to another user"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 422 {object} map[string]string "Account inactive"
// @Failure 500 {object} map[string]string "Failed to post deposit"
// @Security BearerAuth
// @Router /ledger/deposit [post]
func (h *ledgerHandler) deposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("wallet_key", req.WalletKey))
	result, err := h.ledgerService.Deposit(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, logger, err, "Failed to post deposit")
		return
	}
	c.JSON(http.StatusCreated, dto.ToBalanceResponse(result))
}

// withdraw godoc
// @Summary Withdraw from a savings account
// @Description Moves money from a savings account back to the user's initial account
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   withdrawal body dto.WithdrawRequest true "Withdrawal details"
// @Success 201 {object} dto.BalanceResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Account belongs to another user"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 409 {object} map[string]string "Balance changed concurrently"
// @Failure 422 {object} map[string]string "Insufficient funds or minimum balance violated"
// @Failure 500 {object} map[string]string "Failed to post withdrawal"
// @Security BearerAuth
// @Router /ledger/withdraw [post]
func (h *ledgerHandler) withdraw(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("wallet_key", req.WalletKey))
	result, err := h.ledgerService.Withdraw(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, logger, err, "Failed to post withdrawal")
		return
	}
	c.JSON(http.StatusCreated, dto.ToBalanceResponse(result))
}

// topUp godoc
// @Summary Top up a wallet
// @Description Moves money from one of the user's savings accounts into one of their wallets
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   topup body dto.TopUpRequest true "Top-up details"
// @Success 201 {object} dto.TopUpResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Account belongs to another user"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 409 {object} map[string]string "Balance changed concurrently"
// @Failure 422 {object} map[string]string "Insufficient funds or inactive account"
// @Failure 500 {object} map[string]string "Failed to post top-up"
// @Security BearerAuth
// @Router /ledger/topup [post]
func (h *ledgerHandler) topUp(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("wallet_key", req.WalletKey), slog.String("source_key", req.SourceAccountKey))
	result, err := h.ledgerService.TopUp(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, logger, err, "Failed to post top-up")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTopUpResponse(result))
}

// transfer godoc
// @Summary Transfer between wallets
// @Description Sends money to another wallet. The sender pays the commission on top of the amount.
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   transfer body dto.TransferRequest true "Transfer details"
// @Success 201 {object} dto.TransferResponse
// @Failure 400 {object} map[string]string "Invalid input, same wallet, wrong account type or currency mismatch"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Sender wallet belongs to another user"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 409 {object} map[string]string "Balance changed concurrently"
// @Failure 422 {object} map[string]string "Insufficient funds or inactive wallet"
// @Failure 500 {object} map[string]string "Failed to post transfer"
// @Security BearerAuth
// @Router /ledger/transfer [post]
func (h *ledgerHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	logger = logger.With(
		slog.String("sender_key", req.SenderWalletKey),
		slog.String("receiver_key", req.ReceiverWalletKey),
	)
	logger.Info("Received request to transfer", slog.String("amount", req.Amount.String()))

	result, err := h.ledgerService.Transfer(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, logger, err, "Failed to post transfer")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTransferResponse(result))
}

// getTransaction godoc
// @Summary Get a transaction by reference number
// @Description Returns a posted transaction with its entries. The caller must own one of its accounts.
// @Tags ledger
// @Produce  json
// @Param   ref path string true "Reference number"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /ledger/transactions/{ref} [get]
func (h *ledgerHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	ref := c.Param("ref")
	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), actor, ref)
	if err != nil {
		respondError(c, logger.With(slog.String("ref_number", ref)), err, "Failed to retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(*txn))
}
