package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/wallet_ledger_app/internal/apperrors"
	portssvc "github.com/SscSPs/wallet_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/wallet_ledger_app/internal/dto"
	"github.com/SscSPs/wallet_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// WalletHandlerOptions configures the wallet routes.
type WalletHandlerOptions struct {
	AmountPrecision int32            // Fractional digits rendered in responses
	AccountLimiter  *limiter.Limiter // Optional per-account limit on mutating routes
}

// walletHandler handles HTTP requests for the wallet ledger.
type walletHandler struct {
	ledger  portssvc.LedgerEngineSvcFacade
	query   portssvc.QuerySvcFacade
	options WalletHandlerOptions
}

// newWalletHandler creates a new walletHandler.
func newWalletHandler(ledger portssvc.LedgerEngineSvcFacade, query portssvc.QuerySvcFacade, options WalletHandlerOptions) *walletHandler {
	return &walletHandler{
		ledger:  ledger,
		query:   query,
		options: options,
	}
}

// RegisterWalletRoutes registers the wallet routes on the given group.
func RegisterWalletRoutes(rg *gin.RouterGroup, ledger portssvc.LedgerEngineSvcFacade, query portssvc.QuerySvcFacade, options WalletHandlerOptions) {
	h := newWalletHandler(ledger, query, options)

	rg.POST("/register", h.register)
	rg.POST("/deposit", h.deposit)
	rg.POST("/withdraw", h.withdraw)
	rg.POST("/transfer", h.transfer)
	rg.GET("/balance/:id", h.getBalance)
	rg.GET("/transactions/:id", h.listTransactions)
	rg.GET("/reconcile/:id", h.reconcile)
}

// register godoc
// @Summary Register a new account
// @Description Creates a new wallet account with a zero balance
// @Tags wallet
// @Produce  json
// @Success 201 {object} dto.RegisterResponse
// @Failure 429 {object} map[string]string "Too many requests"
// @Failure 500 {object} map[string]string "Failed to register account"
// @Router /register [post]
func (h *walletHandler) register(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)

	account, err := h.ledger.Register(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "Failed to register account")
		return
	}

	middleware.SetDistinctID(c, account.AccountID)
	logger.Info("Account registered", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.RegisterResponse{Message: "User registered", UserID: account.AccountID})
}

// deposit godoc
// @Summary Deposit funds
// @Description Credits an account and returns its new balance
// @Tags wallet
// @Accept  json
// @Produce  json
// @Param   deposit body dto.DepositRequest true "Deposit details"
// @Success 200 {object} dto.BalanceMutationResponse
// @Failure 400 {object} map[string]string "Invalid input format or amount"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 429 {object} map[string]string "Too many requests"
// @Failure 500 {object} map[string]string "Failed to deposit"
// @Router /deposit [post]
func (h *walletHandler) deposit(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Deposit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if !middleware.AllowAccount(c, h.options.AccountLimiter, req.UserID) {
		return
	}

	balance, err := h.ledger.Deposit(c.Request.Context(), req.UserID, *req.Amount)
	if err != nil {
		h.writeError(c, err, "Failed to deposit")
		return
	}

	middleware.RecordAccountAction(c, h.options.AccountLimiter, req.UserID)
	middleware.SetDistinctID(c, req.UserID)
	c.JSON(http.StatusOK, dto.BalanceMutationResponse{
		Message: "Deposit successful",
		Balance: dto.AmountNumber(balance, h.options.AmountPrecision),
	})
}

// withdraw godoc
// @Summary Withdraw funds
// @Description Debits an account and returns its new balance
// @Tags wallet
// @Accept  json
// @Produce  json
// @Param   withdrawal body dto.WithdrawRequest true "Withdrawal details"
// @Success 200 {object} dto.BalanceMutationResponse
// @Failure 400 {object} map[string]string "Invalid input, amount or insufficient funds"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 429 {object} map[string]string "Too many requests"
// @Failure 500 {object} map[string]string "Failed to withdraw"
// @Router /withdraw [post]
func (h *walletHandler) withdraw(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Withdraw", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if !middleware.AllowAccount(c, h.options.AccountLimiter, req.UserID) {
		return
	}

	balance, err := h.ledger.Withdraw(c.Request.Context(), req.UserID, *req.Amount)
	if err != nil {
		h.writeError(c, err, "Failed to withdraw")
		return
	}

	middleware.RecordAccountAction(c, h.options.AccountLimiter, req.UserID)
	middleware.SetDistinctID(c, req.UserID)
	c.JSON(http.StatusOK, dto.BalanceMutationResponse{
		Message: "Withdrawal successful",
		Balance: dto.AmountNumber(balance, h.options.AmountPrecision),
	})
}

// transfer godoc
// @Summary Transfer funds
// @Description Moves funds between two accounts atomically and returns the sender's new balance
// @Tags wallet
// @Accept  json
// @Produce  json
// @Param   transfer body dto.TransferRequest true "Transfer details"
// @Success 200 {object} dto.BalanceMutationResponse
// @Failure 400 {object} map[string]string "Invalid input, amount, self-transfer or insufficient funds"
// @Failure 403 {object} map[string]string "Transfer amount exceeds allowed limit"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 429 {object} map[string]string "Too many requests"
// @Failure 500 {object} map[string]string "Failed to transfer"
// @Router /transfer [post]
func (h *walletHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Transfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if !middleware.AllowAccount(c, h.options.AccountLimiter, req.SenderID) {
		return
	}

	balance, err := h.ledger.Transfer(c.Request.Context(), req.SenderID, req.RecipientID, *req.Amount)
	if err != nil {
		h.writeError(c, err, "Failed to transfer")
		return
	}

	middleware.RecordAccountAction(c, h.options.AccountLimiter, req.SenderID)
	middleware.SetDistinctID(c, req.SenderID)
	c.JSON(http.StatusOK, dto.BalanceMutationResponse{
		Message: "Transfer successful",
		Balance: dto.AmountNumber(balance, h.options.AmountPrecision),
	})
}

// getBalance godoc
// @Summary Get an account balance
// @Description Returns the most recently committed balance of an account
// @Tags wallet
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to retrieve balance"
// @Router /balance/{id} [get]
func (h *walletHandler) getBalance(c *gin.Context) {
	accountID := c.Param("id")

	balance, err := h.query.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		h.writeError(c, err, "Failed to retrieve balance")
		return
	}

	middleware.SetDistinctID(c, accountID)
	c.JSON(http.StatusOK, dto.BalanceResponse{
		UserID:  accountID,
		Balance: dto.AmountNumber(balance, h.options.AmountPrecision),
	})
}

// listTransactions godoc
// @Summary List account transactions
// @Description Returns the account history in commit order. Without paging parameters the full history is returned.
// @Tags wallet
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   limit query int false "Page size (max 100)"
// @Param   next_token query string false "Token from the previous page"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid paging parameters"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to list transactions"
// @Router /transactions/{id} [get]
func (h *walletHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	accountID := c.Param("id")

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	middleware.SetDistinctID(c, accountID)

	if params.Limit == 0 && params.NextToken == "" {
		records, err := h.query.ListTransactions(c.Request.Context(), accountID)
		if err != nil {
			h.writeError(c, err, "Failed to list transactions")
			return
		}
		c.JSON(http.StatusOK, dto.ListTransactionsResponse{
			Transactions: dto.ToTransactionResponses(records, h.options.AmountPrecision),
		})
		return
	}

	page, err := h.query.ListTransactionsPage(c.Request.Context(), accountID, params)
	if err != nil {
		h.writeError(c, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(page.Transactions, h.options.AmountPrecision),
		NextToken:    page.NextToken,
	})
}

// reconcile godoc
// @Summary Reconcile an account
// @Description Compares the account balance with the signed sum of its transactions
// @Tags wallet
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to reconcile account"
// @Router /reconcile/{id} [get]
func (h *walletHandler) reconcile(c *gin.Context) {
	accountID := c.Param("id")

	report, err := h.query.Reconcile(c.Request.Context(), accountID)
	if err != nil {
		h.writeError(c, err, "Failed to reconcile account")
		return
	}

	middleware.SetDistinctID(c, accountID)
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(report, h.options.AmountPrecision))
}

// writeError maps ledger errors to HTTP responses.
func (h *walletHandler) writeError(c *gin.Context, err error, fallback string) {
	logger := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound):
		logger.Warn("Account not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		logger.Warn("Insufficient funds", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient funds"})
	case errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrInvalidOperation),
		errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Rejected ledger request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrLimitExceeded):
		logger.Warn("Transfer limit exceeded", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": "Transfer amount exceeds allowed limit"})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
