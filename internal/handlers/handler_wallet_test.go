package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/wallet_ledger_app/internal/apperrors"
	"github.com/SscSPs/wallet_ledger_app/internal/core/domain"
	"github.com/SscSPs/wallet_ledger_app/internal/dto"
	"github.com/SscSPs/wallet_ledger_app/internal/handlers"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mocks ---

type MockLedgerEngine struct {
	mock.Mock
}

func (m *MockLedgerEngine) Register(ctx context.Context) (*domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerEngine) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerEngine) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerEngine) Transfer(ctx context.Context, senderID string, recipientID string, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, senderID, recipientID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockQueryService) ListTransactions(ctx context.Context, accountID string) ([]domain.TransactionRecord, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransactionRecord), args.Error(1)
}

func (m *MockQueryService) ListTransactionsPage(ctx context.Context, accountID string, params dto.ListTransactionsParams) (*dto.TransactionPage, error) {
	args := m.Called(ctx, accountID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TransactionPage), args.Error(1)
}

func (m *MockQueryService) Reconcile(ctx context.Context, accountID string) (*domain.Reconciliation, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}

func amountEq(expected string) any {
	want := decimal.RequireFromString(expected)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

// --- Test Suite Setup ---

type WalletHandlerTestSuite struct {
	suite.Suite
	router *gin.Engine
	ledger *MockLedgerEngine
	query  *MockQueryService
}

func (suite *WalletHandlerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(dto.RegisterValidations())
}

func (suite *WalletHandlerTestSuite) SetupTest() {
	suite.ledger = new(MockLedgerEngine)
	suite.query = new(MockQueryService)
	suite.router = gin.New()
	handlers.RegisterWalletRoutes(suite.router.Group(""), suite.ledger, suite.query, handlers.WalletHandlerOptions{AmountPrecision: 2})
}

func (suite *WalletHandlerTestSuite) TearDownTest() {
	suite.ledger.AssertExpectations(suite.T())
	suite.query.AssertExpectations(suite.T())
}

func (suite *WalletHandlerTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *WalletHandlerTestSuite) errorMessage(w *httptest.ResponseRecorder) string {
	var body map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

// --- Tests ---

func (suite *WalletHandlerTestSuite) TestRegister() {
	suite.ledger.On("Register", mock.Anything).Return(&domain.Account{AccountID: "acc-1"}, nil).Once()

	w := suite.do(http.MethodPost, "/register", "")

	suite.Equal(http.StatusCreated, w.Code)
	suite.JSONEq(`{"message":"User registered","user_id":"acc-1"}`, w.Body.String())
}

func (suite *WalletHandlerTestSuite) TestRegister_InternalError() {
	suite.ledger.On("Register", mock.Anything).Return(nil, errUnavailable).Once()

	w := suite.do(http.MethodPost, "/register", "")

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal("Failed to register account", suite.errorMessage(w))
}

func (suite *WalletHandlerTestSuite) TestDeposit_BalanceIsJSONNumber() {
	suite.ledger.On("Deposit", mock.Anything, "acc-1", amountEq("100")).Return(decimal.RequireFromString("100"), nil).Once()

	w := suite.do(http.MethodPost, "/deposit", `{"user_id":"acc-1","amount":100}`)

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"message":"Deposit successful","balance":100.00}`, w.Body.String())
	suite.Contains(w.Body.String(), `"balance":100.00`)
}

func (suite *WalletHandlerTestSuite) TestDeposit_AcceptsStringAmount() {
	suite.ledger.On("Deposit", mock.Anything, "acc-1", amountEq("0.10")).Return(decimal.RequireFromString("0.1"), nil).Once()

	w := suite.do(http.MethodPost, "/deposit", `{"user_id":"acc-1","amount":"0.10"}`)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"balance":0.10`)
}

func (suite *WalletHandlerTestSuite) TestDeposit_BindFailures() {
	bodies := []string{
		`{"amount":10}`,
		`{"user_id":"acc-1"}`,
		`{"user_id":"acc 1","amount":10}`,
		`{"user_id":"acc-1","amount":"ten"}`,
		`not json`,
	}
	for _, body := range bodies {
		w := suite.do(http.MethodPost, "/deposit", body)
		suite.Equal(http.StatusBadRequest, w.Code, body)
		suite.Contains(suite.errorMessage(w), "Invalid request format", body)
	}
}

func (suite *WalletHandlerTestSuite) TestErrorMapping() {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", fmt.Errorf("lookup: %w", apperrors.ErrAccountNotFound), http.StatusNotFound, "Account not found"},
		{"insufficient", apperrors.ErrInsufficientFunds, http.StatusBadRequest, "Insufficient funds"},
		{"invalid amount", fmt.Errorf("bad: %w", apperrors.ErrInvalidAmount), http.StatusBadRequest, "bad: invalid amount"},
		{"invalid operation", apperrors.ErrInvalidOperation, http.StatusBadRequest, "invalid operation"},
		{"limit", apperrors.ErrLimitExceeded, http.StatusForbidden, "Transfer amount exceeds allowed limit"},
		{"unexpected", errUnavailable, http.StatusInternalServerError, "Failed to transfer"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.ledger.On("Transfer", mock.Anything, "acc-1", "acc-2", amountEq("5")).Return(decimal.Zero, tt.err).Once()

			w := suite.do(http.MethodPost, "/transfer", `{"sender_id":"acc-1","recipient_id":"acc-2","amount":5}`)

			suite.Equal(tt.status, w.Code)
			suite.Equal(tt.message, suite.errorMessage(w))
		})
	}
}

func (suite *WalletHandlerTestSuite) TestWithdraw() {
	suite.ledger.On("Withdraw", mock.Anything, "acc-1", amountEq("60")).Return(decimal.RequireFromString("40"), nil).Once()

	w := suite.do(http.MethodPost, "/withdraw", `{"user_id":"acc-1","amount":"60"}`)

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"message":"Withdrawal successful","balance":40.00}`, w.Body.String())
}

func (suite *WalletHandlerTestSuite) TestGetBalance() {
	suite.query.On("GetBalance", mock.Anything, "acc-1").Return(decimal.RequireFromString("12.5"), nil).Once()
	suite.query.On("GetBalance", mock.Anything, "missing").Return(decimal.Zero, apperrors.ErrAccountNotFound).Once()

	w := suite.do(http.MethodGet, "/balance/acc-1", "")
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"user_id":"acc-1","balance":12.50}`, w.Body.String())

	w = suite.do(http.MethodGet, "/balance/missing", "")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *WalletHandlerTestSuite) TestListTransactions_FullHistory() {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	suite.query.On("ListTransactions", mock.Anything, "acc-1").Return([]domain.TransactionRecord{
		{TransactionID: 1, AccountID: "acc-1", Kind: domain.Deposit, Amount: decimal.RequireFromString("100"), Timestamp: ts},
		{TransactionID: 2, AccountID: "acc-1", Kind: domain.TransferOut, Amount: decimal.RequireFromString("40"), CounterpartyID: "acc-2", TransferID: "t-1", Timestamp: ts},
	}, nil).Once()

	w := suite.do(http.MethodGet, "/transactions/acc-1", "")

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"transactions":[
		{"id":1,"kind":"deposit","action":"deposit","amount":100.00,"counterparty_id":null,"target":null,"timestamp":"2024-01-02T03:04:05Z"},
		{"id":2,"kind":"transfer_out","action":"transfer_out","amount":40.00,"counterparty_id":"acc-2","target":"acc-2","transfer_id":"t-1","timestamp":"2024-01-02T03:04:05Z"}
	]}`, w.Body.String())
}

func (suite *WalletHandlerTestSuite) TestListTransactions_EmptyHistoryIsArray() {
	suite.query.On("ListTransactions", mock.Anything, "acc-1").Return([]domain.TransactionRecord{}, nil).Once()

	w := suite.do(http.MethodGet, "/transactions/acc-1", "")

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"transactions":[]}`, w.Body.String())
}

func (suite *WalletHandlerTestSuite) TestListTransactions_Paged() {
	token := "next"
	suite.query.On("ListTransactionsPage", mock.Anything, "acc-1", dto.ListTransactionsParams{Limit: 1, NextToken: "prev"}).
		Return(&dto.TransactionPage{
			Transactions: []domain.TransactionRecord{{TransactionID: 5, AccountID: "acc-1", Kind: domain.Deposit, Amount: decimal.RequireFromString("1")}},
			NextToken:    &token,
		}, nil).Once()

	w := suite.do(http.MethodGet, "/transactions/acc-1?limit=1&next_token=prev", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListTransactionsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Transactions, 1)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal("next", *resp.NextToken)
}

func (suite *WalletHandlerTestSuite) TestListTransactions_InvalidLimit() {
	w := suite.do(http.MethodGet, "/transactions/acc-1?limit=1000", "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(suite.errorMessage(w), "Invalid query parameters")
}

func (suite *WalletHandlerTestSuite) TestReconcile() {
	suite.query.On("Reconcile", mock.Anything, "acc-1").Return(&domain.Reconciliation{
		AccountID:        "acc-1",
		Balance:          decimal.RequireFromString("60"),
		LedgerSum:        decimal.RequireFromString("60"),
		TransactionCount: 2,
		Balanced:         true,
	}, nil).Once()

	w := suite.do(http.MethodGet, "/reconcile/acc-1", "")

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"user_id":"acc-1","balance":60.00,"ledger_sum":60.00,"transaction_count":2,"balanced":true}`, w.Body.String())
}

func (suite *WalletHandlerTestSuite) TestAccountRateLimit() {
	accountLimiter, err := handlers.NewMemoryLimiter("2-M")
	suite.Require().NoError(err)
	router := gin.New()
	handlers.RegisterWalletRoutes(router.Group(""), suite.ledger, suite.query, handlers.WalletHandlerOptions{
		AmountPrecision: 2,
		AccountLimiter:  accountLimiter,
	})
	suite.ledger.On("Deposit", mock.Anything, "acc-1", amountEq("1")).Return(decimal.RequireFromString("1"), nil).Twice()

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/deposit", bytes.NewBufferString(`{"user_id":"acc-1","amount":1}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	suite.Equal([]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func (suite *WalletHandlerTestSuite) TestAccountRateLimit_RejectedRequestsAreFree() {
	accountLimiter, err := handlers.NewMemoryLimiter("1-M")
	suite.Require().NoError(err)
	router := gin.New()
	handlers.RegisterWalletRoutes(router.Group(""), suite.ledger, suite.query, handlers.WalletHandlerOptions{
		AmountPrecision: 2,
		AccountLimiter:  accountLimiter,
	})
	suite.ledger.On("Withdraw", mock.Anything, "acc-1", amountEq("500")).Return(decimal.Zero, apperrors.ErrInsufficientFunds).Times(3)
	suite.ledger.On("Withdraw", mock.Anything, "acc-1", amountEq("5")).Return(decimal.RequireFromString("5"), nil).Once()

	serve := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/withdraw", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	for range 3 {
		suite.Equal(http.StatusBadRequest, serve(`{"user_id":"acc-1","amount":500}`))
	}
	suite.Equal(http.StatusOK, serve(`{"user_id":"acc-1","amount":5}`))
	suite.Equal(http.StatusTooManyRequests, serve(`{"user_id":"acc-1","amount":5}`))
}

var errUnavailable = errors.New("database unavailable")

// --- Run Test Suite ---
func TestWalletHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(WalletHandlerTestSuite))
}
