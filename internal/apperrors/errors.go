package apperrors

import "errors"

// ErrAccountNotFound indicates that the referenced wallet account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// ErrInvalidAmount indicates a non-positive, malformed or over-precise amount.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInsufficientFunds indicates that a debit would take a balance below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidOperation indicates a request that is well-formed but not allowed, e.g. a self-transfer.
var ErrInvalidOperation = errors.New("invalid operation")

// ErrLimitExceeded indicates that an amount is above the configured per-operation limit.
var ErrLimitExceeded = errors.New("amount exceeds allowed limit")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrInternal indicates an unexpected failure inside the ledger.
var ErrInternal = errors.New("internal error")
