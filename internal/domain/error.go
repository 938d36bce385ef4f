package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Listing lifecycle errors
	ErrInvalidState   = errors.New("listing status does not allow this transition")
	ErrForbidden      = errors.New("caller is not allowed to perform this action")
	ErrNotOwner       = errors.New("caller does not own this listing")
	ErrReasonRequired = errors.New("a rejection reason is required")

	// Payment and package errors
	ErrPaymentRequired      = errors.New("no completed payment exists for this listing")
	ErrPackageInactive      = errors.New("pricing package is inactive")
	ErrIncompatibleDuration = errors.New("addon duration must be shorter than the standard package duration")
	ErrGatewayUnavailable   = errors.New("payment gateway request failed")
	ErrCallbackBusy         = errors.New("another callback for this payment is in flight")

	// Infrastructure errors
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction execution context")
)
