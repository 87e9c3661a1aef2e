package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidState       = errors.New("listing is not in a valid state for this operation")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrIneligibleUpgrade  = errors.New("target tier does not exceed current tier")
	ErrSignatureInvalid   = errors.New("webhook signature verification failed")
	ErrMalformedEvent     = errors.New("malformed webhook event payload")
	ErrReconciliationFail = errors.New("no matching payment record for completed event")
	ErrProviderDown       = errors.New("payment provider unavailable")

	// Infrastructure-shaped errors surfaced by repositories
	ErrOperationFailed    = errors.New("database operation failed")
	ErrInvalidExecContext = errors.New("invalid transaction execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
