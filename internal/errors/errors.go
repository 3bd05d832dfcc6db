package errors

import (
	"errors"
	"fmt"
)

// Business rule violations. Expected, user-correctable, retryable.
var ErrTicketUnavailable = errors.New("ticket is not available for purchase")
var ErrTicketAlreadySold = errors.New("ticket is already sold")
var ErrAlreadyReturned = errors.New("transaction is already returned")

// Missing records. Precondition or lookup failures.
var ErrTicketNotFound = errors.New("ticket not found")
var ErrTransactionNotFound = errors.New("ticket transaction not found")
var ErrUserNotFound = errors.New("user not found")

// ErrMoneyReturnedTicketMissing signals that the gateway refund already went
// through but the local ticket record is gone. Distinct from a plain not-found:
// manual reconciliation is required, nothing can be retried.
var ErrMoneyReturnedTicketMissing = errors.New("money returned but ticket record is missing")

// GatewayError carries the payment gateway's own status and message for a
// non-success response. The message is preserved verbatim for the caller.
type GatewayError struct {
	Operation  string
	StatusCode int
	Status     string
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payment gateway %s failed: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("payment gateway %s failed with status %d", e.Operation, e.StatusCode)
}

// IsGatewayError reports whether err is (or wraps) a gateway failure.
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}
