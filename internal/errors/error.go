// Package errors provides the error taxonomy shared by the storefront core.
// Every failure an operation can surface to a caller is one of these
// sentinels, possibly wrapped with operation-specific context.
package errors

import "errors"

// Input validation failures, surfaced at the operation boundary.
var ErrValidation = errors.New("invalid input")

// Referenced entities that do not exist.
var ErrOrderNotFound = errors.New("order not found")
var ErrProductNotFound = errors.New("product not found")
var ErrUserNotFound = errors.New("user not found")

// ErrInsufficientStock is returned when a requested quantity exceeds the
// available stock, either at the pre-check or when a conditional decrement
// loses the race.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrAccessDenied is returned when the requesting identity is neither the
// owner of the entity nor an administrator.
var ErrAccessDenied = errors.New("access denied")

// ErrInvalidTransition is returned when a requested order status change is
// not permitted from the current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrOptimisticLock is returned when a versioned update lost a concurrent
// race; the caller may retry with fresh state.
var ErrOptimisticLock = errors.New("optimistic lock error: the record has been modified by another transaction")

// Storage failures. These wrap the driver error and are not part of the
// caller-facing taxonomy.
var ErrCreateOrder = errors.New("failed to create order")
var ErrCreateOrderItem = errors.New("failed to create order item")
var ErrUpdateOrder = errors.New("failed to update order")
var ErrFailedToFindOrder = errors.New("failed to find order")
var ErrFailedToFindUserOrders = errors.New("failed to find user orders")
var ErrFailedToFindOrderItems = errors.New("failed to find order items")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")
