package types

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// Settlement rejections. Every error aborts the whole transition; none of them
// leaves a partial write behind.
var (
	ErrInvalidAmount         = errorsmod.Register(ModuleName, 2, "invalid amount")
	ErrSlippageExceeded      = errorsmod.Register(ModuleName, 3, "output below slippage floor")
	ErrDeadlineExceeded      = errorsmod.Register(ModuleName, 4, "deadline exceeded")
	ErrSizeLimitExceeded     = errorsmod.Register(ModuleName, 5, "operation size out of bounds")
	ErrRatioImbalance        = errorsmod.Register(ModuleName, 6, "deposit ratio deviates from pool ratio")
	ErrReserveFloorViolation = errorsmod.Register(ModuleName, 7, "successor breaches reserve floor")
	ErrInvariantViolation    = errorsmod.Register(ModuleName, 8, "pool invariant violated")
	ErrIdentityMismatch      = errorsmod.Register(ModuleName, 9, "immutable pool field changed")
	ErrUnauthorizedIssuance  = errorsmod.Register(ModuleName, 10, "unauthorized liquidity token issuance")
	ErrPoolNotFound          = errorsmod.Register(ModuleName, 11, "pool not found")
	ErrPoolAlreadyExists     = errorsmod.Register(ModuleName, 12, "pool already exists")
	ErrEntrySpent            = errorsmod.Register(ModuleName, 13, "pool entry already spent")
	ErrInvalidPoolState      = errorsmod.Register(ModuleName, 14, "invalid pool state")
	ErrUnauthorized          = errorsmod.Register(ModuleName, 15, "unauthorized")
	ErrInvalidParams         = errorsmod.Register(ModuleName, 16, "invalid params")
	ErrInvalidTransition     = errorsmod.Register(ModuleName, 17, "malformed transition")
)

// RejectionTagUnknown is reported for errors outside the settlement taxonomy.
const RejectionTagUnknown = "unknown"

var rejectionTags = []struct {
	err *errorsmod.Error
	tag string
}{
	{ErrInvalidAmount, "invalid_amount"},
	{ErrSlippageExceeded, "slippage_exceeded"},
	{ErrDeadlineExceeded, "deadline_exceeded"},
	{ErrSizeLimitExceeded, "size_limit_exceeded"},
	{ErrRatioImbalance, "ratio_imbalance"},
	{ErrReserveFloorViolation, "reserve_floor_violation"},
	{ErrInvariantViolation, "invariant_violation"},
	{ErrIdentityMismatch, "identity_mismatch"},
	{ErrUnauthorizedIssuance, "unauthorized_issuance"},
	{ErrPoolNotFound, "pool_not_found"},
	{ErrPoolAlreadyExists, "pool_already_exists"},
	{ErrEntrySpent, "entry_spent"},
	{ErrInvalidPoolState, "invalid_pool_state"},
	{ErrUnauthorized, "unauthorized"},
	{ErrInvalidParams, "invalid_params"},
	{ErrInvalidTransition, "invalid_transition"},
}

// RejectionTag returns the taxonomy tag of err, used as a metric label and log field.
func RejectionTag(err error) string {
	if err == nil {
		return ""
	}
	for _, rt := range rejectionTags {
		if errors.Is(err, rt.err) {
			return rt.tag
		}
	}
	return RejectionTagUnknown
}

// IsInvariantViolation reports whether err signals an internal arithmetic fault
// rather than a rejection of user input.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}
