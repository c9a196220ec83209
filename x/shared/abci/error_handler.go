// Package abci reports errors raised by end-of-block housekeeping that must
// not abort the block. Invariant failures are not routed through it.
package abci

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// EventTypeBlockerError is emitted for every handled error.
const EventTypeBlockerError = "blocker_error"

// ErrorSeverity classifies the severity of a handled error.
type ErrorSeverity int

const (
	// SeverityLow is housekeeping that can simply be retried next block.
	SeverityLow ErrorSeverity = iota
	// SeverityMedium degrades the engine, e.g. markers piling up unpruned.
	SeverityMedium
	// SeverityHigh needs operator attention.
	SeverityHigh
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// BlockerErrorHandler logs and emits events for errors of one module's
// end-of-block work.
type BlockerErrorHandler struct {
	moduleName string
	ctx        sdk.Context
}

// NewBlockerErrorHandler creates a handler bound to the block context.
func NewBlockerErrorHandler(ctx sdk.Context, moduleName string) *BlockerErrorHandler {
	return &BlockerErrorHandler{
		moduleName: moduleName,
		ctx:        ctx,
	}
}

// Handle reports err and returns true if there was one. Callers continue
// with the block either way.
func (h *BlockerErrorHandler) Handle(operation string, severity ErrorSeverity, err error) bool {
	if err == nil {
		return false
	}

	logger := h.ctx.Logger().With("module", fmt.Sprintf("x/%s", h.moduleName))
	fields := []interface{}{"operation", operation, "severity", severity.String(), "height", h.ctx.BlockHeight(), "error", err}
	switch severity {
	case SeverityHigh:
		logger.Error("end block error", fields...)
	case SeverityMedium:
		logger.Warn("end block error", fields...)
	default:
		logger.Debug("end block error", fields...)
	}

	h.ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			EventTypeBlockerError,
			sdk.NewAttribute("module", h.moduleName),
			sdk.NewAttribute("operation", operation),
			sdk.NewAttribute("severity", severity.String()),
			sdk.NewAttribute("error", err.Error()),
			sdk.NewAttribute("height", fmt.Sprintf("%d", h.ctx.BlockHeight())),
		),
	)
	return true
}
