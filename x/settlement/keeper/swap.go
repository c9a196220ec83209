package keeper

import (
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/paw-chain/settlement/x/settlement/ammmath"
	"github.com/paw-chain/settlement/x/settlement/types"
)

// ComputeSwap validates a swap against pool and returns the successor state.
// Checks run in a fixed order so that a given input always fails with the same
// error: basic validity, deadline, liquidity, dust floor, size cap, output,
// slippage floor and finally the constant-product post-condition.
func ComputeSwap(params types.Params, pool types.PoolState, intent types.SwapIntent, now time.Time) (types.SwapOutcome, error) {
	if err := intent.ValidateBasic(); err != nil {
		return types.SwapOutcome{}, err
	}
	if now.After(intent.Deadline) {
		return types.SwapOutcome{}, errorsmod.Wrapf(types.ErrDeadlineExceeded, "now %s, deadline %s",
			now.UTC().Format(time.RFC3339), intent.Deadline.UTC().Format(time.RFC3339))
	}
	if !pool.LPSupply.IsPositive() {
		return types.SwapOutcome{}, errorsmod.Wrapf(types.ErrInvalidPoolState, "pool %s has no liquidity", pool.PoolIdentity)
	}

	reserveIn, reserveOut := pool.Reserves(intent.Direction)

	if minIn := params.MinSwapAmount(intent.Direction); intent.AmountIn.LT(minIn) {
		return types.SwapOutcome{}, errorsmod.Wrapf(types.ErrSizeLimitExceeded, "amount in %s below minimum %s", intent.AmountIn, minIn)
	}
	maxIn, err := ammmath.ApplyBps(reserveIn, params.MaxSwapBps)
	if err != nil {
		return types.SwapOutcome{}, err
	}
	if intent.AmountIn.GT(maxIn) {
		return types.SwapOutcome{}, errorsmod.Wrapf(types.ErrSizeLimitExceeded,
			"amount in %s exceeds %d bps of reserve %s (max %s)", intent.AmountIn, params.MaxSwapBps, reserveIn, maxIn)
	}

	amountOut, err := ammmath.SwapOutput(reserveIn, reserveOut, intent.AmountIn, pool.FeeBps)
	if err != nil {
		return types.SwapOutcome{}, err
	}
	if !amountOut.IsPositive() {
		return types.SwapOutcome{}, errorsmod.Wrapf(types.ErrInvalidAmount, "amount in %s yields no output", intent.AmountIn)
	}
	if amountOut.LT(intent.MinOut) {
		return types.SwapOutcome{}, errorsmod.Wrapf(types.ErrSlippageExceeded, "amount out %s below minimum %s", amountOut, intent.MinOut)
	}

	newIn, err := checkedAdd("reserve in", reserveIn, intent.AmountIn)
	if err != nil {
		return types.SwapOutcome{}, err
	}
	newOut := reserveOut.Sub(amountOut)

	successor := pool
	if intent.Direction == types.BaseToQuote {
		successor.BaseReserve, successor.QuoteReserve = newIn, newOut
	} else {
		successor.QuoteReserve, successor.BaseReserve = newIn, newOut
	}

	if err := ValidateSuccessor(types.OpSwap, pool, successor); err != nil {
		return types.SwapOutcome{}, err
	}

	return types.SwapOutcome{
		Successor: successor,
		Direction: intent.Direction,
		AmountIn:  intent.AmountIn,
		AmountOut: amountOut,
	}, nil
}
