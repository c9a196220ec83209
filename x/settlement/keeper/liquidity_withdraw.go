package keeper

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/paw-chain/settlement/x/settlement/ammmath"
	"github.com/paw-chain/settlement/x/settlement/types"
)

// ComputeWithdrawal validates a withdrawal under the normal or emergency limits
// selected by the intent. Authorization of the emergency mode is the caller's
// responsibility.
func ComputeWithdrawal(params types.Params, pool types.PoolState, intent types.WithdrawLiquidityIntent) (types.WithdrawalOutcome, error) {
	if err := intent.ValidateBasic(); err != nil {
		return types.WithdrawalOutcome{}, err
	}
	if intent.LPAmountToBurn.GT(pool.LPSupply) {
		return types.WithdrawalOutcome{}, errorsmod.Wrapf(types.ErrInvalidAmount,
			"burn %s exceeds lp supply %s", intent.LPAmountToBurn, pool.LPSupply)
	}

	limits := params.WithdrawalLimits(intent.IsEmergency)
	maxBurn, err := ammmath.ApplyBps(pool.LPSupply, limits.MaxWithdrawalBps)
	if err != nil {
		return types.WithdrawalOutcome{}, err
	}
	if intent.LPAmountToBurn.GT(maxBurn) {
		return types.WithdrawalOutcome{}, errorsmod.Wrapf(types.ErrSizeLimitExceeded,
			"burn %s exceeds %d bps of lp supply %s (max %s)", intent.LPAmountToBurn, limits.MaxWithdrawalBps, pool.LPSupply, maxBurn)
	}

	baseOut, err := ammmath.ProRataWithdrawal(pool.BaseReserve, intent.LPAmountToBurn, pool.LPSupply)
	if err != nil {
		return types.WithdrawalOutcome{}, err
	}
	quoteOut, err := ammmath.ProRataWithdrawal(pool.QuoteReserve, intent.LPAmountToBurn, pool.LPSupply)
	if err != nil {
		return types.WithdrawalOutcome{}, err
	}
	if baseOut.IsZero() && quoteOut.IsZero() {
		return types.WithdrawalOutcome{}, errorsmod.Wrapf(types.ErrInvalidAmount, "burn %s withdraws nothing", intent.LPAmountToBurn)
	}
	if baseOut.LT(intent.MinBaseOut) || quoteOut.LT(intent.MinQuoteOut) {
		return types.WithdrawalOutcome{}, errorsmod.Wrapf(types.ErrSlippageExceeded,
			"withdrawal %s/%s below minimum %s/%s", baseOut, quoteOut, intent.MinBaseOut, intent.MinQuoteOut)
	}

	successor := pool
	successor.BaseReserve = pool.BaseReserve.Sub(baseOut)
	successor.QuoteReserve = pool.QuoteReserve.Sub(quoteOut)
	successor.LPSupply = pool.LPSupply.Sub(intent.LPAmountToBurn)

	mode := "normal"
	if intent.IsEmergency {
		mode = "emergency"
	}
	if successor.BaseReserve.LT(limits.MinBaseReserve) ||
		successor.QuoteReserve.LT(limits.MinQuoteReserve) ||
		successor.LPSupply.LT(limits.MinLPSupply) {
		return types.WithdrawalOutcome{}, errorsmod.Wrapf(types.ErrReserveFloorViolation,
			"%s withdrawal leaves %s/%s lp %s, floors %s/%s lp %s", mode,
			successor.BaseReserve, successor.QuoteReserve, successor.LPSupply,
			limits.MinBaseReserve, limits.MinQuoteReserve, limits.MinLPSupply)
	}

	if err := ValidateSuccessor(types.OpWithdrawLiquidity, pool, successor); err != nil {
		return types.WithdrawalOutcome{}, err
	}

	return types.WithdrawalOutcome{
		Successor: successor,
		BaseOut:   baseOut,
		QuoteOut:  quoteOut,
		LPBurned:  intent.LPAmountToBurn,
	}, nil
}
