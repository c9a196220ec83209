package keeper

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/paw-chain/settlement/x/settlement/ammmath"
	"github.com/paw-chain/settlement/x/settlement/types"
)

// ValidateSuccessor checks a produced state against the state it replaces.
// Identity fields never change; a swap keeps the LP supply and never lowers k;
// provision and withdrawal never lower k per squared LP unit.
func ValidateSuccessor(kind types.OperationKind, prev, next types.PoolState) error {
	if !prev.SameIdentity(next) {
		return errorsmod.Wrapf(types.ErrIdentityMismatch,
			"pool %s: identity (%s, %s, %s, %d bps) became (%s, %s, %s, %d bps)",
			prev.PoolIdentity, prev.PoolIdentity, prev.QuoteAssetID, prev.LPAssetID, prev.FeeBps,
			next.PoolIdentity, next.QuoteAssetID, next.LPAssetID, next.FeeBps)
	}
	if err := next.ValidateReserves(); err != nil {
		return errorsmod.Wrap(types.ErrInvariantViolation, err.Error())
	}

	switch kind {
	case types.OpSwap:
		if !next.LPSupply.Equal(prev.LPSupply) {
			return errorsmod.Wrapf(types.ErrInvariantViolation, "swap changed lp supply %s -> %s", prev.LPSupply, next.LPSupply)
		}
		if !ammmath.ProductNonDecreasing(prev.BaseReserve, prev.QuoteReserve, next.BaseReserve, next.QuoteReserve) {
			return errorsmod.Wrapf(types.ErrInvariantViolation, "constant product decreased: %s*%s -> %s*%s",
				prev.BaseReserve, prev.QuoteReserve, next.BaseReserve, next.QuoteReserve)
		}
	case types.OpProvideLiquidity, types.OpWithdrawLiquidity, types.OpCreatePool:
		if !ammmath.ProductPerShareNonDecreasing(
			prev.BaseReserve, prev.QuoteReserve, prev.LPSupply,
			next.BaseReserve, next.QuoteReserve, next.LPSupply,
		) {
			return errorsmod.Wrapf(types.ErrInvariantViolation, "product per share decreased: (%s*%s)/%s^2 -> (%s*%s)/%s^2",
				prev.BaseReserve, prev.QuoteReserve, prev.LPSupply, next.BaseReserve, next.QuoteReserve, next.LPSupply)
		}
	default:
		return errorsmod.Wrapf(types.ErrInvalidTransition, "unknown operation %s", kind)
	}
	return nil
}

// checkedAdd adds two quantities and rejects results wider than 128 bits.
func checkedAdd(name string, a, b math.Int) (math.Int, error) {
	sum := a.Add(b)
	if err := types.ValidateUint128(name, sum); err != nil {
		return math.Int{}, err
	}
	return sum, nil
}
