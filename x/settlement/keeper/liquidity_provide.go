package keeper

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/paw-chain/settlement/x/settlement/ammmath"
	"github.com/paw-chain/settlement/x/settlement/types"
)

// ComputeProvision validates a liquidity provision and returns the successor
// state together with the LP amount to mint.
func ComputeProvision(params types.Params, pool types.PoolState, intent types.ProvideLiquidityIntent) (types.ProvisionOutcome, error) {
	if err := intent.ValidateBasic(); err != nil {
		return types.ProvisionOutcome{}, err
	}
	if intent.IsInitial {
		return computeInitialProvision(params, pool, intent.BaseAmount, intent.QuoteAmount, intent.MinLPOut)
	}
	return computeSubsequentProvision(params, pool, intent)
}

func computeInitialProvision(params types.Params, pool types.PoolState, base, quote, minLPOut math.Int) (types.ProvisionOutcome, error) {
	if !pool.IsEmpty() {
		return types.ProvisionOutcome{}, errorsmod.Wrapf(types.ErrInvalidPoolState,
			"initial provision into pool %s with lp supply %s", pool.PoolIdentity, pool.LPSupply)
	}
	// each side must exceed the floor
	if base.LTE(params.MinInitialDeposit) || quote.LTE(params.MinInitialDeposit) {
		return types.ProvisionOutcome{}, errorsmod.Wrapf(types.ErrSizeLimitExceeded,
			"initial deposit %s/%s does not exceed minimum %s per side", base, quote, params.MinInitialDeposit)
	}

	lp, err := ammmath.InitialLPIssuance(base, quote)
	if err != nil {
		return types.ProvisionOutcome{}, err
	}
	if !lp.IsPositive() {
		return types.ProvisionOutcome{}, errorsmod.Wrap(types.ErrInvalidAmount, "initial deposit mints no lp tokens")
	}
	if lp.LT(minLPOut) {
		return types.ProvisionOutcome{}, errorsmod.Wrapf(types.ErrSlippageExceeded, "lp minted %s below minimum %s", lp, minLPOut)
	}

	successor := pool
	successor.BaseReserve = base
	successor.QuoteReserve = quote
	successor.LPSupply = lp
	if err := ValidateSuccessor(types.OpProvideLiquidity, pool, successor); err != nil {
		return types.ProvisionOutcome{}, err
	}

	return types.ProvisionOutcome{
		Successor:    successor,
		BaseIn:       base,
		QuoteIn:      quote,
		LPMinted:     lp,
		DeviationBps: math.ZeroInt(),
	}, nil
}

// effectiveDeviationCap is the caller's tolerance, bounded by the configured one.
// Zero means the configured default.
func effectiveDeviationCap(params types.Params, requested uint32) uint32 {
	if requested == 0 || requested > params.MaxRatioDeviationBps {
		return params.MaxRatioDeviationBps
	}
	return requested
}

func computeSubsequentProvision(params types.Params, pool types.PoolState, intent types.ProvideLiquidityIntent) (types.ProvisionOutcome, error) {
	if !pool.LPSupply.IsPositive() {
		return types.ProvisionOutcome{}, errorsmod.Wrapf(types.ErrInvalidPoolState,
			"pool %s has no liquidity; use an initial provision", pool.PoolIdentity)
	}

	baseRatio, err := ammmath.ShareRatio(intent.BaseAmount, pool.BaseReserve)
	if err != nil {
		return types.ProvisionOutcome{}, err
	}
	quoteRatio, err := ammmath.ShareRatio(intent.QuoteAmount, pool.QuoteReserve)
	if err != nil {
		return types.ProvisionOutcome{}, err
	}
	deviation, err := ammmath.RatioDeviationBps(baseRatio, quoteRatio)
	if err != nil {
		return types.ProvisionOutcome{}, err
	}
	limit := effectiveDeviationCap(params, intent.MaxRatioDeviationBps)
	if deviation.GT(math.NewIntFromUint64(uint64(limit))) {
		return types.ProvisionOutcome{}, errorsmod.Wrapf(types.ErrRatioImbalance,
			"deposit ratios %s/%s deviate %s bps (max %d)", baseRatio, quoteRatio, deviation, limit)
	}

	maxBase, err := ammmath.ApplyBps(pool.BaseReserve, params.MaxSingleProvisionBps)
	if err != nil {
		return types.ProvisionOutcome{}, err
	}
	maxQuote, err := ammmath.ApplyBps(pool.QuoteReserve, params.MaxSingleProvisionBps)
	if err != nil {
		return types.ProvisionOutcome{}, err
	}
	if intent.BaseAmount.GT(maxBase) || intent.QuoteAmount.GT(maxQuote) {
		return types.ProvisionOutcome{}, errorsmod.Wrapf(types.ErrSizeLimitExceeded,
			"deposit %s/%s exceeds %d bps of reserves (max %s/%s)",
			intent.BaseAmount, intent.QuoteAmount, params.MaxSingleProvisionBps, maxBase, maxQuote)
	}

	lp, err := ammmath.SubsequentLPIssuance(intent.BaseAmount, intent.QuoteAmount, pool.BaseReserve, pool.QuoteReserve, pool.LPSupply)
	if err != nil {
		return types.ProvisionOutcome{}, err
	}
	if !lp.IsPositive() {
		return types.ProvisionOutcome{}, errorsmod.Wrapf(types.ErrInvalidAmount, "deposit %s/%s mints no lp tokens", intent.BaseAmount, intent.QuoteAmount)
	}
	if lp.LT(intent.MinLPOut) {
		return types.ProvisionOutcome{}, errorsmod.Wrapf(types.ErrSlippageExceeded, "lp minted %s below minimum %s", lp, intent.MinLPOut)
	}

	successor := pool
	if successor.BaseReserve, err = checkedAdd("base reserve", pool.BaseReserve, intent.BaseAmount); err != nil {
		return types.ProvisionOutcome{}, err
	}
	if successor.QuoteReserve, err = checkedAdd("quote reserve", pool.QuoteReserve, intent.QuoteAmount); err != nil {
		return types.ProvisionOutcome{}, err
	}
	if successor.LPSupply, err = checkedAdd("lp supply", pool.LPSupply, lp); err != nil {
		return types.ProvisionOutcome{}, err
	}
	if err := ValidateSuccessor(types.OpProvideLiquidity, pool, successor); err != nil {
		return types.ProvisionOutcome{}, err
	}

	return types.ProvisionOutcome{
		Successor:    successor,
		BaseIn:       intent.BaseAmount,
		QuoteIn:      intent.QuoteAmount,
		LPMinted:     lp,
		DeviationBps: deviation,
	}, nil
}
