package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// GetPool returns the live state of a pool with its version.
func (k Keeper) GetPool(ctx sdk.Context, poolIdentity string) (types.PoolSnapshot, error) {
	return k.GetLivePool(ctx, poolIdentity)
}

// SimulateSwap evaluates a swap against the live pool at the current block
// time without writing anything.
func (k Keeper) SimulateSwap(ctx sdk.Context, poolIdentity string, intent types.SwapIntent) (types.SwapOutcome, error) {
	snap, err := k.GetLivePool(ctx, poolIdentity)
	if err != nil {
		return types.SwapOutcome{}, err
	}
	return ComputeSwap(k.GetParams(ctx), snap.State, intent, ctx.BlockTime())
}

// SimulateProvision evaluates a provision against the live pool without writing.
func (k Keeper) SimulateProvision(ctx sdk.Context, poolIdentity string, intent types.ProvideLiquidityIntent) (types.ProvisionOutcome, error) {
	snap, err := k.GetLivePool(ctx, poolIdentity)
	if err != nil {
		return types.ProvisionOutcome{}, err
	}
	return ComputeProvision(k.GetParams(ctx), snap.State, intent)
}

// SimulateWithdrawal evaluates a withdrawal against the live pool without writing.
func (k Keeper) SimulateWithdrawal(ctx sdk.Context, poolIdentity string, intent types.WithdrawLiquidityIntent) (types.WithdrawalOutcome, error) {
	snap, err := k.GetLivePool(ctx, poolIdentity)
	if err != nil {
		return types.WithdrawalOutcome{}, err
	}
	return ComputeWithdrawal(k.GetParams(ctx), snap.State, intent)
}
