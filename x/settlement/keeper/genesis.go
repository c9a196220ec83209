package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// InitGenesis initializes the settlement module's state from a provided genesis state.
func (k Keeper) InitGenesis(ctx sdk.Context, genState types.GenesisState) error {
	if err := genState.Validate(); err != nil {
		return fmt.Errorf("invalid settlement genesis: %w", err)
	}
	if err := k.SetParams(ctx, genState.Params); err != nil {
		return fmt.Errorf("failed to set params: %w", err)
	}
	for _, snap := range genState.Pools {
		if err := k.importSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("failed to import pool %s: %w", snap.State.PoolIdentity, err)
		}
	}
	return nil
}

// ExportGenesis returns the live state of every pool. Spent history is
// dropped; imported pools keep their head version.
func (k Keeper) ExportGenesis(ctx sdk.Context) (*types.GenesisState, error) {
	pools, err := k.GetAllPools(ctx)
	if err != nil {
		return nil, err
	}
	if pools == nil {
		pools = []types.PoolSnapshot{}
	}
	return &types.GenesisState{
		Params: k.GetParams(ctx),
		Pools:  pools,
	}, nil
}
