package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/lpsupply/types"
)

// InitGenesis loads the supply ledger.
func (k Keeper) InitGenesis(ctx sdk.Context, genState types.GenesisState) error {
	if err := genState.Validate(); err != nil {
		return fmt.Errorf("invalid lpsupply genesis: %w", err)
	}
	for _, supply := range genState.Supplies {
		if err := k.setSupply(ctx, supply); err != nil {
			return err
		}
	}
	for _, balance := range genState.Balances {
		if err := k.setBalance(ctx, balance.Denom, balance.Holder, balance.Amount); err != nil {
			return err
		}
	}
	return nil
}

// ExportGenesis returns the supply ledger. Freshness markers are not exported.
func (k Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := types.DefaultGenesis()
	k.IterateSupplies(ctx, func(supply types.Supply) bool {
		gs.Supplies = append(gs.Supplies, supply)
		return false
	})
	for _, supply := range gs.Supplies {
		k.IterateBalances(ctx, supply.Denom, func(balance types.Balance) bool {
			gs.Balances = append(gs.Balances, balance)
			return false
		})
	}
	return gs
}
