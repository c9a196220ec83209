package keeper

import (
	"fmt"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// Keeper of the settlement store
type Keeper struct {
	storeKey     storetypes.StoreKey
	supplyKeeper types.SupplyKeeper
	authority    string
	metrics      *SettlementMetrics
}

// NewKeeper creates a new settlement Keeper instance. authority is the
// governance address allowed to update params and approve emergency withdrawals.
func NewKeeper(
	key storetypes.StoreKey,
	supplyKeeper types.SupplyKeeper,
	authority string,
) *Keeper {
	return &Keeper{
		storeKey:     key,
		supplyKeeper: supplyKeeper,
		authority:    authority,
		metrics:      NewSettlementMetrics(),
	}
}

// getStore returns the KVStore for the settlement module
func (k Keeper) getStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// Logger returns a module-specific logger
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// GetAuthority returns the governance authority of the module.
func (k Keeper) GetAuthority() string {
	return k.authority
}
