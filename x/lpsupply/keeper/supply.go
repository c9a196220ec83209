package keeper

import (
	"encoding/json"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/lpsupply/types"
	settlementtypes "github.com/paw-chain/settlement/x/settlement/types"
)

// GetSupply returns the supply record of an LP denom.
func (k Keeper) GetSupply(ctx sdk.Context, denom string) (types.Supply, bool) {
	bz := k.getStore(ctx).Get(types.GetSupplyKey(denom))
	if bz == nil {
		return types.Supply{}, false
	}
	var supply types.Supply
	if err := json.Unmarshal(bz, &supply); err != nil {
		panic(fmt.Sprintf("corrupt supply record for %s: %v", denom, err))
	}
	return supply, true
}

func (k Keeper) setSupply(ctx sdk.Context, supply types.Supply) error {
	if err := supply.Validate(); err != nil {
		return err
	}
	bz, err := json.Marshal(supply)
	if err != nil {
		return err
	}
	k.getStore(ctx).Set(types.GetSupplyKey(supply.Denom), bz)
	return nil
}

// OutstandingSupply returns the outstanding amount of an LP denom and whether
// the denom is bound to a pool.
func (k Keeper) OutstandingSupply(ctx sdk.Context, denom string) (math.Int, bool) {
	supply, found := k.GetSupply(ctx, denom)
	if !found {
		return math.ZeroInt(), false
	}
	return supply.Outstanding, true
}

// GetBalance returns the LP balance of holder.
func (k Keeper) GetBalance(ctx sdk.Context, denom, holder string) math.Int {
	bz := k.getStore(ctx).Get(types.GetBalanceKey(denom, holder))
	if bz == nil {
		return math.ZeroInt()
	}
	var amount math.Int
	if err := amount.Unmarshal(bz); err != nil {
		panic(fmt.Sprintf("corrupt balance of %s for %s: %v", denom, holder, err))
	}
	return amount
}

func (k Keeper) setBalance(ctx sdk.Context, denom, holder string, amount math.Int) error {
	store := k.getStore(ctx)
	key := types.GetBalanceKey(denom, holder)
	if amount.IsZero() {
		store.Delete(key)
		return nil
	}
	bz, err := amount.Marshal()
	if err != nil {
		return err
	}
	store.Set(key, bz)
	return nil
}

// Transfer moves LP tokens between holders. It never changes the outstanding supply.
func (k Keeper) Transfer(ctx sdk.Context, denom, from, to string, amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrap(settlementtypes.ErrInvalidAmount, "transfer amount must be positive")
	}
	if to == "" {
		return errorsmod.Wrap(settlementtypes.ErrInvalidAmount, "transfer recipient is required")
	}
	if _, found := k.GetSupply(ctx, denom); !found {
		return errorsmod.Wrapf(settlementtypes.ErrPoolNotFound, "lp denom %s is not bound", denom)
	}
	balance := k.GetBalance(ctx, denom, from)
	if balance.LT(amount) {
		return errorsmod.Wrapf(settlementtypes.ErrInvalidAmount, "%s holds %s %s, cannot send %s", from, balance, denom, amount)
	}
	if err := k.setBalance(ctx, denom, from, balance.Sub(amount)); err != nil {
		return err
	}
	return k.setBalance(ctx, denom, to, k.GetBalance(ctx, denom, to).Add(amount))
}

// IterateSupplies calls cb for every bound LP denom until cb returns true.
func (k Keeper) IterateSupplies(ctx sdk.Context, cb func(supply types.Supply) (stop bool)) {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.SupplyKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var supply types.Supply
		if err := json.Unmarshal(iterator.Value(), &supply); err != nil {
			panic(fmt.Sprintf("corrupt supply record %X: %v", iterator.Key(), err))
		}
		if cb(supply) {
			return
		}
	}
}

// IterateBalances calls cb for every holder of denom until cb returns true.
func (k Keeper) IterateBalances(ctx sdk.Context, denom string, cb func(balance types.Balance) (stop bool)) {
	prefix := types.GetBalancePrefix(denom)
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), prefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var amount math.Int
		if err := amount.Unmarshal(iterator.Value()); err != nil {
			panic(fmt.Sprintf("corrupt balance %X: %v", iterator.Key(), err))
		}
		holder := string(iterator.Key()[len(prefix):])
		if cb(types.Balance{Denom: denom, Holder: holder, Amount: amount}) {
			return
		}
	}
}
