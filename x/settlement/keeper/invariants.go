package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// RegisterInvariants registers all settlement invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "pool-state", PoolStateInvariant(k))
	ir.RegisterRoute(types.ModuleName, "snapshot-history", SnapshotHistoryInvariant(k))
	ir.RegisterRoute(types.ModuleName, "lp-supply", LPSupplyInvariant(k))
}

// AllInvariants runs all invariants of the settlement module
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		res, stop := PoolStateInvariant(k)(ctx)
		if stop {
			return res, stop
		}

		res, stop = SnapshotHistoryInvariant(k)(ctx)
		if stop {
			return res, stop
		}

		return LPSupplyInvariant(k)(ctx)
	}
}

// PoolStateInvariant checks that every live pool satisfies the structural
// invariants: 128-bit quantities, two-sided reserves, supply iff reserves.
func PoolStateInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		params := k.GetParams(ctx)
		err := k.IteratePools(ctx, func(snap types.PoolSnapshot) bool {
			if err := snap.State.ValidateReserves(); err != nil {
				count++
				msg += fmt.Sprintf("pool %s v%d: %v\n", snap.State.PoolIdentity, snap.Version, err)
			}
			if snap.State.FeeBps == 0 || snap.State.FeeBps > types.FeeBpsCeiling {
				count++
				msg += fmt.Sprintf("pool %s v%d: fee %d bps out of range\n", snap.State.PoolIdentity, snap.Version, snap.State.FeeBps)
			}
			if snap.State.QuoteAssetID == params.BaseAssetID {
				count++
				msg += fmt.Sprintf("pool %s v%d: quote asset is the base asset\n", snap.State.PoolIdentity, snap.Version)
			}
			return false
		})
		if err != nil {
			count++
			msg += fmt.Sprintf("iterate pools: %v\n", err)
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "pool-state",
			fmt.Sprintf("found %d invalid pool states\n%s", count, msg),
		), broken
	}
}

// SnapshotHistoryInvariant checks the replace-by-spend arena: versions are
// contiguous up to the head, exactly the head is unspent, every earlier version names
// the marker that spent it, and identity never changes along the history.
func SnapshotHistoryInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		pools, err := k.GetAllPools(ctx)
		if err != nil {
			count++
			msg += fmt.Sprintf("iterate pools: %v\n", err)
		}
		for _, live := range pools {
			id := live.State.PoolIdentity
			history, err := k.GetPoolHistory(ctx, id)
			if err != nil {
				count++
				msg += fmt.Sprintf("pool %s: %v\n", id, err)
				continue
			}
			if len(history) == 0 {
				count++
				msg += fmt.Sprintf("pool %s: no snapshots\n", id)
				continue
			}
			// pools imported at genesis start their history at the imported version
			first := history[0].Version
			if first == 0 || first+uint64(len(history))-1 != live.Version {
				count++
				msg += fmt.Sprintf("pool %s: %d snapshots from version %d for head version %d\n", id, len(history), first, live.Version)
			}
			for i, snap := range history {
				isHead := snap.Version == live.Version
				switch {
				case snap.Version != first+uint64(i):
					count++
					msg += fmt.Sprintf("pool %s: snapshot %d has version %d\n", id, i, snap.Version)
				case isHead && snap.Spent:
					count++
					msg += fmt.Sprintf("pool %s: head version %d is spent\n", id, snap.Version)
				case !isHead && (!snap.Spent || len(snap.SpentBy) == 0):
					count++
					msg += fmt.Sprintf("pool %s: retired version %d not marked spent\n", id, snap.Version)
				case !snap.State.SameIdentity(live.State):
					count++
					msg += fmt.Sprintf("pool %s: version %d has a different identity\n", id, snap.Version)
				}
			}
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "snapshot-history",
			fmt.Sprintf("found %d snapshot history inconsistencies\n%s", count, msg),
		), broken
	}
}

// LPSupplyInvariant checks that the LP supply recorded by each pool equals the
// outstanding supply tracked by the supply policy.
func LPSupplyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		err := k.IteratePools(ctx, func(snap types.PoolSnapshot) bool {
			outstanding, found := k.supplyKeeper.OutstandingSupply(ctx, snap.State.LPAssetID)
			if !found {
				count++
				msg += fmt.Sprintf("pool %s: lp denom %s is not bound\n", snap.State.PoolIdentity, snap.State.LPAssetID)
				return false
			}
			if !outstanding.Equal(snap.State.LPSupply) {
				count++
				msg += fmt.Sprintf("pool %s: lp supply %s, outstanding %s %s\n",
					snap.State.PoolIdentity, snap.State.LPSupply, outstanding, snap.State.LPAssetID)
			}
			return false
		})
		if err != nil {
			count++
			msg += fmt.Sprintf("iterate pools: %v\n", err)
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "lp-supply",
			fmt.Sprintf("found %d lp supply mismatches\n%s", count, msg),
		), broken
	}
}
