package keeper

import (
	"encoding/binary"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// The pool store is an arena of immutable snapshots. A pool is never updated
// in place: settling a transition writes version n+1 and marks version n spent,
// and the head index always names the single live version.

func (k Keeper) getHead(ctx sdk.Context, poolIdentity string) (uint64, bool) {
	bz := k.getStore(ctx).Get(types.GetPoolHeadKey(poolIdentity))
	if len(bz) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(bz), true
}

func (k Keeper) setHead(ctx sdk.Context, poolIdentity string, version uint64) {
	k.getStore(ctx).Set(types.GetPoolHeadKey(poolIdentity), sdk.Uint64ToBigEndian(version))
}

func (k Keeper) setSnapshot(ctx sdk.Context, snap types.PoolSnapshot) error {
	bz, err := types.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	k.getStore(ctx).Set(types.GetPoolSnapshotKey(snap.State.PoolIdentity, snap.Version), bz)
	return nil
}

// GetSnapshot returns one snapshot of a pool, live or spent.
func (k Keeper) GetSnapshot(ctx sdk.Context, poolIdentity string, version uint64) (types.PoolSnapshot, error) {
	bz := k.getStore(ctx).Get(types.GetPoolSnapshotKey(poolIdentity, version))
	if bz == nil {
		return types.PoolSnapshot{}, errorsmod.Wrapf(types.ErrPoolNotFound, "pool %s version %d", poolIdentity, version)
	}
	return types.DecodeSnapshot(bz)
}

// GetLivePool returns the head snapshot of a pool.
func (k Keeper) GetLivePool(ctx sdk.Context, poolIdentity string) (types.PoolSnapshot, error) {
	version, found := k.getHead(ctx, poolIdentity)
	if !found {
		return types.PoolSnapshot{}, errorsmod.Wrapf(types.ErrPoolNotFound, "pool %s", poolIdentity)
	}
	return k.GetSnapshot(ctx, poolIdentity, version)
}

// HasPool reports whether a pool with the given identity exists.
func (k Keeper) HasPool(ctx sdk.Context, poolIdentity string) bool {
	_, found := k.getHead(ctx, poolIdentity)
	return found
}

// GetPoolHistory returns every snapshot of a pool in version order.
func (k Keeper) GetPoolHistory(ctx sdk.Context, poolIdentity string) ([]types.PoolSnapshot, error) {
	if !k.HasPool(ctx, poolIdentity) {
		return nil, errorsmod.Wrapf(types.ErrPoolNotFound, "pool %s", poolIdentity)
	}

	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.GetPoolSnapshotPrefix(poolIdentity))
	defer iterator.Close()

	var history []types.PoolSnapshot
	for ; iterator.Valid(); iterator.Next() {
		snap, err := types.DecodeSnapshot(iterator.Value())
		if err != nil {
			return nil, err
		}
		history = append(history, snap)
	}
	return history, nil
}

// IteratePools calls cb with the live snapshot of every pool until cb returns true.
func (k Keeper) IteratePools(ctx sdk.Context, cb func(snap types.PoolSnapshot) (stop bool)) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.PoolHeadKey)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		key := iterator.Key()[len(types.PoolHeadKey):]
		if len(key) == 0 || int(key[0]) != len(key)-1 {
			return errorsmod.Wrapf(types.ErrInvalidPoolState, "corrupt pool head key %X", iterator.Key())
		}
		poolIdentity := string(key[1:])
		snap, err := k.GetSnapshot(ctx, poolIdentity, binary.BigEndian.Uint64(iterator.Value()))
		if err != nil {
			return err
		}
		if cb(snap) {
			return nil
		}
	}
	return nil
}

// GetAllPools returns the live snapshot of every pool.
func (k Keeper) GetAllPools(ctx sdk.Context) ([]types.PoolSnapshot, error) {
	var pools []types.PoolSnapshot
	err := k.IteratePools(ctx, func(snap types.PoolSnapshot) bool {
		pools = append(pools, snap)
		return false
	})
	return pools, err
}

// loadConsumable resolves the entry a transition consumes. Only the head
// version can be consumed; anything older has been spent already.
func (k Keeper) loadConsumable(ctx sdk.Context, ref types.EntryRef) (types.PoolSnapshot, error) {
	head, found := k.getHead(ctx, ref.PoolIdentity)
	if !found {
		return types.PoolSnapshot{}, errorsmod.Wrapf(types.ErrPoolNotFound, "pool %s", ref.PoolIdentity)
	}
	if ref.Version > head {
		return types.PoolSnapshot{}, errorsmod.Wrapf(types.ErrPoolNotFound, "pool %s has no version %d (head %d)", ref.PoolIdentity, ref.Version, head)
	}
	snap, err := k.GetSnapshot(ctx, ref.PoolIdentity, ref.Version)
	if err != nil {
		return types.PoolSnapshot{}, err
	}
	if snap.Spent || ref.Version != head {
		return types.PoolSnapshot{}, errorsmod.Wrapf(types.ErrEntrySpent, "pool %s version %d already spent (head %d)", ref.PoolIdentity, ref.Version, head)
	}
	return snap, nil
}

// insertPool writes the first snapshot of a new pool.
func (k Keeper) insertPool(ctx sdk.Context, state types.PoolState) (types.PoolSnapshot, error) {
	if k.HasPool(ctx, state.PoolIdentity) {
		return types.PoolSnapshot{}, errorsmod.Wrapf(types.ErrPoolAlreadyExists, "pool %s", state.PoolIdentity)
	}
	snap := types.PoolSnapshot{
		State:     state,
		Version:   1,
		CreatedAt: ctx.BlockTime(),
	}
	if err := k.setSnapshot(ctx, snap); err != nil {
		return types.PoolSnapshot{}, err
	}
	k.setHead(ctx, state.PoolIdentity, snap.Version)
	return snap, nil
}

// replacePool retires consumed and inserts successor as the next version.
func (k Keeper) replacePool(ctx sdk.Context, consumed types.PoolSnapshot, successor types.PoolState, marker []byte) (types.PoolSnapshot, error) {
	if _, err := k.loadConsumable(ctx, consumed.Ref()); err != nil {
		return types.PoolSnapshot{}, err
	}
	if consumed.State.PoolIdentity != successor.PoolIdentity {
		return types.PoolSnapshot{}, errorsmod.Wrapf(types.ErrIdentityMismatch, "successor of %s names pool %s", consumed.State.PoolIdentity, successor.PoolIdentity)
	}

	spent := consumed
	spent.Spent = true
	spent.SpentBy = append([]byte(nil), marker...)
	if err := k.setSnapshot(ctx, spent); err != nil {
		return types.PoolSnapshot{}, err
	}

	next := types.PoolSnapshot{
		State:     successor,
		Version:   consumed.Version + 1,
		CreatedAt: ctx.BlockTime(),
	}
	if err := k.setSnapshot(ctx, next); err != nil {
		return types.PoolSnapshot{}, err
	}
	k.setHead(ctx, successor.PoolIdentity, next.Version)
	return next, nil
}

// importSnapshot writes a live snapshot at its recorded version (genesis only).
func (k Keeper) importSnapshot(ctx sdk.Context, snap types.PoolSnapshot) error {
	if k.HasPool(ctx, snap.State.PoolIdentity) {
		return errorsmod.Wrapf(types.ErrPoolAlreadyExists, "pool %s", snap.State.PoolIdentity)
	}
	if snap.Spent {
		return fmt.Errorf("cannot import spent snapshot of pool %s", snap.State.PoolIdentity)
	}
	if err := k.setSnapshot(ctx, snap); err != nil {
		return err
	}
	k.setHead(ctx, snap.State.PoolIdentity, snap.Version)
	return nil
}
