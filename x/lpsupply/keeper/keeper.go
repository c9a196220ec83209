package keeper

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/lpsupply/types"
	"github.com/paw-chain/settlement/x/shared/nonce"
	settlementtypes "github.com/paw-chain/settlement/x/settlement/types"
)

var _ settlementtypes.SupplyKeeper = Keeper{}

// Keeper is the LP token supply-control policy. It owns the supply ledger and
// the freshness markers of settled transitions.
type Keeper struct {
	storeKey storetypes.StoreKey
	markers  *nonce.Manager
}

// NewKeeper creates a new lpsupply Keeper instance. Markers are persisted under
// markerKey.
func NewKeeper(key, markerKey storetypes.StoreKey) Keeper {
	return Keeper{
		storeKey: key,
		markers: nonce.NewManager(markerKey, markerErrors{},
			settlementtypes.MinMarkerLength, settlementtypes.MaxMarkerLength),
	}
}

// Logger returns a module-specific logger
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

func (k Keeper) getStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// markerErrors maps marker failures onto the issuance taxonomy: a replayed or
// malformed marker means the issuance is not authorized.
type markerErrors struct{}

func (markerErrors) ReplayedMarkerError(msg string) error {
	return errorsmod.Wrap(settlementtypes.ErrUnauthorizedIssuance, msg)
}

func (markerErrors) InvalidMarkerError(msg string) error {
	return errorsmod.Wrap(settlementtypes.ErrUnauthorizedIssuance, msg)
}

// PruneMarkers drops markers older than ttlSeconds, at most batch per call.
func (k Keeper) PruneMarkers(ctx sdk.Context, ttlSeconds int64, batch int) (int, error) {
	pruned, err := k.markers.PruneExpired(ctx, ttlSeconds, batch)
	if err != nil {
		return pruned, err
	}
	if pruned > 0 {
		k.Logger(ctx).Debug("pruned freshness markers", "count", pruned, "ttl_seconds", ttlSeconds)
	}
	return pruned, nil
}

// IsMarkerConsumed reports whether a transition marker was already settled.
func (k Keeper) IsMarkerConsumed(ctx sdk.Context, marker []byte) bool {
	return k.markers.IsConsumed(ctx, marker)
}
