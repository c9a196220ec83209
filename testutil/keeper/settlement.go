package keeper

import (
	"fmt"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	lpsupplykeeper "github.com/paw-chain/settlement/x/lpsupply/keeper"
	lpsupplytypes "github.com/paw-chain/settlement/x/lpsupply/types"
	"github.com/paw-chain/settlement/x/settlement/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

const (
	// TestAuthority is the governance authority of test keepers
	TestAuthority = "paw10d07y265gmmuvt4z0w9aw880jnsr700j8dkmf4"
	// TestInitiator is the default initiator of test transitions
	TestInitiator = "paw1lp0provider0000000000000000000000000000"
)

// TestBlockTime is the block time of test contexts
var TestBlockTime = time.Unix(1_700_000_000, 0).UTC()

// SettlementFixture bundles the settlement and LP supply keepers over one store.
type SettlementFixture struct {
	Keeper       *keeper.Keeper
	SupplyKeeper lpsupplykeeper.Keeper
	Ctx          sdk.Context

	markerSeq int
}

// SettlementKeeper creates test keepers for the settlement and lpsupply modules
// on an in-memory multistore initialised with default genesis.
func SettlementKeeper(t testing.TB) *SettlementFixture {
	// NewKVStoreKeys panics on colliding names, as the engine does
	keys := storetypes.NewKVStoreKeys(types.StoreKey, types.MarkerStoreKey, lpsupplytypes.StoreKey)
	storeKey := keys[types.StoreKey]
	markerKey := keys[types.MarkerStoreKey]
	supplyKey := keys[lpsupplytypes.StoreKey]

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(markerKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(supplyKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	supplyKeeper := lpsupplykeeper.NewKeeper(supplyKey, markerKey)
	k := keeper.NewKeeper(storeKey, supplyKeeper, TestAuthority)

	ctx := sdk.NewContext(stateStore, cmtproto.Header{Time: TestBlockTime}, false, log.NewNopLogger())

	require.NoError(t, k.InitGenesis(ctx, *types.DefaultGenesis()))
	require.NoError(t, supplyKeeper.InitGenesis(ctx, *lpsupplytypes.DefaultGenesis()))

	return &SettlementFixture{Keeper: k, SupplyKeeper: supplyKeeper, Ctx: ctx}
}

// NextMarker returns a fresh transition marker.
func (f *SettlementFixture) NextMarker() []byte {
	f.markerSeq++
	return []byte(fmt.Sprintf("test-marker-%08d", f.markerSeq))
}

// LPDirective is the issuance directive for an LP supply change of a pool.
func LPDirective(lpDenom string, kind types.IssuanceKind, amount math.Int) types.IssuanceDirective {
	return types.IssuanceDirective{Policy: lpsupplytypes.ModuleName, Denom: lpDenom, Kind: kind, Amount: amount}
}

// CreatePool creates an empty pool and returns its first snapshot.
func (f *SettlementFixture) CreatePool(t testing.TB, poolIdentity, quote, lpDenom string, feeBps uint16) types.PoolSnapshot {
	_, err := f.Keeper.Settle(f.Ctx, &types.Transition{
		Marker:    f.NextMarker(),
		Initiator: TestInitiator,
		Intent: types.CreatePoolIntent{
			PoolIdentity: poolIdentity,
			QuoteAssetID: quote,
			LPAssetID:    lpDenom,
			FeeBps:       feeBps,
			SeedBase:     math.ZeroInt(),
			SeedQuote:    math.ZeroInt(),
			MinLPOut:     math.ZeroInt(),
		},
	})
	require.NoError(t, err)
	snap, err := f.Keeper.GetLivePool(f.Ctx, poolIdentity)
	require.NoError(t, err)
	return snap
}

// CreateFundedPool creates a pool seeded with base and quote by TestInitiator.
func (f *SettlementFixture) CreateFundedPool(t testing.TB, poolIdentity, quote, lpDenom string, feeBps uint16, base, quoteAmount math.Int) types.PoolSnapshot {
	lp := initialLP(base, quoteAmount)
	receipt, err := f.Keeper.Settle(f.Ctx, &types.Transition{
		Marker:    f.NextMarker(),
		Initiator: TestInitiator,
		Intent: types.CreatePoolIntent{
			PoolIdentity: poolIdentity,
			QuoteAssetID: quote,
			LPAssetID:    lpDenom,
			FeeBps:       feeBps,
			SeedBase:     base,
			SeedQuote:    quoteAmount,
			MinLPOut:     math.ZeroInt(),
		},
		Issuance: []types.IssuanceDirective{LPDirective(lpDenom, types.IssuanceMint, lp)},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), receipt.Version)
	snap, err := f.Keeper.GetLivePool(f.Ctx, poolIdentity)
	require.NoError(t, err)
	return snap
}

func initialLP(base, quote math.Int) math.Int {
	product := base.BigInt()
	product.Mul(product, quote.BigInt())
	return math.NewIntFromBigInt(product.Sqrt(product))
}

// ImportPool loads a live pool at version 1 through genesis, with its whole LP
// supply held by holder.
func (f *SettlementFixture) ImportPool(t testing.TB, state types.PoolState, holder string) types.PoolSnapshot {
	gs := types.GenesisState{
		Params: f.Keeper.GetParams(f.Ctx),
		Pools:  []types.PoolSnapshot{{State: state, Version: 1, CreatedAt: f.Ctx.BlockTime()}},
	}
	require.NoError(t, f.Keeper.InitGenesis(f.Ctx, gs))

	supply := lpsupplytypes.GenesisState{
		Supplies: []lpsupplytypes.Supply{{Denom: state.LPAssetID, PoolIdentity: state.PoolIdentity, Outstanding: state.LPSupply}},
	}
	if state.LPSupply.IsPositive() {
		supply.Balances = []lpsupplytypes.Balance{{Denom: state.LPAssetID, Holder: holder, Amount: state.LPSupply}}
	}
	require.NoError(t, f.SupplyKeeper.InitGenesis(f.Ctx, supply))

	snap, err := f.Keeper.GetLivePool(f.Ctx, state.PoolIdentity)
	require.NoError(t, err)
	return snap
}
