package keeper_test

import (
	"cosmossdk.io/math"

	keepertest "github.com/paw-chain/settlement/testutil/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

func (suite *KeeperTestSuite) TestExportGenesisEmpty() {
	gs, err := suite.f.Keeper.ExportGenesis(suite.f.Ctx)
	suite.Require().NoError(err)
	suite.requireParamsEqual(types.DefaultParams(), gs.Params)
	suite.Require().Empty(gs.Pools)
	suite.Require().NoError(gs.Validate())
}

func (suite *KeeperTestSuite) TestGenesisRoundTrip() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)
	receipt, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.QuoteToBase, 2_000_000, 0)))
	suite.Require().NoError(err)
	f.CreatePool(suite.T(), "pool/upaw-uatom", "uatom", "lp/upaw-uatom", 100)

	exported, err := f.Keeper.ExportGenesis(f.Ctx)
	suite.Require().NoError(err)
	suite.Require().Len(exported.Pools, 2)
	suite.Require().NoError(exported.Validate())

	fresh := keepertest.SettlementKeeper(suite.T())
	suite.Require().NoError(fresh.Keeper.InitGenesis(fresh.Ctx, *exported))

	live, err := fresh.Keeper.GetLivePool(fresh.Ctx, poolID)
	suite.Require().NoError(err)
	suite.Require().Equal(receipt.Version, live.Version)
	suite.Require().True(live.State.QuoteReserve.Equal(receipt.Successor.QuoteReserve))
	suite.Require().True(live.State.BaseReserve.Equal(receipt.Successor.BaseReserve))

	// history restarts at the imported head
	history, err := fresh.Keeper.GetPoolHistory(fresh.Ctx, poolID)
	suite.Require().NoError(err)
	suite.Require().Len(history, 1)
	suite.Require().Equal(uint64(2), history[0].Version)

	reexported, err := fresh.Keeper.ExportGenesis(fresh.Ctx)
	suite.Require().NoError(err)
	suite.Require().Equal(len(exported.Pools), len(reexported.Pools))
}

func (suite *KeeperTestSuite) TestInitGenesisRejectsInvalidState() {
	f := suite.f
	gs := types.DefaultGenesis()
	gs.Pools = []types.PoolSnapshot{{
		State: types.PoolState{
			PoolIdentity: poolID, QuoteAssetID: quoteID, LPAssetID: lpID, FeeBps: 30,
			BaseReserve: math.NewInt(10), QuoteReserve: math.ZeroInt(), LPSupply: math.NewInt(10),
		},
		Version: 1,
	}}
	suite.Require().Error(f.Keeper.InitGenesis(f.Ctx, *gs))
	suite.Require().False(f.Keeper.HasPool(f.Ctx, poolID))

	suite.importPool(50_000_000, 80_000_000, 100_000_000)
	gs.Pools[0].State.QuoteReserve = math.NewInt(10)
	suite.Require().ErrorIs(f.Keeper.InitGenesis(f.Ctx, *gs), types.ErrPoolAlreadyExists)
}
