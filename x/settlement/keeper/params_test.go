package keeper_test

import (
	"cosmossdk.io/math"

	keepertest "github.com/paw-chain/settlement/testutil/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

func (suite *KeeperTestSuite) TestGetParamsDefaults() {
	suite.requireParamsEqual(types.DefaultParams(), suite.f.Keeper.GetParams(suite.f.Ctx))
}

func (suite *KeeperTestSuite) TestUpdateParams() {
	f := suite.f
	params := types.DefaultParams()
	params.MaxSwapBps = 1_000

	err := f.Keeper.UpdateParams(f.Ctx, "paw1notgov", params)
	suite.Require().ErrorIs(err, types.ErrUnauthorized)
	suite.requireParamsEqual(types.DefaultParams(), f.Keeper.GetParams(f.Ctx))

	bad := params
	bad.MarkerTTLSeconds = 0
	err = f.Keeper.UpdateParams(f.Ctx, keepertest.TestAuthority, bad)
	suite.Require().ErrorIs(err, types.ErrInvalidParams)

	suite.Require().NoError(f.Keeper.UpdateParams(f.Ctx, keepertest.TestAuthority, params))
	suite.Require().Equal(uint32(1_000), f.Keeper.GetParams(f.Ctx).MaxSwapBps)
	suite.Require().True(suite.hasEvent(types.EventTypeParamsUpdated))
}

func (suite *KeeperTestSuite) TestUpdatedParamsApplyToNextTransition() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)

	params := types.DefaultParams()
	params.MaxSwapBps = 100 // 1% of the input reserve
	suite.Require().NoError(f.Keeper.UpdateParams(f.Ctx, keepertest.TestAuthority, params))

	_, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.BaseToQuote, 500_001, 0)))
	suite.Require().ErrorIs(err, types.ErrSizeLimitExceeded)

	_, err = f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.BaseToQuote, 500_000, 0)))
	suite.Require().NoError(err)
}

func (suite *KeeperTestSuite) TestLowerFeeCapKeepsExistingPoolsLive() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)

	params := types.DefaultParams()
	params.MaxFeeBps = 10 // below the pool's 30 bps
	suite.Require().NoError(f.Keeper.UpdateParams(f.Ctx, keepertest.TestAuthority, params))

	receipt, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.BaseToQuote, 1_000_000, 0)))
	suite.Require().NoError(err)
	suite.Require().Equal(uint16(30), receipt.Successor.FeeBps)

	// new pools must respect the cap
	_, err = f.Keeper.Settle(f.Ctx, &types.Transition{
		Marker:    f.NextMarker(),
		Initiator: keepertest.TestInitiator,
		Intent: types.CreatePoolIntent{
			PoolIdentity: "pool/upaw-uatom", QuoteAssetID: "uatom", LPAssetID: "lp/upaw-uatom", FeeBps: 30,
			SeedBase: math.ZeroInt(), SeedQuote: math.ZeroInt(), MinLPOut: math.ZeroInt(),
		},
	})
	suite.Require().ErrorIs(err, types.ErrInvalidPoolState)
}
