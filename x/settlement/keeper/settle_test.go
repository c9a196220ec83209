package keeper_test

import (
	"cosmossdk.io/math"

	keepertest "github.com/paw-chain/settlement/testutil/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

func (suite *KeeperTestSuite) TestSwapSlippageOnReferencePool() {
	f := suite.f
	pool := f.CreateFundedPool(suite.T(), poolID, quoteID, lpID, 30,
		math.NewInt(100_000_000_000), math.NewInt(2_301_952_000_000))

	for _, minOut := range []int64{22_950_233, 22_950_462} {
		_, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.BaseToQuote, 1_000_000, minOut)))
		suite.Require().ErrorIs(err, types.ErrSlippageExceeded)
		suite.requireUnchanged(pool)
	}

	receipt, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.BaseToQuote, 1_000_000, 22_950_232)))
	suite.Require().NoError(err)
	suite.Require().Equal(math.NewInt(22_950_232), receipt.QuoteOut)
	suite.Require().Equal(math.NewInt(1_000_000), receipt.BaseIn)
	suite.Require().True(receipt.LPMinted.IsZero())
	suite.Require().Equal(uint64(2), receipt.Version)
	suite.Require().Equal(math.NewInt(100_001_000_000), receipt.Successor.BaseReserve)
	suite.Require().Equal(math.NewInt(2_301_952_000_000-22_950_232), receipt.Successor.QuoteReserve)
	suite.Require().True(receipt.Successor.LPSupply.Equal(pool.State.LPSupply))

	suite.Require().True(suite.hasEvent(types.EventTypeSwap))
	suite.Require().True(suite.hasEvent(types.EventTypeEntrySpent))
	suite.requireInvariants()
}

func (suite *KeeperTestSuite) TestInitialProvisionMintsFloorSqrt() {
	f := suite.f
	pool := f.CreatePool(suite.T(), poolID, quoteID, lpID, 30)
	suite.Require().True(pool.State.IsEmpty())

	intent := provideIntent(10_000_000, 20_000_000)
	intent.IsInitial = true
	receipt, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, intent,
		keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(14_142_135))))
	suite.Require().NoError(err)
	suite.Require().Equal(math.NewInt(14_142_135), receipt.LPMinted)
	suite.Require().Equal(math.NewInt(14_142_135), receipt.Successor.LPSupply)

	outstanding, found := f.SupplyKeeper.OutstandingSupply(f.Ctx, lpID)
	suite.Require().True(found)
	suite.Require().Equal(math.NewInt(14_142_135), outstanding)
	suite.Require().Equal(math.NewInt(14_142_135), f.SupplyKeeper.GetBalance(f.Ctx, lpID, keepertest.TestInitiator))
	suite.requireInvariants()

	// a second initial provision is not allowed once the pool is funded
	_, err = f.Keeper.Settle(f.Ctx, suite.transition(receipt.Version, intent,
		keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(14_142_135))))
	suite.Require().ErrorIs(err, types.ErrInvalidPoolState)
}

func (suite *KeeperTestSuite) TestProportionalWithdrawal() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)

	receipt, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, withdrawIntent(10_000_000, false),
		keepertest.LPDirective(lpID, types.IssuanceBurn, math.NewInt(10_000_000))))
	suite.Require().NoError(err)
	suite.Require().Equal(math.NewInt(5_000_000), receipt.BaseOut)
	suite.Require().Equal(math.NewInt(8_000_000), receipt.QuoteOut)
	suite.Require().Equal(math.NewInt(10_000_000), receipt.LPBurned)
	suite.Require().Equal(math.NewInt(90_000_000), receipt.Successor.LPSupply)

	suite.Require().Equal(math.NewInt(90_000_000), f.SupplyKeeper.GetBalance(f.Ctx, lpID, keepertest.TestInitiator))
	suite.Require().True(suite.hasEvent(types.EventTypeWithdraw))
	suite.requireInvariants()
}

func (suite *KeeperTestSuite) TestImbalancedProvisionRejected() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)

	// base ratio 100000, quote ratio 87500: 1250 bps apart
	_, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, provideIntent(5_000_000, 7_000_000),
		keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(8_750_000))))
	suite.Require().ErrorIs(err, types.ErrRatioImbalance)
	suite.requireUnchanged(pool)

	outstanding, _ := f.SupplyKeeper.OutstandingSupply(f.Ctx, lpID)
	suite.Require().Equal(math.NewInt(100_000_000), outstanding)

	// within 500 bps the same pool accepts, minting against the smaller ratio
	receipt, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, provideIntent(5_000_000, 7_800_000),
		keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(9_750_000))))
	suite.Require().NoError(err)
	suite.Require().Equal(math.NewInt(9_750_000), receipt.LPMinted)
	suite.requireInvariants()
}

func (suite *KeeperTestSuite) TestProvisionDeviationCapFromIntent() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)

	// 250 bps apart: accepted by the default cap, rejected by a 100 bps request
	intent := provideIntent(5_000_000, 7_800_000)
	intent.MaxRatioDeviationBps = 100
	_, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, intent,
		keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(9_750_000))))
	suite.Require().ErrorIs(err, types.ErrRatioImbalance)

	// a request above the configured cap is bounded by it
	intent = provideIntent(5_000_000, 7_000_000)
	intent.MaxRatioDeviationBps = 5_000
	_, err = f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, intent,
		keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(8_750_000))))
	suite.Require().ErrorIs(err, types.ErrRatioImbalance)
	suite.requireUnchanged(pool)
}

func (suite *KeeperTestSuite) TestReserveFloorNormalVersusEmergency() {
	f := suite.f
	pool := suite.importPool(15_000_000, 5_000_000, 100_000_000)
	burn := keepertest.LPDirective(lpID, types.IssuanceBurn, math.NewInt(40_000_000))

	// 9,000,000 base left is below the normal 10,000,000 floor
	_, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, withdrawIntent(40_000_000, false), burn))
	suite.Require().ErrorIs(err, types.ErrReserveFloorViolation)
	suite.requireUnchanged(pool)

	// emergency mode needs the governance authority
	_, err = f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, withdrawIntent(40_000_000, true), burn))
	suite.Require().ErrorIs(err, types.ErrUnauthorized)
	suite.requireUnchanged(pool)

	tx := suite.transition(pool.Version, withdrawIntent(40_000_000, true), burn)
	tx.Authority = keepertest.TestAuthority
	receipt, err := f.Keeper.Settle(f.Ctx, tx)
	suite.Require().NoError(err)
	suite.Require().Equal(math.NewInt(9_000_000), receipt.Successor.BaseReserve)
	suite.Require().Equal(math.NewInt(3_000_000), receipt.Successor.QuoteReserve)
	suite.Require().Equal(math.NewInt(60_000_000), receipt.Successor.LPSupply)
	suite.requireInvariants()
}

func (suite *KeeperTestSuite) TestWithdrawalSizeCap() {
	f := suite.f
	pool := suite.importPool(500_000_000, 500_000_000, 100_000_000)

	_, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, withdrawIntent(50_000_001, false),
		keepertest.LPDirective(lpID, types.IssuanceBurn, math.NewInt(50_000_001))))
	suite.Require().ErrorIs(err, types.ErrSizeLimitExceeded)

	_, err = f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, withdrawIntent(100_000_001, false),
		keepertest.LPDirective(lpID, types.IssuanceBurn, math.NewInt(100_000_001))))
	suite.Require().ErrorIs(err, types.ErrInvalidAmount)
	suite.requireUnchanged(pool)
}

func (suite *KeeperTestSuite) TestUnauthorizedIssuance() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)

	tests := []struct {
		name string
		tx   func() *types.Transition
	}{
		{"swap carrying a mint", func() *types.Transition {
			return suite.transition(pool.Version, swapIntent(types.BaseToQuote, 1_000_000, 0),
				keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(1)))
		}},
		{"provision minting one unit too many", func() *types.Transition {
			return suite.transition(pool.Version, provideIntent(5_000_000, 8_000_000),
				keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(10_000_001)))
		}},
		{"provision minting one unit too few", func() *types.Transition {
			return suite.transition(pool.Version, provideIntent(5_000_000, 8_000_000),
				keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(9_999_999)))
		}},
		{"provision without directive", func() *types.Transition {
			return suite.transition(pool.Version, provideIntent(5_000_000, 8_000_000))
		}},
		{"directive for another policy", func() *types.Transition {
			d := keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(10_000_000))
			d.Policy = "bank"
			return suite.transition(pool.Version, provideIntent(5_000_000, 8_000_000), d)
		}},
		{"directive for another denom", func() *types.Transition {
			return suite.transition(pool.Version, provideIntent(5_000_000, 8_000_000),
				keepertest.LPDirective("lp/other", types.IssuanceMint, math.NewInt(10_000_000)))
		}},
		{"two directives", func() *types.Transition {
			d := keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(10_000_000))
			return suite.transition(pool.Version, provideIntent(5_000_000, 8_000_000), d, d)
		}},
		{"withdrawal minting instead of burning", func() *types.Transition {
			return suite.transition(pool.Version, withdrawIntent(10_000_000, false),
				keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(10_000_000)))
		}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			tx := tc.tx()
			_, err := f.Keeper.Settle(f.Ctx, tx)
			suite.Require().ErrorIs(err, types.ErrUnauthorizedIssuance)
			suite.requireUnchanged(pool)
			suite.Require().False(f.SupplyKeeper.IsMarkerConsumed(f.Ctx, tx.Marker))
		})
	}

	outstanding, _ := f.SupplyKeeper.OutstandingSupply(f.Ctx, lpID)
	suite.Require().Equal(math.NewInt(100_000_000), outstanding)
	suite.requireInvariants()
}

func (suite *KeeperTestSuite) TestMarkerReplayRejected() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)

	first := suite.transition(pool.Version, swapIntent(types.BaseToQuote, 1_000_000, 0))
	receipt, err := f.Keeper.Settle(f.Ctx, first)
	suite.Require().NoError(err)
	suite.Require().True(f.SupplyKeeper.IsMarkerConsumed(f.Ctx, first.Marker))

	replay := suite.transition(receipt.Version, swapIntent(types.BaseToQuote, 1_000_000, 0))
	replay.Marker = first.Marker
	_, err = f.Keeper.Settle(f.Ctx, replay)
	suite.Require().ErrorIs(err, types.ErrUnauthorizedIssuance)
}

func (suite *KeeperTestSuite) TestBurnRequiresHolding() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)

	tx := suite.transition(pool.Version, withdrawIntent(10_000_000, false),
		keepertest.LPDirective(lpID, types.IssuanceBurn, math.NewInt(10_000_000)))
	tx.Initiator = "paw1stranger"
	_, err := f.Keeper.Settle(f.Ctx, tx)
	suite.Require().ErrorIs(err, types.ErrUnauthorizedIssuance)
	suite.requireUnchanged(pool)

	// after a transfer the new holder can withdraw
	suite.Require().NoError(f.SupplyKeeper.Transfer(f.Ctx, lpID, keepertest.TestInitiator, "paw1stranger", math.NewInt(10_000_000)))
	tx = suite.transition(pool.Version, withdrawIntent(10_000_000, false),
		keepertest.LPDirective(lpID, types.IssuanceBurn, math.NewInt(10_000_000)))
	tx.Initiator = "paw1stranger"
	_, err = f.Keeper.Settle(f.Ctx, tx)
	suite.Require().NoError(err)
	suite.Require().True(f.SupplyKeeper.GetBalance(f.Ctx, lpID, "paw1stranger").IsZero())
	suite.requireInvariants()
}

func (suite *KeeperTestSuite) TestSpentEntryCannotBeConsumedTwice() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)

	_, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.BaseToQuote, 1_000_000, 0)))
	suite.Require().NoError(err)

	// a second spender of version 1 loses the race
	_, err = f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.QuoteToBase, 1_000_000, 0)))
	suite.Require().ErrorIs(err, types.ErrEntrySpent)

	_, err = f.Keeper.Settle(f.Ctx, suite.transition(9, swapIntent(types.QuoteToBase, 1_000_000, 0)))
	suite.Require().ErrorIs(err, types.ErrPoolNotFound)

	tx := suite.transition(2, swapIntent(types.QuoteToBase, 1_000_000, 0))
	tx.Consumes[0].PoolIdentity = "pool/missing"
	_, err = f.Keeper.Settle(f.Ctx, tx)
	suite.Require().ErrorIs(err, types.ErrPoolNotFound)

	history, err := f.Keeper.GetPoolHistory(f.Ctx, poolID)
	suite.Require().NoError(err)
	suite.Require().Len(history, 2)
	suite.Require().True(history[0].Spent)
	suite.Require().NotEmpty(history[0].SpentBy)
	suite.Require().False(history[1].Spent)
	suite.requireInvariants()
}

func (suite *KeeperTestSuite) TestDeadlineAndDustChecks() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)

	late := swapIntent(types.BaseToQuote, 1_000_000, 0)
	late.Deadline = keepertest.TestBlockTime.Add(-1)
	_, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, late))
	suite.Require().ErrorIs(err, types.ErrDeadlineExceeded)

	_, err = f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.BaseToQuote, 999, 0)))
	suite.Require().ErrorIs(err, types.ErrSizeLimitExceeded)

	_, err = f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.BaseToQuote, 25_000_001, 0)))
	suite.Require().ErrorIs(err, types.ErrSizeLimitExceeded)

	// deadline equal to block time is still in time
	onTime := swapIntent(types.QuoteToBase, 1_000_000, 0)
	onTime.Deadline = keepertest.TestBlockTime
	_, err = f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, onTime))
	suite.Require().NoError(err)
}

func (suite *KeeperTestSuite) TestCreatePool() {
	f := suite.f
	pool := f.CreatePool(suite.T(), poolID, quoteID, lpID, 30)
	suite.Require().Equal(uint64(1), pool.Version)
	suite.Require().True(suite.hasEvent(types.EventTypePoolCreated))

	_, found := f.SupplyKeeper.OutstandingSupply(f.Ctx, lpID)
	suite.Require().True(found)

	create := types.CreatePoolIntent{
		PoolIdentity: poolID, QuoteAssetID: quoteID, LPAssetID: "lp/second", FeeBps: 30,
		SeedBase: math.ZeroInt(), SeedQuote: math.ZeroInt(), MinLPOut: math.ZeroInt(),
	}
	_, err := f.Keeper.Settle(f.Ctx, &types.Transition{Marker: f.NextMarker(), Initiator: keepertest.TestInitiator, Intent: create})
	suite.Require().ErrorIs(err, types.ErrPoolAlreadyExists)

	// a second pool cannot reuse a bound lp denom
	create.PoolIdentity, create.LPAssetID = "pool/other", lpID
	_, err = f.Keeper.Settle(f.Ctx, &types.Transition{Marker: f.NextMarker(), Initiator: keepertest.TestInitiator, Intent: create})
	suite.Require().ErrorIs(err, types.ErrUnauthorizedIssuance)

	// the base asset cannot be quoted against itself
	create.LPAssetID, create.QuoteAssetID = "lp/other", types.DefaultBaseAssetID
	_, err = f.Keeper.Settle(f.Ctx, &types.Transition{Marker: f.NextMarker(), Initiator: keepertest.TestInitiator, Intent: create})
	suite.Require().ErrorIs(err, types.ErrInvalidPoolState)

	// swaps need liquidity
	_, err = f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.BaseToQuote, 1_000_000, 0)))
	suite.Require().ErrorIs(err, types.ErrInvalidPoolState)
	suite.requireInvariants()
}

func (suite *KeeperTestSuite) TestSeededCreation() {
	f := suite.f
	pool := f.CreateFundedPool(suite.T(), poolID, quoteID, lpID, 30, math.NewInt(10_000_000), math.NewInt(20_000_000))
	suite.Require().Equal(math.NewInt(14_142_135), pool.State.LPSupply)
	suite.Require().Equal(math.NewInt(14_142_135), f.SupplyKeeper.GetBalance(f.Ctx, lpID, keepertest.TestInitiator))

	// below the minimum initial deposit
	create := types.CreatePoolIntent{
		PoolIdentity: "pool/small", QuoteAssetID: quoteID, LPAssetID: "lp/small", FeeBps: 30,
		SeedBase: math.NewInt(999_999), SeedQuote: math.NewInt(5_000_000), MinLPOut: math.ZeroInt(),
	}
	_, err := f.Keeper.Settle(f.Ctx, &types.Transition{
		Marker: f.NextMarker(), Initiator: keepertest.TestInitiator, Intent: create,
		Issuance: []types.IssuanceDirective{keepertest.LPDirective("lp/small", types.IssuanceMint, math.NewInt(2_236_067))},
	})
	suite.Require().ErrorIs(err, types.ErrSizeLimitExceeded)
	suite.Require().False(f.Keeper.HasPool(f.Ctx, "pool/small"))
	suite.requireInvariants()
}

func (suite *KeeperTestSuite) TestMalformedTransition() {
	f := suite.f
	_, err := f.Keeper.Settle(f.Ctx, nil)
	suite.Require().ErrorIs(err, types.ErrInvalidTransition)

	tx := suite.transition(1, swapIntent(types.BaseToQuote, 1_000_000, 0))
	tx.Marker = []byte("short")
	_, err = f.Keeper.Settle(f.Ctx, tx)
	suite.Require().ErrorIs(err, types.ErrInvalidTransition)
}
