package keeper_test

import (
	"cosmossdk.io/math"

	keepertest "github.com/paw-chain/settlement/testutil/keeper"
	lpsupplytypes "github.com/paw-chain/settlement/x/lpsupply/types"
	"github.com/paw-chain/settlement/x/settlement/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

func (suite *KeeperTestSuite) TestInvariantsHoldAcrossOperations() {
	f := suite.f
	pool := f.CreatePool(suite.T(), poolID, quoteID, lpID, 30)
	suite.requireInvariants()

	initial := provideIntent(40_000_000, 90_000_000)
	initial.IsInitial = true
	receipt, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, initial,
		keepertest.LPDirective(lpID, types.IssuanceMint, math.NewInt(60_000_000))))
	suite.Require().NoError(err)
	suite.requireInvariants()

	steps := []func(version uint64) *types.Transition{
		func(v uint64) *types.Transition {
			return suite.transition(v, swapIntent(types.BaseToQuote, 3_000_000, 0))
		},
		func(v uint64) *types.Transition {
			return suite.transition(v, swapIntent(types.QuoteToBase, 7_000_000, 0))
		},
		func(v uint64) *types.Transition {
			return suite.transition(v, withdrawIntent(6_000_000, false),
				keepertest.LPDirective(lpID, types.IssuanceBurn, math.NewInt(6_000_000)))
		},
	}
	for _, step := range steps {
		receipt, err = f.Keeper.Settle(f.Ctx, step(receipt.Version))
		suite.Require().NoError(err)
		suite.requireInvariants()
	}
	suite.Require().Equal(uint64(5), receipt.Version)
}

func (suite *KeeperTestSuite) TestLPSupplyInvariantDetectsLedgerMismatch() {
	f := suite.f
	state := types.PoolState{
		PoolIdentity: poolID, QuoteAssetID: quoteID, LPAssetID: lpID, FeeBps: 30,
		BaseReserve: math.NewInt(50_000_000), QuoteReserve: math.NewInt(80_000_000), LPSupply: math.NewInt(100_000_000),
	}
	gs := types.GenesisState{
		Params: types.DefaultParams(),
		Pools:  []types.PoolSnapshot{{State: state, Version: 1, CreatedAt: keepertest.TestBlockTime}},
	}
	suite.Require().NoError(f.Keeper.InitGenesis(f.Ctx, gs))

	// the denom is unbound
	msg, broken := keeper.LPSupplyInvariant(*f.Keeper)(f.Ctx)
	suite.Require().True(broken)
	suite.Require().Contains(msg, "not bound")

	suite.Require().NoError(f.SupplyKeeper.InitGenesis(f.Ctx, lpsupplytypes.GenesisState{
		Supplies: []lpsupplytypes.Supply{{Denom: lpID, PoolIdentity: poolID, Outstanding: math.NewInt(99_000_000)}},
		Balances: []lpsupplytypes.Balance{{Denom: lpID, Holder: keepertest.TestInitiator, Amount: math.NewInt(99_000_000)}},
	}))
	msg, broken = keeper.LPSupplyInvariant(*f.Keeper)(f.Ctx)
	suite.Require().True(broken)
	suite.Require().Contains(msg, "outstanding 99000000")

	// settlement refuses to build on a diverged ledger
	_, err := f.Keeper.Settle(f.Ctx, suite.transition(1, swapIntent(types.BaseToQuote, 1_000_000, 0)))
	suite.Require().ErrorIs(err, types.ErrInvariantViolation)
	suite.Require().True(types.IsInvariantViolation(err))

	_, broken = keeper.PoolStateInvariant(*f.Keeper)(f.Ctx)
	suite.Require().False(broken)
	_, broken = keeper.SnapshotHistoryInvariant(*f.Keeper)(f.Ctx)
	suite.Require().False(broken)
}
