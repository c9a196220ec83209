package keeper_test

import (
	"cosmossdk.io/math"

	"github.com/paw-chain/settlement/x/settlement/types"
)

func (suite *KeeperTestSuite) TestSimulateDoesNotWrite() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)

	swap, err := f.Keeper.SimulateSwap(f.Ctx, poolID, swapIntent(types.BaseToQuote, 1_000_000, 0))
	suite.Require().NoError(err)
	suite.Require().True(swap.AmountOut.IsPositive())

	provision, err := f.Keeper.SimulateProvision(f.Ctx, poolID, provideIntent(5_000_000, 8_000_000))
	suite.Require().NoError(err)
	suite.Require().Equal(math.NewInt(10_000_000), provision.LPMinted)

	withdrawal, err := f.Keeper.SimulateWithdrawal(f.Ctx, poolID, withdrawIntent(10_000_000, false))
	suite.Require().NoError(err)
	suite.Require().Equal(math.NewInt(5_000_000), withdrawal.BaseOut)
	suite.Require().Equal(math.NewInt(8_000_000), withdrawal.QuoteOut)

	suite.requireUnchanged(pool)

	// simulation and settlement agree
	receipt, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.BaseToQuote, 1_000_000, 0)))
	suite.Require().NoError(err)
	suite.Require().Equal(swap.AmountOut, receipt.QuoteOut)
}

func (suite *KeeperTestSuite) TestSimulateUnknownPool() {
	f := suite.f
	_, err := f.Keeper.SimulateSwap(f.Ctx, "pool/none", swapIntent(types.BaseToQuote, 1_000_000, 0))
	suite.Require().ErrorIs(err, types.ErrPoolNotFound)
	_, err = f.Keeper.GetPool(f.Ctx, "pool/none")
	suite.Require().ErrorIs(err, types.ErrPoolNotFound)
}

func (suite *KeeperTestSuite) TestIteratePoolsLiveOnly() {
	f := suite.f
	pool := suite.importPool(50_000_000, 80_000_000, 100_000_000)
	for i := 0; i < 3; i++ {
		receipt, err := f.Keeper.Settle(f.Ctx, suite.transition(pool.Version, swapIntent(types.BaseToQuote, 100_000, 0)))
		suite.Require().NoError(err)
		pool.Version = receipt.Version
	}

	pools, err := f.Keeper.GetAllPools(f.Ctx)
	suite.Require().NoError(err)
	suite.Require().Len(pools, 1)
	suite.Require().Equal(uint64(4), pools[0].Version)
	suite.Require().False(pools[0].Spent)

	spent, err := f.Keeper.GetSnapshot(f.Ctx, poolID, 2)
	suite.Require().NoError(err)
	suite.Require().True(spent.Spent)
	suite.requireInvariants()
}
