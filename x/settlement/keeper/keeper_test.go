package keeper_test

import (
	"encoding/json"
	"testing"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/suite"

	keepertest "github.com/paw-chain/settlement/testutil/keeper"
	"github.com/paw-chain/settlement/x/settlement/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

const (
	poolID  = "pool/upaw-uusdc"
	quoteID = "uusdc"
	lpID    = "lp/upaw-uusdc"
)

type KeeperTestSuite struct {
	suite.Suite
	f *keepertest.SettlementFixture
}

func (suite *KeeperTestSuite) SetupTest() {
	suite.f = keepertest.SettlementKeeper(suite.T())
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

func (suite *KeeperTestSuite) importPool(base, quote, lp int64) types.PoolSnapshot {
	state := types.PoolState{
		PoolIdentity: poolID,
		QuoteAssetID: quoteID,
		LPAssetID:    lpID,
		BaseReserve:  math.NewInt(base),
		QuoteReserve: math.NewInt(quote),
		LPSupply:     math.NewInt(lp),
		FeeBps:       30,
	}
	return suite.f.ImportPool(suite.T(), state, keepertest.TestInitiator)
}

func (suite *KeeperTestSuite) transition(version uint64, intent types.Intent, issuance ...types.IssuanceDirective) *types.Transition {
	return &types.Transition{
		Marker:    suite.f.NextMarker(),
		Initiator: keepertest.TestInitiator,
		Consumes:  []types.EntryRef{{PoolIdentity: poolID, Version: version}},
		Intent:    intent,
		Issuance:  issuance,
	}
}

func swapIntent(direction types.SwapDirection, amountIn, minOut int64) types.SwapIntent {
	return types.SwapIntent{
		Direction: direction,
		AmountIn:  math.NewInt(amountIn),
		MinOut:    math.NewInt(minOut),
		Deadline:  keepertest.TestBlockTime.Add(time.Minute),
	}
}

func withdrawIntent(lp int64, emergency bool) types.WithdrawLiquidityIntent {
	return types.WithdrawLiquidityIntent{
		LPAmountToBurn: math.NewInt(lp),
		MinBaseOut:     math.ZeroInt(),
		MinQuoteOut:    math.ZeroInt(),
		IsEmergency:    emergency,
	}
}

func provideIntent(base, quote int64) types.ProvideLiquidityIntent {
	return types.ProvideLiquidityIntent{
		BaseAmount:  math.NewInt(base),
		QuoteAmount: math.NewInt(quote),
		MinLPOut:    math.ZeroInt(),
	}
}

// requireUnchanged asserts that pool is still at version with its state intact.
func (suite *KeeperTestSuite) requireUnchanged(before types.PoolSnapshot) {
	live, err := suite.f.Keeper.GetLivePool(suite.f.Ctx, before.State.PoolIdentity)
	suite.Require().NoError(err)
	suite.Require().Equal(before.Version, live.Version)
	suite.Require().False(live.Spent)
	suite.Require().True(live.State.BaseReserve.Equal(before.State.BaseReserve))
	suite.Require().True(live.State.QuoteReserve.Equal(before.State.QuoteReserve))
	suite.Require().True(live.State.LPSupply.Equal(before.State.LPSupply))

	history, err := suite.f.Keeper.GetPoolHistory(suite.f.Ctx, before.State.PoolIdentity)
	suite.Require().NoError(err)
	suite.Require().Len(history, int(before.Version-history[0].Version+1))
}

func (suite *KeeperTestSuite) requireInvariants() {
	msg, broken := keeper.AllInvariants(*suite.f.Keeper)(suite.f.Ctx)
	suite.Require().False(broken, msg)
}

func (suite *KeeperTestSuite) hasEvent(eventType string) bool {
	for _, ev := range suite.f.Ctx.EventManager().Events() {
		if ev.Type == eventType {
			return true
		}
	}
	return false
}

func attr(ev sdk.Event, key string) string {
	for _, a := range ev.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// requireParamsEqual compares params by encoding; decoded math.Int values do
// not share the internal representation of freshly built ones.
func (suite *KeeperTestSuite) requireParamsEqual(expected, actual types.Params) {
	want, err := json.Marshal(expected)
	suite.Require().NoError(err)
	got, err := json.Marshal(actual)
	suite.Require().NoError(err)
	suite.Require().JSONEq(string(want), string(got))
}
