package types

import (
	"cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// SupplyKeeper is the liquidity-token supply-control policy. It is consulted
// for every transition and never trusts the pool validator's authorization on
// its own.
type SupplyKeeper interface {
	AuthorizeIssuance(ctx sdk.Context, txc *TxContext) (IssuanceGrant, error)
	ApplyIssuance(ctx sdk.Context, txc *TxContext, grant IssuanceGrant) error
	OutstandingSupply(ctx sdk.Context, denom string) (math.Int, bool)
}
