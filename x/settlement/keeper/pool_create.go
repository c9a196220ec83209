package keeper

import (
	"cosmossdk.io/math"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// ComputeCreation validates a pool creation. An unseeded pool starts empty and
// waits for an initial provision; a seeded pool is funded in the same
// transition under exactly the initial provision rules.
func ComputeCreation(params types.Params, intent types.CreatePoolIntent) (types.ProvisionOutcome, error) {
	if err := intent.ValidateBasic(); err != nil {
		return types.ProvisionOutcome{}, err
	}
	empty := types.NewEmptyPoolState(intent.PoolIdentity, intent.QuoteAssetID, intent.LPAssetID, intent.FeeBps)
	if err := empty.Validate(params); err != nil {
		return types.ProvisionOutcome{}, err
	}

	if !intent.IsSeeded() {
		return types.ProvisionOutcome{
			Successor:    empty,
			BaseIn:       math.ZeroInt(),
			QuoteIn:      math.ZeroInt(),
			LPMinted:     math.ZeroInt(),
			DeviationBps: math.ZeroInt(),
		}, nil
	}
	return computeInitialProvision(params, empty, intent.SeedBase, intent.SeedQuote, intent.MinLPOut)
}
