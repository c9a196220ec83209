package types

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	settlementtypes "github.com/paw-chain/settlement/x/settlement/types"
)

// Supply is the policy's record of one LP denom: the pool it is bound to and
// the amount outstanding. A denom is bound once, when its pool is created.
type Supply struct {
	Denom        string   `json:"denom"`
	PoolIdentity string   `json:"pool_identity"`
	Outstanding  math.Int `json:"outstanding"`
}

// Validate performs stateless checks.
func (s Supply) Validate() error {
	if err := sdk.ValidateDenom(s.Denom); err != nil {
		return fmt.Errorf("supply denom %q: %w", s.Denom, err)
	}
	if err := sdk.ValidateDenom(s.PoolIdentity); err != nil {
		return fmt.Errorf("supply %s pool identity %q: %w", s.Denom, s.PoolIdentity, err)
	}
	return settlementtypes.ValidateUint128("outstanding supply", s.Outstanding)
}

// Balance is the LP holding of one account.
type Balance struct {
	Denom  string   `json:"denom"`
	Holder string   `json:"holder"`
	Amount math.Int `json:"amount"`
}
