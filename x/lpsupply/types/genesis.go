package types

import (
	"fmt"

	"cosmossdk.io/math"
)

// GenesisState is the exported supply ledger.
type GenesisState struct {
	Supplies []Supply  `json:"supplies"`
	Balances []Balance `json:"balances"`
}

// DefaultGenesis returns the default genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Supplies: []Supply{},
		Balances: []Balance{},
	}
}

// Validate checks that every denom is bound once and that holder balances add
// up to the outstanding supply.
func (gs GenesisState) Validate() error {
	outstanding := make(map[string]math.Int, len(gs.Supplies))
	pools := make(map[string]string, len(gs.Supplies))
	for _, s := range gs.Supplies {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := outstanding[s.Denom]; dup {
			return fmt.Errorf("duplicate supply for %s", s.Denom)
		}
		if other, dup := pools[s.PoolIdentity]; dup {
			return fmt.Errorf("pool %s bound to both %s and %s", s.PoolIdentity, other, s.Denom)
		}
		outstanding[s.Denom] = s.Outstanding
		pools[s.PoolIdentity] = s.Denom
	}

	held := make(map[string]math.Int, len(gs.Supplies))
	seen := make(map[string]struct{}, len(gs.Balances))
	for _, b := range gs.Balances {
		if _, ok := outstanding[b.Denom]; !ok {
			return fmt.Errorf("balance of unbound denom %s", b.Denom)
		}
		if b.Holder == "" {
			return fmt.Errorf("balance of %s without holder", b.Denom)
		}
		if b.Amount.IsNil() || !b.Amount.IsPositive() {
			return fmt.Errorf("balance of %s held by %s must be positive", b.Denom, b.Holder)
		}
		key := b.Denom + "\x00" + b.Holder
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate balance of %s held by %s", b.Denom, b.Holder)
		}
		seen[key] = struct{}{}
		if prev, ok := held[b.Denom]; ok {
			held[b.Denom] = prev.Add(b.Amount)
		} else {
			held[b.Denom] = b.Amount
		}
	}

	for _, s := range gs.Supplies {
		sum, ok := held[s.Denom]
		if !ok {
			sum = math.ZeroInt()
		}
		if !sum.Equal(s.Outstanding) {
			return fmt.Errorf("balances of %s sum to %s, outstanding %s", s.Denom, sum, s.Outstanding)
		}
	}
	return nil
}
