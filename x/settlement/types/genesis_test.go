package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenesisValidate(t *testing.T) {
	require.NoError(t, DefaultGenesis().Validate())

	valid := DefaultGenesis()
	valid.Pools = []PoolSnapshot{{State: fundedPool(), Version: 3}}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(gs *GenesisState)
		want   error
	}{
		{"bad params", func(gs *GenesisState) { gs.Params.MaxSwapBps = 0 }, ErrInvalidParams},
		{"duplicate pool", func(gs *GenesisState) {
			gs.Pools = append(gs.Pools, gs.Pools[0])
		}, ErrPoolAlreadyExists},
		{"shared lp denom", func(gs *GenesisState) {
			other := gs.Pools[0]
			other.State.PoolIdentity = "pool/other"
			gs.Pools = append(gs.Pools, other)
		}, ErrInvalidPoolState},
		{"version zero", func(gs *GenesisState) { gs.Pools[0].Version = 0 }, ErrInvalidPoolState},
		{"spent snapshot", func(gs *GenesisState) { gs.Pools[0].Spent = true }, ErrInvalidPoolState},
		{"invalid state", func(gs *GenesisState) { gs.Pools[0].State.FeeBps = 0 }, ErrInvalidPoolState},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs := DefaultGenesis()
			gs.Pools = []PoolSnapshot{{State: fundedPool(), Version: 3}}
			tc.mutate(gs)
			require.ErrorIs(t, gs.Validate(), tc.want)
		})
	}
}
