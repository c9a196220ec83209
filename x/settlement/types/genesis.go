package types

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
)

// GenesisState is the exported form of the module: params and the live
// snapshot of every pool. Spent history is not carried across genesis.
type GenesisState struct {
	Params Params         `json:"params"`
	Pools  []PoolSnapshot `json:"pools"`
}

// DefaultGenesis returns the default genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params: DefaultParams(),
		Pools:  []PoolSnapshot{},
	}
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}

	seenPools := make(map[string]struct{}, len(gs.Pools))
	seenLP := make(map[string]string, len(gs.Pools))
	for _, snap := range gs.Pools {
		id := snap.State.PoolIdentity
		if _, dup := seenPools[id]; dup {
			return errorsmod.Wrapf(ErrPoolAlreadyExists, "duplicate pool %s in genesis", id)
		}
		seenPools[id] = struct{}{}

		if other, dup := seenLP[snap.State.LPAssetID]; dup {
			return errorsmod.Wrapf(ErrInvalidPoolState, "lp asset %s shared by pools %s and %s", snap.State.LPAssetID, other, id)
		}
		seenLP[snap.State.LPAssetID] = id

		if snap.Version == 0 {
			return errorsmod.Wrapf(ErrInvalidPoolState, "pool %s has version 0", id)
		}
		if snap.Spent {
			return errorsmod.Wrapf(ErrInvalidPoolState, "pool %s genesis snapshot is spent", id)
		}
		if err := snap.State.Validate(gs.Params); err != nil {
			return fmt.Errorf("genesis pool %s: %w", id, err)
		}
	}
	return nil
}
