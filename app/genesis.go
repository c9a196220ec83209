package app

import (
	"encoding/json"
	"fmt"
	"os"

	sdk "github.com/cosmos/cosmos-sdk/types"

	lpsupplytypes "github.com/paw-chain/settlement/x/lpsupply/types"
	settlementtypes "github.com/paw-chain/settlement/x/settlement/types"
)

// GenesisState is the genesis state of the engine: a map from module name to
// module genesis state.
type GenesisState map[string]json.RawMessage

// NewDefaultGenesisState returns the default genesis of every module.
func NewDefaultGenesisState() GenesisState {
	genesis := make(GenesisState)
	genesis[settlementtypes.ModuleName] = mustMarshalJSON(settlementtypes.DefaultGenesis())
	genesis[lpsupplytypes.ModuleName] = mustMarshalJSON(lpsupplytypes.DefaultGenesis())
	return genesis
}

// LoadGenesisFile reads a genesis state from a JSON file.
func LoadGenesisFile(path string) (GenesisState, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}
	var genesis GenesisState
	if err := json.Unmarshal(bz, &genesis); err != nil {
		return nil, fmt.Errorf("failed to decode genesis file %s: %w", path, err)
	}
	return genesis, nil
}

// SettlementGenesis decodes the settlement module genesis, falling back to the
// default when the module is absent.
func (gs GenesisState) SettlementGenesis() (settlementtypes.GenesisState, error) {
	state := *settlementtypes.DefaultGenesis()
	if raw, ok := gs[settlementtypes.ModuleName]; ok {
		if err := json.Unmarshal(raw, &state); err != nil {
			return state, fmt.Errorf("failed to decode %s genesis: %w", settlementtypes.ModuleName, err)
		}
	}
	return state, nil
}

func (gs GenesisState) lpsupply() (lpsupplytypes.GenesisState, error) {
	state := *lpsupplytypes.DefaultGenesis()
	if raw, ok := gs[lpsupplytypes.ModuleName]; ok {
		if err := json.Unmarshal(raw, &state); err != nil {
			return state, fmt.Errorf("failed to decode %s genesis: %w", lpsupplytypes.ModuleName, err)
		}
	}
	return state, nil
}

// Validate checks each module genesis and that every pool's LP supply is
// backed by the supply ledger.
func (gs GenesisState) Validate() error {
	for name := range gs {
		if name != settlementtypes.ModuleName && name != lpsupplytypes.ModuleName {
			return fmt.Errorf("genesis for unknown module %q", name)
		}
	}
	settlement, err := gs.SettlementGenesis()
	if err != nil {
		return err
	}
	if err := settlement.Validate(); err != nil {
		return fmt.Errorf("invalid %s genesis: %w", settlementtypes.ModuleName, err)
	}
	supply, err := gs.lpsupply()
	if err != nil {
		return err
	}
	if err := supply.Validate(); err != nil {
		return fmt.Errorf("invalid %s genesis: %w", lpsupplytypes.ModuleName, err)
	}

	ledger := make(map[string]lpsupplytypes.Supply, len(supply.Supplies))
	for _, s := range supply.Supplies {
		ledger[s.Denom] = s
	}
	for _, pool := range settlement.Pools {
		s, ok := ledger[pool.State.LPAssetID]
		if !ok {
			return fmt.Errorf("pool %s: lp denom %s has no supply record", pool.State.PoolIdentity, pool.State.LPAssetID)
		}
		if s.PoolIdentity != pool.State.PoolIdentity {
			return fmt.Errorf("pool %s: lp denom %s is bound to %s", pool.State.PoolIdentity, s.Denom, s.PoolIdentity)
		}
		if !s.Outstanding.Equal(pool.State.LPSupply) {
			return fmt.Errorf("pool %s: lp supply %s, outstanding %s", pool.State.PoolIdentity, pool.State.LPSupply, s.Outstanding)
		}
	}
	return nil
}

func (app *SettlementApp) initGenesis(ctx sdk.Context, genesis GenesisState) error {
	settlement, err := genesis.SettlementGenesis()
	if err != nil {
		return err
	}
	supply, err := genesis.lpsupply()
	if err != nil {
		return err
	}
	if err := app.SettlementKeeper.InitGenesis(ctx, settlement); err != nil {
		return err
	}
	return app.SupplyKeeper.InitGenesis(ctx, supply)
}

// ExportGenesis exports the committed state of every module.
func (app *SettlementApp) ExportGenesis() (GenesisState, error) {
	ctx := app.QueryContext()
	app.mu.Lock()
	defer app.mu.Unlock()

	settlement, err := app.SettlementKeeper.ExportGenesis(ctx)
	if err != nil {
		return nil, err
	}
	genesis := make(GenesisState)
	genesis[settlementtypes.ModuleName] = mustMarshalJSON(settlement)
	genesis[lpsupplytypes.ModuleName] = mustMarshalJSON(app.SupplyKeeper.ExportGenesis(ctx))
	return genesis, nil
}

func mustMarshalJSON(v interface{}) json.RawMessage {
	bz, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return bz
}
