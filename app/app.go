// Package app wires the settlement engine: the commit multistore, the settlement
// and LP supply keepers, and the block cycle that drives them.
//
// The engine is a single-writer state machine. A block is opened with
// BeginBlock, transitions are settled against the block's branched store, and
// Commit writes the branch and persists a new store version. Reads from other
// goroutines (health checks, queries) take the same lock.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	lpsupplykeeper "github.com/paw-chain/settlement/x/lpsupply/keeper"
	lpsupplytypes "github.com/paw-chain/settlement/x/lpsupply/types"
	settlementkeeper "github.com/paw-chain/settlement/x/settlement/keeper"
	settlementtypes "github.com/paw-chain/settlement/x/settlement/types"
	"github.com/paw-chain/settlement/x/shared/abci"
)

const (
	Name = "settled"

	// ChainID is used in block headers of engine contexts
	ChainID = "settlement-1"
)

// DefaultNodeHome is the default home directory of the engine.
var DefaultNodeHome string

func init() {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	DefaultNodeHome = filepath.Join(userHomeDir, ".settled")
}

// ErrNoOpenBlock is returned when a block operation runs outside BeginBlock/Commit.
var ErrNoOpenBlock = errorsmod.Register(Name, 2, "no open block")

// ErrInvariantBroken is returned by EndBlock when a registered invariant fails.
var ErrInvariantBroken = errorsmod.Register(Name, 3, "invariant broken")

// SettlementApp holds the stores and keepers of one engine instance.
type SettlementApp struct {
	logger log.Logger
	config Config
	db     dbm.DB
	cms    storetypes.CommitMultiStore

	// keys to access the substores
	keys map[string]*storetypes.KVStoreKey

	SettlementKeeper *settlementkeeper.Keeper
	SupplyKeeper     lpsupplykeeper.Keeper

	invariants *invariantRegistry

	mu          sync.Mutex
	deliver     storetypes.CacheMultiStore
	ctx         sdk.Context
	blockOpen   bool
	lastBlock   time.Time
	initialized bool
}

// NewSettlementApp mounts the module stores on db and builds the keepers.
func NewSettlementApp(logger log.Logger, db dbm.DB, cfg Config) (*SettlementApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	keys := storetypes.NewKVStoreKeys(
		settlementtypes.StoreKey,
		settlementtypes.MarkerStoreKey,
		lpsupplytypes.StoreKey,
	)

	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	for _, key := range keys {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	app := &SettlementApp{
		logger:     logger,
		config:     cfg,
		db:         db,
		cms:        cms,
		keys:       keys,
		invariants: &invariantRegistry{},
	}

	app.SupplyKeeper = lpsupplykeeper.NewKeeper(
		keys[lpsupplytypes.StoreKey],
		keys[settlementtypes.MarkerStoreKey],
	)
	app.SettlementKeeper = settlementkeeper.NewKeeper(
		keys[settlementtypes.StoreKey],
		app.SupplyKeeper,
		cfg.Authority,
	)
	settlementkeeper.RegisterInvariants(app.invariants, *app.SettlementKeeper)

	// a store that already holds a version has been through InitChain
	app.initialized = cms.LastCommitID().Version > 0
	return app, nil
}

// NewSettlementAppFromConfig opens the database named by cfg and builds the engine.
func NewSettlementAppFromConfig(logger log.Logger, cfg Config) (*SettlementApp, error) {
	db, err := dbm.NewDB(Name, dbm.BackendType(cfg.DBBackend), cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DBBackend, err)
	}
	app, err := NewSettlementApp(logger, db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

// Logger returns the engine logger.
func (app *SettlementApp) Logger() log.Logger {
	return app.logger
}

// GetKey returns the KVStoreKey for the provided store key.
func (app *SettlementApp) GetKey(storeKey string) *storetypes.KVStoreKey {
	return app.keys[storeKey]
}

// LastCommitID returns the id of the last committed store version.
func (app *SettlementApp) LastCommitID() storetypes.CommitID {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.cms.LastCommitID()
}

// LastBlockTime returns the time of the last committed block. It is zero
// after a restart until the next block commits.
func (app *SettlementApp) LastBlockTime() time.Time {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.lastBlock
}

// Initialized reports whether genesis has been loaded.
func (app *SettlementApp) Initialized() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.initialized
}

func (app *SettlementApp) newContext(ms storetypes.MultiStore, t time.Time) sdk.Context {
	header := cmtproto.Header{
		ChainID: ChainID,
		Height:  app.cms.LastCommitID().Version + 1,
		Time:    t,
	}
	return sdk.NewContext(ms, header, false, app.logger)
}

// InitChain loads genesis and commits the first store version.
func (app *SettlementApp) InitChain(genesis GenesisState, genesisTime time.Time) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.initialized {
		return fmt.Errorf("engine already initialized at version %d", app.cms.LastCommitID().Version)
	}
	if err := genesis.Validate(); err != nil {
		return err
	}

	branch := app.cms.CacheMultiStore()
	ctx := app.newContext(branch, genesisTime)
	if err := app.initGenesis(ctx, genesis); err != nil {
		return err
	}
	if msg, broken := app.invariants.assert(ctx); broken {
		return errorsmod.Wrap(ErrInvariantBroken, msg)
	}

	branch.Write()
	commit := app.cms.Commit()
	app.initialized = true
	app.lastBlock = genesisTime
	app.logger.Info("genesis loaded", "version", commit.Version, "hash", fmt.Sprintf("%X", commit.Hash))
	return nil
}

// BeginBlock opens a block at blockTime. Block times must not go backwards.
func (app *SettlementApp) BeginBlock(blockTime time.Time) (sdk.Context, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if !app.initialized {
		return sdk.Context{}, fmt.Errorf("engine is not initialized")
	}
	if app.blockOpen {
		return sdk.Context{}, fmt.Errorf("block %d is still open", app.ctx.BlockHeight())
	}
	if blockTime.Before(app.lastBlock) {
		return sdk.Context{}, fmt.Errorf("block time %s before previous block %s",
			blockTime.UTC().Format(time.RFC3339), app.lastBlock.UTC().Format(time.RFC3339))
	}

	app.deliver = app.cms.CacheMultiStore()
	app.ctx = app.newContext(app.deliver, blockTime)
	app.blockOpen = true
	return app.ctx, nil
}

// Settle settles one transition in the open block.
func (app *SettlementApp) Settle(ctx context.Context, tx *settlementtypes.Transition) (settlementtypes.Receipt, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if !app.blockOpen {
		return settlementtypes.Receipt{}, ErrNoOpenBlock
	}

	_, span := otel.Tracer(Name).Start(ctx, "settlement.settle")
	defer span.End()
	if tx != nil && tx.Intent != nil {
		span.SetAttributes(
			attribute.String("settlement.operation", tx.Intent.Kind().String()),
			attribute.Int64("block.height", app.ctx.BlockHeight()),
		)
	}

	receipt, err := app.SettlementKeeper.Settle(app.ctx, tx)
	if err != nil {
		span.SetStatus(codes.Error, settlementtypes.RejectionTag(err))
		span.RecordError(err)
		return receipt, err
	}
	span.SetAttributes(
		attribute.String("settlement.pool", receipt.PoolIdentity),
		attribute.Int64("settlement.version", int64(receipt.Version)),
	)
	return receipt, nil
}

// TransferLP moves LP tokens between holders within the open block. Pools are
// untouched; a holder may only burn what it holds, so a transfer changes who
// can withdraw.
func (app *SettlementApp) TransferLP(denom, from, to string, amount math.Int) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if !app.blockOpen {
		return ErrNoOpenBlock
	}

	cacheCtx, write := app.ctx.CacheContext()
	if err := app.SupplyKeeper.Transfer(cacheCtx, denom, from, to, amount); err != nil {
		return err
	}
	write()
	app.logger.Debug("lp transferred", "denom", denom, "from", from, "to", to, "amount", amount)
	return nil
}

// EndBlock prunes expired freshness markers and, every InvariantCheckPeriod
// blocks, asserts the registered invariants. Only a broken invariant fails
// the block; the caller must then AbortBlock instead of committing it.
func (app *SettlementApp) EndBlock() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if !app.blockOpen {
		return ErrNoOpenBlock
	}

	// a pruning failure leaves markers for the next block
	params := app.SettlementKeeper.GetParams(app.ctx)
	pruned, err := app.SupplyKeeper.PruneMarkers(app.ctx, params.MarkerTTLSeconds, app.config.PruneBatch)
	handler := abci.NewBlockerErrorHandler(app.ctx, lpsupplytypes.ModuleName)
	if !handler.Handle("prune_markers", abci.SeverityMedium, err) && pruned > 0 {
		app.logger.Debug("pruned freshness markers", "count", pruned, "height", app.ctx.BlockHeight())
	}

	period := int64(app.config.InvariantCheckPeriod)
	if period > 0 && app.ctx.BlockHeight()%period == 0 {
		if msg, broken := app.invariants.assert(app.ctx); broken {
			app.logger.Error("settlement invariant broken", "fault", "internal", "height", app.ctx.BlockHeight(), "msg", msg)
			return errorsmod.Wrap(ErrInvariantBroken, msg)
		}
	}
	return nil
}

// Commit writes the open block and persists a new store version.
func (app *SettlementApp) Commit() (storetypes.CommitID, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if !app.blockOpen {
		return storetypes.CommitID{}, ErrNoOpenBlock
	}

	app.deliver.Write()
	commit := app.cms.Commit()
	app.lastBlock = app.ctx.BlockTime()
	app.deliver = nil
	app.ctx = sdk.Context{}
	app.blockOpen = false

	app.logger.Debug("block committed", "version", commit.Version)
	return commit, nil
}

// AbortBlock discards the open block. Nothing settled in it is persisted and
// the next BeginBlock starts from the last committed version. EndBlock
// failures are recovered this way.
func (app *SettlementApp) AbortBlock() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if !app.blockOpen {
		return ErrNoOpenBlock
	}

	height := app.ctx.BlockHeight()
	app.deliver = nil
	app.ctx = sdk.Context{}
	app.blockOpen = false

	app.logger.Info("block aborted", "height", height)
	return nil
}

// QueryContext returns a read-only context over the last committed state.
// Writes through it are discarded.
func (app *SettlementApp) QueryContext() sdk.Context {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.newContext(app.cms.CacheMultiStore(), app.lastBlock)
}

// CheckInvariants runs every registered invariant against the committed state.
func (app *SettlementApp) CheckInvariants() (string, bool) {
	ctx := app.QueryContext()
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.invariants.assert(ctx)
}

// Close releases the database.
func (app *SettlementApp) Close() error {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.db.Close()
}

// invariantRegistry collects the invariants registered by the modules.
type invariantRegistry struct {
	routes []invariantRoute
}

type invariantRoute struct {
	module string
	route  string
	inv    sdk.Invariant
}

var _ sdk.InvariantRegistry = (*invariantRegistry)(nil)

func (r *invariantRegistry) RegisterRoute(moduleName, route string, invar sdk.Invariant) {
	r.routes = append(r.routes, invariantRoute{module: moduleName, route: route, inv: invar})
}

// assert runs every route and concatenates the messages of the broken ones.
func (r *invariantRegistry) assert(ctx sdk.Context) (string, bool) {
	var (
		msg    string
		broken bool
	)
	for _, route := range r.routes {
		res, stop := route.inv(ctx)
		if stop {
			broken = true
			msg += res
		}
	}
	return msg, broken
}

// Routes returns the registered invariant routes as module/route names.
func (app *SettlementApp) Routes() []string {
	names := make([]string, 0, len(app.invariants.routes))
	for _, route := range app.invariants.routes {
		names = append(names, route.module+"/"+route.route)
	}
	return names
}
