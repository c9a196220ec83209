package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"
	"gopkg.in/yaml.v2"

	"github.com/paw-chain/settlement/app"
	lpsupplytypes "github.com/paw-chain/settlement/x/lpsupply/types"
	"github.com/paw-chain/settlement/x/settlement/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

const (
	// ExpectOK is the expectation of a step that must settle
	ExpectOK = "ok"

	defaultInitiator     = "paw1simulator000000000000000000000000000000"
	defaultBlockInterval = 5 * time.Second
	defaultSwapDeadline  = time.Minute
)

// ErrExpectationFailed is returned when a step settles differently than its
// scenario expects.
var ErrExpectationFailed = errors.New("scenario expectation failed")

// Scenario is a scripted sequence of blocks settled against one pool.
type Scenario struct {
	// The name of the scenario.
	Name string `yaml:"name"`
	// A description of the scenario.
	Description string `yaml:"description"`
	// Initiator of every transition. Defaults to a fixed simulator address.
	Initiator string `yaml:"initiator"`
	// RFC3339 time of genesis and of the pool creation block.
	StartTime string `yaml:"start_time"`
	// The pool created before the first block.
	Pool PoolSpec `yaml:"pool"`
	// Blocks settled in order after the pool creation.
	Blocks []Block `yaml:"blocks"`
}

// PoolSpec describes the pool a scenario creates. Without seed amounts the
// pool is created empty.
type PoolSpec struct {
	Identity   string `yaml:"identity"`
	QuoteAsset string `yaml:"quote_asset"`
	LPAsset    string `yaml:"lp_asset"`
	FeeBps     uint16 `yaml:"fee_bps"`
	SeedBase   string `yaml:"seed_base"`
	SeedQuote  string `yaml:"seed_quote"`
}

// Block is one block of steps. Advance is added to the previous block time.
type Block struct {
	Advance string `yaml:"advance"`
	Steps   []Step `yaml:"steps"`
}

// Step is one transition. Exactly one operation must be set.
type Step struct {
	Description string        `yaml:"description"`
	Swap        *SwapStep     `yaml:"swap,omitempty"`
	Provide     *ProvideStep  `yaml:"provide,omitempty"`
	Withdraw    *WithdrawStep `yaml:"withdraw,omitempty"`
	Transfer    *TransferStep `yaml:"transfer,omitempty"`
	// Version consumes this pool version instead of the live one.
	Version uint64 `yaml:"version,omitempty"`
	// Issuance overrides the LP amount of the issuance directive.
	Issuance string `yaml:"issuance,omitempty"`
	// Authorized signs the transition with the configured authority.
	Authorized bool `yaml:"authorized,omitempty"`
	// Expect is "ok" or the rejection tag the step must fail with.
	Expect string `yaml:"expect,omitempty"`
}

type SwapStep struct {
	Direction string `yaml:"direction"`
	AmountIn  string `yaml:"amount_in"`
	MinOut    string `yaml:"min_out"`
	// Deadline relative to the block time.
	Deadline string `yaml:"deadline"`
}

type ProvideStep struct {
	Base            string `yaml:"base"`
	Quote           string `yaml:"quote"`
	MinLPOut        string `yaml:"min_lp_out"`
	MaxDeviationBps uint32 `yaml:"max_deviation_bps"`
	Initial         bool   `yaml:"initial"`
}

type WithdrawStep struct {
	LP        string `yaml:"lp"`
	MinBase   string `yaml:"min_base"`
	MinQuote  string `yaml:"min_quote"`
	Emergency bool   `yaml:"emergency"`
}

// TransferStep moves pool LP tokens from the scenario initiator to another
// holder. It settles no transition.
type TransferStep struct {
	To string `yaml:"to"`
	LP string `yaml:"lp"`
}

// StepResult is the outcome of one settled or rejected step.
type StepResult struct {
	Block       int            `json:"block"`
	Step        int            `json:"step"`
	Description string         `json:"description,omitempty"`
	Operation   string         `json:"operation"`
	Marker      string         `json:"marker"`
	Status      string         `json:"status"`
	Reason      string         `json:"reason,omitempty"`
	Error       string         `json:"error,omitempty"`
	Expected    string         `json:"expected"`
	Receipt     *types.Receipt `json:"receipt,omitempty"`
}

// Matched reports whether the step ended as its scenario expected.
func (r StepResult) Matched() bool {
	if r.Expected == ExpectOK {
		return r.Status == ExpectOK
	}
	return r.Reason == r.Expected
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (Scenario, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(bz)
}

// ParseScenario decodes and checks a YAML scenario.
func ParseScenario(bz []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.UnmarshalStrict(bz, &sc); err != nil {
		return Scenario{}, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if sc.Initiator == "" {
		sc.Initiator = defaultInitiator
	}
	if sc.Pool.Identity == "" {
		return Scenario{}, errors.New("scenario pool identity is required")
	}
	if _, err := sc.startTime(); err != nil {
		return Scenario{}, err
	}
	for i, block := range sc.Blocks {
		if _, err := block.advance(); err != nil {
			return Scenario{}, fmt.Errorf("block %d: %w", i+1, err)
		}
		for j, step := range block.Steps {
			ops := 0
			for _, set := range []bool{step.Swap != nil, step.Provide != nil, step.Withdraw != nil, step.Transfer != nil} {
				if set {
					ops++
				}
			}
			if ops != 1 {
				return Scenario{}, fmt.Errorf("block %d step %d: exactly one operation is required, got %d", i+1, j+1, ops)
			}
		}
	}
	return sc, nil
}

func (sc Scenario) startTime() (time.Time, error) {
	if sc.StartTime == "" {
		return time.Unix(1_700_000_000, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, sc.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time %q: %w", sc.StartTime, err)
	}
	return t.UTC(), nil
}

func (b Block) advance() (time.Duration, error) {
	if b.Advance == "" {
		return defaultBlockInterval, nil
	}
	d, err := time.ParseDuration(b.Advance)
	if err != nil {
		return 0, fmt.Errorf("invalid advance %q: %w", b.Advance, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative advance %s", d)
	}
	return d, nil
}

// Simulator settles scenarios on an engine.
type Simulator struct {
	engine    *app.SettlementApp
	logger    log.Logger
	authority string
}

// NewSimulator returns a simulator over an initialized engine.
func NewSimulator(engine *app.SettlementApp, logger log.Logger, authority string) *Simulator {
	return &Simulator{engine: engine, logger: logger, authority: authority}
}

// Run creates the scenario pool unless it already exists, then settles every
// block. A step that ends differently than expected is reported in the results
// and makes Run return ErrExpectationFailed once all blocks are settled.
func (s *Simulator) Run(ctx context.Context, sc Scenario) ([]StepResult, error) {
	if !s.engine.Initialized() {
		return nil, errors.New("engine is not initialized")
	}
	blockTime, err := sc.startTime()
	if err != nil {
		return nil, err
	}
	if last := s.engine.LastBlockTime(); last.After(blockTime) {
		blockTime = last
	}

	if !s.engine.SettlementKeeper.HasPool(s.engine.QueryContext(), sc.Pool.Identity) {
		if err := s.createPool(ctx, sc, blockTime); err != nil {
			return nil, err
		}
	}

	var (
		results []StepResult
		failed  int
	)
	for i, block := range sc.Blocks {
		advance, err := block.advance()
		if err != nil {
			return results, err
		}
		blockTime = blockTime.Add(advance)

		blockCtx, err := s.engine.BeginBlock(blockTime)
		if err != nil {
			return results, err
		}
		for j, step := range block.Steps {
			res := s.settleStep(ctx, blockCtx, sc, step)
			res.Block, res.Step = i+1, j+1
			if !res.Matched() {
				failed++
				s.logger.Error("scenario step mismatch", "block", res.Block, "step", res.Step,
					"expected", res.Expected, "status", res.Status, "reason", res.Reason)
			}
			results = append(results, res)
		}
		if err := s.finishBlock(); err != nil {
			return results, err
		}
	}

	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d steps", ErrExpectationFailed, failed, len(results))
	}
	return results, nil
}

func (s *Simulator) createPool(ctx context.Context, sc Scenario, blockTime time.Time) error {
	seedBase, err := parseAmount("seed base", sc.Pool.SeedBase)
	if err != nil {
		return err
	}
	seedQuote, err := parseAmount("seed quote", sc.Pool.SeedQuote)
	if err != nil {
		return err
	}
	intent := types.CreatePoolIntent{
		PoolIdentity: sc.Pool.Identity,
		QuoteAssetID: sc.Pool.QuoteAsset,
		LPAssetID:    sc.Pool.LPAsset,
		FeeBps:       sc.Pool.FeeBps,
		SeedBase:     seedBase,
		SeedQuote:    seedQuote,
		MinLPOut:     math.ZeroInt(),
	}
	tx := &types.Transition{
		Marker:    newMarker(),
		Initiator: sc.Initiator,
		Intent:    intent,
	}

	blockCtx, err := s.engine.BeginBlock(blockTime)
	if err != nil {
		return err
	}
	if intent.IsSeeded() {
		outcome, err := keeper.ComputeCreation(s.engine.SettlementKeeper.GetParams(blockCtx), intent)
		if err != nil {
			_ = s.engine.AbortBlock()
			return fmt.Errorf("invalid scenario pool: %w", err)
		}
		tx.Issuance = []types.IssuanceDirective{lpDirective(sc.Pool.LPAsset, types.IssuanceMint, outcome.LPMinted)}
	}
	receipt, err := s.engine.Settle(ctx, tx)
	if err != nil {
		_ = s.engine.AbortBlock()
		return fmt.Errorf("failed to create pool %s: %w", sc.Pool.Identity, err)
	}
	if err := s.finishBlock(); err != nil {
		return err
	}
	s.logger.Info("scenario pool created", "pool", receipt.PoolIdentity, "lp_minted", receipt.LPMinted)
	return nil
}

// finishBlock ends and commits the open block, discarding it if EndBlock fails.
func (s *Simulator) finishBlock() error {
	if err := s.engine.EndBlock(); err != nil {
		if abortErr := s.engine.AbortBlock(); abortErr != nil {
			return errors.Join(err, abortErr)
		}
		return err
	}
	_, err := s.engine.Commit()
	return err
}

func (s *Simulator) settleStep(ctx context.Context, blockCtx sdk.Context, sc Scenario, step Step) StepResult {
	res := StepResult{Description: step.Description, Expected: step.Expect}
	if res.Expected == "" {
		res.Expected = ExpectOK
	}
	if step.Transfer != nil {
		return s.transferStep(res, sc, step.Transfer)
	}

	tx, err := s.buildTransition(blockCtx, sc, step)
	if tx != nil {
		res.Marker = string(tx.Marker)
		res.Operation = tx.Intent.Kind().String()
	}
	if err == nil {
		var receipt types.Receipt
		receipt, err = s.engine.Settle(ctx, tx)
		if err == nil {
			res.Status = ExpectOK
			res.Receipt = &receipt
			return res
		}
	}

	res.Status = "rejected"
	res.Reason = types.RejectionTag(err)
	res.Error = err.Error()
	return res
}

func (s *Simulator) transferStep(res StepResult, sc Scenario, step *TransferStep) StepResult {
	res.Operation = "transfer"
	amount, err := parseAmount("lp", step.LP)
	if err == nil {
		err = s.engine.TransferLP(sc.Pool.LPAsset, sc.Initiator, step.To, amount)
	}
	if err != nil {
		res.Status = "rejected"
		res.Reason = types.RejectionTag(err)
		res.Error = err.Error()
		return res
	}
	res.Status = ExpectOK
	return res
}

// buildTransition turns a step into a transition against the live pool of the
// open block. LP directives are derived from a simulation of the step unless
// the step overrides them.
func (s *Simulator) buildTransition(blockCtx sdk.Context, sc Scenario, step Step) (*types.Transition, error) {
	tx := &types.Transition{
		Marker:    newMarker(),
		Initiator: sc.Initiator,
	}
	if step.Authorized {
		tx.Authority = s.authority
	}

	version := step.Version
	if version == 0 {
		live, err := s.engine.SettlementKeeper.GetLivePool(blockCtx, sc.Pool.Identity)
		if err != nil {
			tx.Intent = stepKind(step)
			return tx, err
		}
		version = live.Version
	}
	tx.Consumes = []types.EntryRef{{PoolIdentity: sc.Pool.Identity, Version: version}}

	var (
		kind   types.IssuanceKind
		amount math.Int
	)
	switch {
	case step.Swap != nil:
		intent, err := step.Swap.intent(blockCtx.BlockTime())
		tx.Intent = intent
		if err != nil {
			return tx, err
		}
	case step.Provide != nil:
		intent, err := step.Provide.intent()
		tx.Intent = intent
		if err != nil {
			return tx, err
		}
		kind = types.IssuanceMint
		if outcome, err := s.engine.SettlementKeeper.SimulateProvision(blockCtx, sc.Pool.Identity, intent); err == nil {
			amount = outcome.LPMinted
		}
	case step.Withdraw != nil:
		intent, err := step.Withdraw.intent()
		tx.Intent = intent
		if err != nil {
			return tx, err
		}
		kind, amount = types.IssuanceBurn, intent.LPAmountToBurn
	}

	if step.Issuance != "" {
		override, err := parseAmount("issuance", step.Issuance)
		if err != nil {
			return tx, err
		}
		amount = override
	}
	if kind != types.IssuanceNone && !amount.IsNil() && amount.IsPositive() {
		tx.Issuance = []types.IssuanceDirective{lpDirective(sc.Pool.LPAsset, kind, amount)}
	}
	return tx, nil
}

// stepKind returns a zero intent of the step's operation for reporting.
func stepKind(step Step) types.Intent {
	switch {
	case step.Swap != nil:
		return types.SwapIntent{}
	case step.Provide != nil:
		return types.ProvideLiquidityIntent{}
	default:
		return types.WithdrawLiquidityIntent{}
	}
}

func (s *SwapStep) intent(blockTime time.Time) (types.SwapIntent, error) {
	direction, err := types.ParseSwapDirection(s.Direction)
	if err != nil {
		return types.SwapIntent{}, errorsmod.Wrap(types.ErrInvalidTransition, err.Error())
	}
	amountIn, err := parseAmount("amount in", s.AmountIn)
	if err != nil {
		return types.SwapIntent{}, err
	}
	minOut, err := parseAmount("min out", s.MinOut)
	if err != nil {
		return types.SwapIntent{}, err
	}
	deadline := defaultSwapDeadline
	if s.Deadline != "" {
		if deadline, err = time.ParseDuration(s.Deadline); err != nil {
			return types.SwapIntent{}, errorsmod.Wrapf(types.ErrInvalidTransition, "invalid deadline %q", s.Deadline)
		}
	}
	return types.SwapIntent{
		Direction: direction,
		AmountIn:  amountIn,
		MinOut:    minOut,
		Deadline:  blockTime.Add(deadline),
	}, nil
}

func (p *ProvideStep) intent() (types.ProvideLiquidityIntent, error) {
	base, err := parseAmount("base", p.Base)
	if err != nil {
		return types.ProvideLiquidityIntent{}, err
	}
	quote, err := parseAmount("quote", p.Quote)
	if err != nil {
		return types.ProvideLiquidityIntent{}, err
	}
	minLPOut, err := parseAmount("min lp out", p.MinLPOut)
	if err != nil {
		return types.ProvideLiquidityIntent{}, err
	}
	return types.ProvideLiquidityIntent{
		BaseAmount:           base,
		QuoteAmount:          quote,
		MinLPOut:             minLPOut,
		MaxRatioDeviationBps: p.MaxDeviationBps,
		IsInitial:            p.Initial,
	}, nil
}

func (w *WithdrawStep) intent() (types.WithdrawLiquidityIntent, error) {
	lp, err := parseAmount("lp", w.LP)
	if err != nil {
		return types.WithdrawLiquidityIntent{}, err
	}
	minBase, err := parseAmount("min base", w.MinBase)
	if err != nil {
		return types.WithdrawLiquidityIntent{}, err
	}
	minQuote, err := parseAmount("min quote", w.MinQuote)
	if err != nil {
		return types.WithdrawLiquidityIntent{}, err
	}
	return types.WithdrawLiquidityIntent{
		LPAmountToBurn: lp,
		MinBaseOut:     minBase,
		MinQuoteOut:    minQuote,
		IsEmergency:    w.Emergency,
	}, nil
}

func lpDirective(denom string, kind types.IssuanceKind, amount math.Int) types.IssuanceDirective {
	return types.IssuanceDirective{Policy: lpsupplytypes.ModuleName, Denom: denom, Kind: kind, Amount: amount}
}

func newMarker() []byte {
	return []byte(uuid.NewString())
}
