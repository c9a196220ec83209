package keeper

import (
	"encoding/hex"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	sharedkeeper "github.com/paw-chain/settlement/x/shared/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

// Settle evaluates one transition atomically. The pool-state validator and the
// LP supply policy judge it independently inside a branched store; only when
// both accept, and their issuance terms agree exactly, is the branch written.
// On any error nothing is written.
func (k Keeper) Settle(ctx sdk.Context, tx *types.Transition) (receipt types.Receipt, err error) {
	start := time.Now()
	kind := types.OpUnspecified
	if tx != nil && tx.Intent != nil {
		kind = tx.Intent.Kind()
	}
	defer func() {
		k.observe(ctx, tx, kind, start, err)
	}()

	if err := tx.ValidateBasic(); err != nil {
		return types.Receipt{}, err
	}
	params := k.GetParams(ctx)

	cacheCtx, write := ctx.CacheContext()
	txc := types.NewTxContext(tx)

	receipt, err = k.validatePoolTransition(cacheCtx, params, txc)
	if err != nil {
		return types.Receipt{}, err
	}

	grant, err := k.supplyKeeper.AuthorizeIssuance(cacheCtx, txc)
	if err != nil {
		return types.Receipt{}, err
	}
	if !txc.Authorization().Equal(grant.IssuanceTerms) {
		return types.Receipt{}, errorsmod.Wrapf(types.ErrUnauthorizedIssuance,
			"pool authorization %s %s does not match supply grant %s %s",
			txc.Authorization().Kind, txc.Authorization().Amount, grant.Kind, grant.Amount)
	}

	snap, err := k.commitPool(cacheCtx, txc)
	if err != nil {
		return types.Receipt{}, err
	}
	if err := k.supplyKeeper.ApplyIssuance(cacheCtx, txc, grant); err != nil {
		return types.Receipt{}, err
	}

	receipt.Version = snap.Version
	receipt.Successor = snap.State
	k.emitSettled(cacheCtx, tx, receipt)
	write()

	k.observePool(receipt)
	return receipt, nil
}

// validatePoolTransition is the pool-state validator: it resolves the consumed
// entry, computes the successor and records both, together with the LP amount
// the successor accounts for, on the transaction context.
func (k Keeper) validatePoolTransition(ctx sdk.Context, params types.Params, txc *types.TxContext) (types.Receipt, error) {
	tx := txc.Transition()

	if create, ok := tx.Intent.(types.CreatePoolIntent); ok {
		if k.HasPool(ctx, create.PoolIdentity) {
			return types.Receipt{}, errorsmod.Wrapf(types.ErrPoolAlreadyExists, "pool %s", create.PoolIdentity)
		}
		outcome, err := ComputeCreation(params, create)
		if err != nil {
			return types.Receipt{}, err
		}
		receipt := types.NewReceipt(types.OpCreatePool, outcome.Successor, 0)
		receipt.BaseIn, receipt.QuoteIn, receipt.LPMinted = outcome.BaseIn, outcome.QuoteIn, outcome.LPMinted
		auth := authorizationFor(tx.Marker, outcome.Successor, outcome.LPMinted, types.IssuanceMint)
		return receipt, txc.RecordPoolTransition(nil, outcome.Successor, auth)
	}

	consumed, err := k.loadConsumable(ctx, tx.Consumes[0])
	if err != nil {
		return types.Receipt{}, err
	}
	pool := consumed.State

	var (
		receipt types.Receipt
		auth    types.IssuanceAuthorization
	)
	switch intent := tx.Intent.(type) {
	case types.SwapIntent:
		outcome, err := ComputeSwap(params, pool, intent, ctx.BlockTime())
		if err != nil {
			return types.Receipt{}, err
		}
		receipt = types.NewReceipt(types.OpSwap, outcome.Successor, 0)
		if outcome.Direction == types.BaseToQuote {
			receipt.BaseIn, receipt.QuoteOut = outcome.AmountIn, outcome.AmountOut
		} else {
			receipt.QuoteIn, receipt.BaseOut = outcome.AmountIn, outcome.AmountOut
		}
		auth = authorizationFor(tx.Marker, outcome.Successor, math.ZeroInt(), types.IssuanceNone)
		k.observeSwapMargin(outcome, intent)

	case types.ProvideLiquidityIntent:
		outcome, err := ComputeProvision(params, pool, intent)
		if err != nil {
			return types.Receipt{}, err
		}
		receipt = types.NewReceipt(types.OpProvideLiquidity, outcome.Successor, 0)
		receipt.BaseIn, receipt.QuoteIn, receipt.LPMinted = outcome.BaseIn, outcome.QuoteIn, outcome.LPMinted
		auth = authorizationFor(tx.Marker, outcome.Successor, outcome.LPMinted, types.IssuanceMint)
		k.metrics.ProvisionSkew.Observe(toFloat(outcome.DeviationBps))

	case types.WithdrawLiquidityIntent:
		if intent.IsEmergency {
			if err := sharedkeeper.ValidateAuthority(k.authority, tx.Authority); err != nil {
				return types.Receipt{}, errorsmod.Wrapf(types.ErrUnauthorized, "emergency withdrawal: %v", err)
			}
		}
		outcome, err := ComputeWithdrawal(params, pool, intent)
		if err != nil {
			return types.Receipt{}, err
		}
		receipt = types.NewReceipt(types.OpWithdrawLiquidity, outcome.Successor, 0)
		receipt.BaseOut, receipt.QuoteOut, receipt.LPBurned = outcome.BaseOut, outcome.QuoteOut, outcome.LPBurned
		auth = authorizationFor(tx.Marker, outcome.Successor, outcome.LPBurned, types.IssuanceBurn)

	default:
		return types.Receipt{}, errorsmod.Wrapf(types.ErrInvalidTransition, "unsupported intent %T", tx.Intent)
	}

	return receipt, txc.RecordPoolTransition(&consumed, receipt.Successor, auth)
}

// authorizationFor binds an LP supply change to the pool and the transition.
func authorizationFor(marker []byte, successor types.PoolState, amount math.Int, kind types.IssuanceKind) types.IssuanceAuthorization {
	if amount.IsNil() || amount.IsZero() {
		kind = types.IssuanceNone
		amount = math.ZeroInt()
	}
	return types.IssuanceAuthorization{IssuanceTerms: types.IssuanceTerms{
		PoolIdentity: successor.PoolIdentity,
		Denom:        successor.LPAssetID,
		Kind:         kind,
		Amount:       amount,
		Marker:       append([]byte(nil), marker...),
	}}
}

// commitPool writes the successor recorded on txc as the new live snapshot.
func (k Keeper) commitPool(ctx sdk.Context, txc *types.TxContext) (types.PoolSnapshot, error) {
	produced := txc.Produced()
	if len(produced) != 1 {
		return types.PoolSnapshot{}, errorsmod.Wrapf(types.ErrInvalidTransition, "expected one produced pool entry, got %d", len(produced))
	}
	if txc.IsCreation() {
		return k.insertPool(ctx, produced[0])
	}
	consumed := txc.Consumed()
	if len(consumed) != 1 {
		return types.PoolSnapshot{}, errorsmod.Wrapf(types.ErrInvalidTransition, "expected one consumed pool entry, got %d", len(consumed))
	}
	return k.replacePool(ctx, consumed[0], produced[0], txc.Transition().Marker)
}

func (k Keeper) emitSettled(ctx sdk.Context, tx *types.Transition, receipt types.Receipt) {
	state := receipt.Successor
	common := []sdk.Attribute{
		sdk.NewAttribute(types.AttributeKeyPoolIdentity, state.PoolIdentity),
		sdk.NewAttribute(types.AttributeKeyVersion, fmt.Sprintf("%d", receipt.Version)),
		sdk.NewAttribute(types.AttributeKeyInitiator, tx.Initiator),
		sdk.NewAttribute(types.AttributeKeyMarker, hex.EncodeToString(tx.Marker)),
		sdk.NewAttribute(types.AttributeKeyBaseReserve, state.BaseReserve.String()),
		sdk.NewAttribute(types.AttributeKeyQuoteReserve, state.QuoteReserve.String()),
		sdk.NewAttribute(types.AttributeKeyLPSupply, state.LPSupply.String()),
	}

	var event sdk.Event
	switch intent := tx.Intent.(type) {
	case types.CreatePoolIntent:
		event = sdk.NewEvent(types.EventTypePoolCreated, common...)
		event = event.AppendAttributes(sdk.NewAttribute(types.AttributeKeyLPAmount, receipt.LPMinted.String()))
	case types.SwapIntent:
		amountIn, amountOut := receipt.BaseIn, receipt.QuoteOut
		if intent.Direction == types.QuoteToBase {
			amountIn, amountOut = receipt.QuoteIn, receipt.BaseOut
		}
		event = sdk.NewEvent(types.EventTypeSwap, common...)
		event = event.AppendAttributes(
			sdk.NewAttribute(types.AttributeKeyDirection, intent.Direction.String()),
			sdk.NewAttribute(types.AttributeKeyAmountIn, amountIn.String()),
			sdk.NewAttribute(types.AttributeKeyAmountOut, amountOut.String()),
		)
	case types.ProvideLiquidityIntent:
		event = sdk.NewEvent(types.EventTypeProvide, common...)
		event = event.AppendAttributes(
			sdk.NewAttribute(types.AttributeKeyBaseAmount, receipt.BaseIn.String()),
			sdk.NewAttribute(types.AttributeKeyQuoteAmount, receipt.QuoteIn.String()),
			sdk.NewAttribute(types.AttributeKeyLPAmount, receipt.LPMinted.String()),
		)
	case types.WithdrawLiquidityIntent:
		event = sdk.NewEvent(types.EventTypeWithdraw, common...)
		event = event.AppendAttributes(
			sdk.NewAttribute(types.AttributeKeyBaseAmount, receipt.BaseOut.String()),
			sdk.NewAttribute(types.AttributeKeyQuoteAmount, receipt.QuoteOut.String()),
			sdk.NewAttribute(types.AttributeKeyLPAmount, receipt.LPBurned.String()),
			sdk.NewAttribute(types.AttributeKeyEmergency, fmt.Sprintf("%t", intent.IsEmergency)),
		)
	}
	ctx.EventManager().EmitEvent(event)

	if receipt.Version > 1 {
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeEntrySpent,
			sdk.NewAttribute(types.AttributeKeyPoolIdentity, state.PoolIdentity),
			sdk.NewAttribute(types.AttributeKeySpentVersion, fmt.Sprintf("%d", receipt.Version-1)),
		))
	}
}

// observe records the outcome of Settle. Rejections are expected traffic and
// log at debug; an invariant violation is an engine fault and logs at error.
func (k Keeper) observe(ctx sdk.Context, tx *types.Transition, kind types.OperationKind, start time.Time, err error) {
	op := kind.String()
	k.metrics.SettlementDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err == nil {
		k.metrics.TransitionsTotal.WithLabelValues(op, "accepted").Inc()
		return
	}

	reason := types.RejectionTag(err)
	k.metrics.TransitionsTotal.WithLabelValues(op, "rejected").Inc()
	k.metrics.RejectionsTotal.WithLabelValues(op, reason).Inc()

	var pool, initiator string
	if tx != nil {
		initiator = tx.Initiator
		if len(tx.Consumes) > 0 {
			pool = tx.Consumes[0].PoolIdentity
		} else if create, ok := tx.Intent.(types.CreatePoolIntent); ok {
			pool = create.PoolIdentity
		}
	}

	if types.IsInvariantViolation(err) {
		k.metrics.InvariantFaults.WithLabelValues(op).Inc()
		k.Logger(ctx).Error("settlement invariant violated",
			"fault", "internal",
			"operation", op,
			"pool", pool,
			"initiator", initiator,
			"error", err,
		)
		return
	}
	k.Logger(ctx).Debug("transition rejected",
		"operation", op,
		"pool", pool,
		"initiator", initiator,
		"reason", reason,
		"error", err,
	)
}

func (k Keeper) observePool(receipt types.Receipt) {
	state := receipt.Successor
	k.metrics.PoolReserves.WithLabelValues(state.PoolIdentity, "base").Set(toFloat(state.BaseReserve))
	k.metrics.PoolReserves.WithLabelValues(state.PoolIdentity, "quote").Set(toFloat(state.QuoteReserve))
	k.metrics.LPSupply.WithLabelValues(state.PoolIdentity).Set(toFloat(state.LPSupply))
	k.metrics.PoolVersion.WithLabelValues(state.PoolIdentity).Set(float64(receipt.Version))
	if receipt.Kind == types.OpCreatePool {
		k.metrics.PoolsCreated.Inc()
	}
}

func (k Keeper) observeSwapMargin(outcome types.SwapOutcome, intent types.SwapIntent) {
	if !outcome.AmountOut.IsPositive() {
		return
	}
	margin := outcome.AmountOut.Sub(intent.MinOut).MulRaw(int64(types.BasisPointsDenominator)).Quo(outcome.AmountOut)
	k.metrics.SwapSlippage.Observe(toFloat(margin))
}
