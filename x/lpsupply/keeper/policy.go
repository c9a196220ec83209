package keeper

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/lpsupply/types"
	settlementtypes "github.com/paw-chain/settlement/x/settlement/types"
)

func unauthorized(format string, args ...interface{}) error {
	return errorsmod.Wrapf(settlementtypes.ErrUnauthorizedIssuance, format, args...)
}

// AuthorizeIssuance is the supply-control policy's independent judgement of a
// transition. It recomputes the LP supply change from the consumed and produced
// pool states and grants it only if
//
//	(a) exactly one entry of the pool bound to the LP denom is replaced, or a new
//	    pool with an unbound denom is created;
//	(b) the change equals both the client's directive and the pool validator's
//	    authorization;
//	(c) there is at most one directive, it names this policy and the pool's LP
//	    denom, and a transition without supply change carries none;
//	(d) the transition's freshness marker has not been consumed.
func (k Keeper) AuthorizeIssuance(ctx sdk.Context, txc *settlementtypes.TxContext) (settlementtypes.IssuanceGrant, error) {
	tx := txc.Transition()
	if tx == nil {
		return settlementtypes.IssuanceGrant{}, unauthorized("no transition")
	}

	// (d)
	if err := k.markers.CheckFresh(ctx, tx.Marker); err != nil {
		return settlementtypes.IssuanceGrant{}, err
	}
	if !txc.Recorded() {
		return settlementtypes.IssuanceGrant{}, unauthorized("pool transition was not validated")
	}

	// (a)
	produced := txc.Produced()
	consumed := txc.Consumed()
	if len(produced) != 1 {
		return settlementtypes.IssuanceGrant{}, unauthorized("expected one produced pool entry, got %d", len(produced))
	}
	next := produced[0]
	denom := next.LPAssetID
	supply, bound := k.GetSupply(ctx, denom)

	prevSupply := math.ZeroInt()
	if txc.IsCreation() {
		if len(consumed) != 0 {
			return settlementtypes.IssuanceGrant{}, unauthorized("pool creation consumed %d entries", len(consumed))
		}
		if bound {
			return settlementtypes.IssuanceGrant{}, unauthorized("lp denom %s already bound to pool %s", denom, supply.PoolIdentity)
		}
	} else {
		if len(consumed) != 1 {
			return settlementtypes.IssuanceGrant{}, unauthorized("expected one consumed pool entry, got %d", len(consumed))
		}
		prev := consumed[0].State
		if prev.PoolIdentity != next.PoolIdentity || prev.LPAssetID != denom {
			return settlementtypes.IssuanceGrant{}, unauthorized("pool %s (%s) replaced by %s (%s)",
				prev.PoolIdentity, prev.LPAssetID, next.PoolIdentity, denom)
		}
		if !bound || supply.PoolIdentity != next.PoolIdentity {
			return settlementtypes.IssuanceGrant{}, unauthorized("lp denom %s is not bound to pool %s", denom, next.PoolIdentity)
		}
		if !supply.Outstanding.Equal(prev.LPSupply) {
			return settlementtypes.IssuanceGrant{}, errorsmod.Wrapf(settlementtypes.ErrInvariantViolation,
				"pool %s records lp supply %s, ledger has %s outstanding", prev.PoolIdentity, prev.LPSupply, supply.Outstanding)
		}
		prevSupply = prev.LPSupply
	}

	terms := settlementtypes.IssuanceTerms{
		PoolIdentity: next.PoolIdentity,
		Denom:        denom,
		Kind:         settlementtypes.IssuanceNone,
		Amount:       math.ZeroInt(),
		Marker:       append([]byte(nil), tx.Marker...),
	}
	switch delta := next.LPSupply.Sub(prevSupply); {
	case delta.IsPositive():
		terms.Kind, terms.Amount = settlementtypes.IssuanceMint, delta
	case delta.IsNegative():
		terms.Kind, terms.Amount = settlementtypes.IssuanceBurn, delta.Neg()
	}

	// (c)
	if len(tx.Issuance) > 1 {
		return settlementtypes.IssuanceGrant{}, unauthorized("%d issuance directives, at most one allowed", len(tx.Issuance))
	}
	if terms.IsEmpty() {
		if len(tx.Issuance) != 0 {
			d := tx.Issuance[0]
			return settlementtypes.IssuanceGrant{}, unauthorized("%s %s %s requested by a transition that changes no lp supply", d.Kind, d.Amount, d.Denom)
		}
	} else {
		if len(tx.Issuance) == 0 {
			return settlementtypes.IssuanceGrant{}, unauthorized("lp supply changes by %s %s without a directive", terms.Kind, terms.Amount)
		}
		d := tx.Issuance[0]
		if d.Policy != types.ModuleName {
			return settlementtypes.IssuanceGrant{}, unauthorized("directive names policy %q", d.Policy)
		}
		if d.Denom != denom {
			return settlementtypes.IssuanceGrant{}, unauthorized("directive denom %s, pool lp denom %s", d.Denom, denom)
		}
		// (b)
		if d.Kind != terms.Kind || d.Amount.IsNil() || !d.Amount.Equal(terms.Amount) {
			return settlementtypes.IssuanceGrant{}, unauthorized("directive %s %s, supply change %s %s", d.Kind, d.Amount, terms.Kind, terms.Amount)
		}
	}
	if auth := txc.Authorization(); !auth.Equal(terms) {
		return settlementtypes.IssuanceGrant{}, unauthorized("pool authorization %s %s, supply change %s %s", auth.Kind, auth.Amount, terms.Kind, terms.Amount)
	}

	return settlementtypes.IssuanceGrant{IssuanceTerms: terms}, nil
}

// ApplyIssuance executes a grant: binds a new pool's LP denom, mints to or burns
// from the initiator and consumes the transition's marker. The grant must match
// the pool validator's authorization exactly.
func (k Keeper) ApplyIssuance(ctx sdk.Context, txc *settlementtypes.TxContext, grant settlementtypes.IssuanceGrant) error {
	tx := txc.Transition()
	if tx == nil || !txc.Recorded() {
		return unauthorized("pool transition was not validated")
	}
	if !grant.Equal(txc.Authorization().IssuanceTerms) {
		return unauthorized("grant does not match the pool authorization")
	}
	if err := k.markers.Consume(ctx, tx.Marker); err != nil {
		return err
	}

	supply, bound := k.GetSupply(ctx, grant.Denom)
	if txc.IsCreation() {
		if bound {
			return unauthorized("lp denom %s already bound to pool %s", grant.Denom, supply.PoolIdentity)
		}
		supply = types.Supply{Denom: grant.Denom, PoolIdentity: grant.PoolIdentity, Outstanding: math.ZeroInt()}
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeLPBind,
			sdk.NewAttribute(types.AttributeKeyDenom, grant.Denom),
			sdk.NewAttribute(types.AttributeKeyPoolIdentity, grant.PoolIdentity),
		))
	} else if !bound || supply.PoolIdentity != grant.PoolIdentity {
		return unauthorized("lp denom %s is not bound to pool %s", grant.Denom, grant.PoolIdentity)
	}

	holder := tx.Initiator
	balance := k.GetBalance(ctx, grant.Denom, holder)
	var eventType string
	switch grant.Kind {
	case settlementtypes.IssuanceNone:
	case settlementtypes.IssuanceMint:
		supply.Outstanding = supply.Outstanding.Add(grant.Amount)
		balance = balance.Add(grant.Amount)
		eventType = types.EventTypeLPMint
	case settlementtypes.IssuanceBurn:
		if balance.LT(grant.Amount) {
			return unauthorized("%s holds %s %s, cannot burn %s", holder, balance, grant.Denom, grant.Amount)
		}
		if supply.Outstanding.LT(grant.Amount) {
			return errorsmod.Wrapf(settlementtypes.ErrInvariantViolation, "burn %s exceeds outstanding %s", grant.Amount, supply.Outstanding)
		}
		supply.Outstanding = supply.Outstanding.Sub(grant.Amount)
		balance = balance.Sub(grant.Amount)
		eventType = types.EventTypeLPBurn
	default:
		return unauthorized("unknown issuance kind %d", grant.Kind)
	}

	if err := k.setSupply(ctx, supply); err != nil {
		return err
	}
	if err := k.setBalance(ctx, grant.Denom, holder, balance); err != nil {
		return err
	}

	if eventType != "" {
		ctx.EventManager().EmitEvent(sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeyDenom, grant.Denom),
			sdk.NewAttribute(types.AttributeKeyPoolIdentity, grant.PoolIdentity),
			sdk.NewAttribute(types.AttributeKeyHolder, holder),
			sdk.NewAttribute(types.AttributeKeyAmount, grant.Amount.String()),
			sdk.NewAttribute(types.AttributeKeyOutstanding, supply.Outstanding.String()),
		))
	}
	return nil
}
