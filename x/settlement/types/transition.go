package types

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// MinMarkerLength and MaxMarkerLength bound the freshness marker of a transition
	MinMarkerLength = 16
	MaxMarkerLength = 64
)

// IssuanceKind is the direction of an LP token supply change.
type IssuanceKind uint8

const (
	IssuanceNone IssuanceKind = iota
	IssuanceMint
	IssuanceBurn
)

func (k IssuanceKind) String() string {
	switch k {
	case IssuanceMint:
		return "mint"
	case IssuanceBurn:
		return "burn"
	default:
		return "none"
	}
}

// IssuanceDirective is the client's request to run a minting policy inside the
// transition. It is only a claim; both validators check it independently.
type IssuanceDirective struct {
	Policy string       `json:"policy"`
	Denom  string       `json:"denom"`
	Kind   IssuanceKind `json:"kind"`
	Amount math.Int     `json:"amount"`
}

func (d IssuanceDirective) validateBasic() error {
	if d.Policy == "" {
		return errorsmod.Wrap(ErrInvalidTransition, "issuance directive without policy")
	}
	if err := sdk.ValidateDenom(d.Denom); err != nil {
		return errorsmod.Wrapf(ErrInvalidTransition, "issuance denom %q: %v", d.Denom, err)
	}
	if d.Kind != IssuanceMint && d.Kind != IssuanceBurn {
		return errorsmod.Wrapf(ErrInvalidTransition, "unknown issuance kind %d", d.Kind)
	}
	if err := ValidateUint128("issuance amount", d.Amount); err != nil {
		return err
	}
	if d.Amount.IsZero() {
		return errorsmod.Wrap(ErrInvalidAmount, "issuance amount must be positive")
	}
	return nil
}

// Transition is one atomic unit submitted to the engine. The initiator and
// authority fields are authenticated by the transaction assembly layer.
type Transition struct {
	Marker    []byte              `json:"marker"`
	Initiator string              `json:"initiator"`
	Authority string              `json:"authority,omitempty"`
	Consumes  []EntryRef          `json:"consumes"`
	Intent    Intent              `json:"intent"`
	Issuance  []IssuanceDirective `json:"issuance,omitempty"`
}

// ValidateBasic performs stateless checks.
func (t *Transition) ValidateBasic() error {
	if t == nil {
		return errorsmod.Wrap(ErrInvalidTransition, "nil transition")
	}
	if n := len(t.Marker); n < MinMarkerLength || n > MaxMarkerLength {
		return errorsmod.Wrapf(ErrInvalidTransition, "marker length %d outside [%d, %d]", n, MinMarkerLength, MaxMarkerLength)
	}
	if t.Initiator == "" {
		return errorsmod.Wrap(ErrInvalidTransition, "initiator is required")
	}
	if t.Intent == nil {
		return errorsmod.Wrap(ErrInvalidTransition, "intent is required")
	}
	if err := t.Intent.ValidateBasic(); err != nil {
		return err
	}

	if t.Intent.Kind() == OpCreatePool {
		if len(t.Consumes) != 0 {
			return errorsmod.Wrapf(ErrInvalidTransition, "pool creation consumes no entry, got %d", len(t.Consumes))
		}
	} else {
		if len(t.Consumes) != 1 {
			return errorsmod.Wrapf(ErrInvalidTransition, "%s must consume exactly one pool entry, got %d", t.Intent.Kind(), len(t.Consumes))
		}
		ref := t.Consumes[0]
		if err := sdk.ValidateDenom(ref.PoolIdentity); err != nil {
			return errorsmod.Wrapf(ErrInvalidTransition, "consumed pool identity %q: %v", ref.PoolIdentity, err)
		}
		if ref.Version == 0 {
			return errorsmod.Wrap(ErrInvalidTransition, "consumed entry version must be positive")
		}
	}

	for _, d := range t.Issuance {
		if err := d.validateBasic(); err != nil {
			return err
		}
	}
	return nil
}

// IssuanceTerms describe one LP supply change bound to one transition.
type IssuanceTerms struct {
	PoolIdentity string       `json:"pool_identity"`
	Denom        string       `json:"denom"`
	Kind         IssuanceKind `json:"kind"`
	Amount       math.Int     `json:"amount"`
	Marker       []byte       `json:"marker"`
}

// IsEmpty reports whether the terms change no supply.
func (t IssuanceTerms) IsEmpty() bool {
	return t.Kind == IssuanceNone
}

// Equal compares every field of two terms.
func (t IssuanceTerms) Equal(other IssuanceTerms) bool {
	if t.Kind != other.Kind || t.PoolIdentity != other.PoolIdentity || t.Denom != other.Denom ||
		!bytes.Equal(t.Marker, other.Marker) {
		return false
	}
	if t.Kind == IssuanceNone {
		return true
	}
	return !t.Amount.IsNil() && !other.Amount.IsNil() && t.Amount.Equal(other.Amount)
}

// IssuanceAuthorization is emitted by the pool-state validator: the exact LP
// amount its successor state accounts for.
type IssuanceAuthorization struct {
	IssuanceTerms
}

// IssuanceGrant is emitted by the supply-control policy after its own checks.
type IssuanceGrant struct {
	IssuanceTerms
}

// TxContext is the transaction-scoped record shared by the pool-state
// validator and the supply-control policy. The pool side records its facts
// exactly once; the supply side only reads them.
type TxContext struct {
	tx            *Transition
	consumed      []PoolSnapshot
	produced      []PoolState
	authorization IssuanceAuthorization
	recorded      bool
}

// NewTxContext opens the context for one transition.
func NewTxContext(tx *Transition) *TxContext {
	return &TxContext{tx: tx}
}

// Transition returns the transition under evaluation.
func (c *TxContext) Transition() *Transition {
	return c.tx
}

// RecordPoolTransition stores the pool validator's verdict. consumed is nil for
// a pool creation.
func (c *TxContext) RecordPoolTransition(consumed *PoolSnapshot, produced PoolState, auth IssuanceAuthorization) error {
	if c.recorded {
		return errorsmod.Wrap(ErrInvalidTransition, "pool transition already recorded")
	}
	if consumed != nil {
		c.consumed = []PoolSnapshot{*consumed}
	}
	c.produced = []PoolState{produced}
	c.authorization = auth
	c.recorded = true
	return nil
}

// Recorded reports whether the pool validator has accepted the transition.
func (c *TxContext) Recorded() bool {
	return c.recorded
}

// Consumed returns a copy of the snapshots consumed by the transition.
func (c *TxContext) Consumed() []PoolSnapshot {
	return append([]PoolSnapshot(nil), c.consumed...)
}

// Produced returns a copy of the successor states produced by the transition.
func (c *TxContext) Produced() []PoolState {
	return append([]PoolState(nil), c.produced...)
}

// Authorization returns the pool validator's issuance authorization.
func (c *TxContext) Authorization() IssuanceAuthorization {
	return c.authorization
}

// IsCreation reports whether the transition creates its pool.
func (c *TxContext) IsCreation() bool {
	return c.tx != nil && c.tx.Intent != nil && c.tx.Intent.Kind() == OpCreatePool
}
