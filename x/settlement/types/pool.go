package types

import (
	"math/big"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MaxUint128 is the widest quantity a pool field may hold.
var MaxUint128 = math.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)))

// PoolState is the persisted record of one trading pair.
type PoolState struct {
	PoolIdentity string   `json:"pool_identity"`
	QuoteAssetID string   `json:"quote_asset_id"`
	LPAssetID    string   `json:"lp_asset_id"`
	BaseReserve  math.Int `json:"base_reserve"`
	QuoteReserve math.Int `json:"quote_reserve"`
	LPSupply     math.Int `json:"lp_supply"`
	FeeBps       uint16   `json:"fee_bps"`
}

// NewEmptyPoolState returns a pool awaiting its first deposit.
func NewEmptyPoolState(poolIdentity, quoteAssetID, lpAssetID string, feeBps uint16) PoolState {
	return PoolState{
		PoolIdentity: poolIdentity,
		QuoteAssetID: quoteAssetID,
		LPAssetID:    lpAssetID,
		BaseReserve:  math.ZeroInt(),
		QuoteReserve: math.ZeroInt(),
		LPSupply:     math.ZeroInt(),
		FeeBps:       feeBps,
	}
}

// IsEmpty reports whether the pool has never been funded (or was drained).
func (p PoolState) IsEmpty() bool {
	return p.LPSupply.IsZero() && p.BaseReserve.IsZero() && p.QuoteReserve.IsZero()
}

// Reserves returns (reserve in, reserve out) for a swap direction.
func (p PoolState) Reserves(direction SwapDirection) (math.Int, math.Int) {
	if direction == QuoteToBase {
		return p.QuoteReserve, p.BaseReserve
	}
	return p.BaseReserve, p.QuoteReserve
}

// SameIdentity reports whether the immutable fields of two states agree.
func (p PoolState) SameIdentity(other PoolState) bool {
	return p.PoolIdentity == other.PoolIdentity &&
		p.QuoteAssetID == other.QuoteAssetID &&
		p.LPAssetID == other.LPAssetID &&
		p.FeeBps == other.FeeBps
}

// ValidateIdentity checks the immutable identifiers and fee.
func (p PoolState) ValidateIdentity(params Params) error {
	for _, f := range []struct{ name, id string }{
		{"pool identity", p.PoolIdentity},
		{"quote asset id", p.QuoteAssetID},
		{"lp asset id", p.LPAssetID},
	} {
		if err := sdk.ValidateDenom(f.id); err != nil {
			return errorsmod.Wrapf(ErrInvalidPoolState, "%s %q: %v", f.name, f.id, err)
		}
	}
	if p.QuoteAssetID == params.BaseAssetID {
		return errorsmod.Wrapf(ErrInvalidPoolState, "quote asset %s equals the base asset", p.QuoteAssetID)
	}
	if p.LPAssetID == params.BaseAssetID || p.LPAssetID == p.QuoteAssetID {
		return errorsmod.Wrapf(ErrInvalidPoolState, "lp asset %s collides with a pool asset", p.LPAssetID)
	}
	if p.FeeBps == 0 || p.FeeBps > params.MaxFeeBps {
		return errorsmod.Wrapf(ErrInvalidPoolState, "fee %d bps outside (0, %d]", p.FeeBps, params.MaxFeeBps)
	}
	return nil
}

// Validate checks the identity and the structural invariants every persisted
// state must satisfy: 128-bit non-negative quantities, both reserves positive or
// both zero, and an outstanding LP supply exactly when the pool holds reserves.
func (p PoolState) Validate(params Params) error {
	if err := p.ValidateIdentity(params); err != nil {
		return err
	}
	return p.ValidateReserves()
}

// ValidateReserves checks the quantity invariants only. Successor states are
// checked with it because their identity is inherited from a validated pool.
func (p PoolState) ValidateReserves() error {
	for _, f := range []struct {
		name string
		v    math.Int
	}{
		{"base reserve", p.BaseReserve},
		{"quote reserve", p.QuoteReserve},
		{"lp supply", p.LPSupply},
	} {
		if err := ValidateUint128(f.name, f.v); err != nil {
			return errorsmod.Wrap(ErrInvalidPoolState, err.Error())
		}
	}
	if p.BaseReserve.IsZero() != p.QuoteReserve.IsZero() {
		return errorsmod.Wrapf(ErrInvalidPoolState, "one-sided reserves: base=%s quote=%s", p.BaseReserve, p.QuoteReserve)
	}
	if p.LPSupply.IsZero() != p.BaseReserve.IsZero() {
		return errorsmod.Wrapf(ErrInvalidPoolState, "lp supply %s inconsistent with reserves base=%s quote=%s",
			p.LPSupply, p.BaseReserve, p.QuoteReserve)
	}
	return nil
}

// ValidateUint128 rejects nil, negative and wider-than-128-bit quantities.
func ValidateUint128(name string, v math.Int) error {
	if v.IsNil() {
		return errorsmod.Wrapf(ErrInvalidAmount, "%s is unset", name)
	}
	if v.IsNegative() {
		return errorsmod.Wrapf(ErrInvalidAmount, "%s is negative: %s", name, v)
	}
	if v.GT(MaxUint128) {
		return errorsmod.Wrapf(ErrInvalidAmount, "%s exceeds 128 bits: %s", name, v)
	}
	return nil
}

// EntryRef names one pool snapshot: the unit a transition consumes.
type EntryRef struct {
	PoolIdentity string `json:"pool_identity"`
	Version      uint64 `json:"version"`
}

// PoolSnapshot is one immutable entry in a pool's history. Only the snapshot
// at the head of the history is live; every earlier one has been spent.
type PoolSnapshot struct {
	State     PoolState `json:"state"`
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Spent     bool      `json:"spent"`
	SpentBy   []byte    `json:"spent_by,omitempty"`
}

// Ref returns the reference a transition uses to consume this snapshot.
func (s PoolSnapshot) Ref() EntryRef {
	return EntryRef{PoolIdentity: s.State.PoolIdentity, Version: s.Version}
}
