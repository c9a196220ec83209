package types

import (
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// OperationKind enumerates the transitions the engine can settle.
type OperationKind uint8

const (
	OpUnspecified OperationKind = iota
	OpCreatePool
	OpSwap
	OpProvideLiquidity
	OpWithdrawLiquidity
)

func (k OperationKind) String() string {
	switch k {
	case OpCreatePool:
		return "create_pool"
	case OpSwap:
		return "swap"
	case OpProvideLiquidity:
		return "provide_liquidity"
	case OpWithdrawLiquidity:
		return "withdraw_liquidity"
	default:
		return "unspecified"
	}
}

// SwapDirection selects which reserve receives the input.
type SwapDirection uint8

const (
	DirectionUnspecified SwapDirection = iota
	BaseToQuote
	QuoteToBase
)

func (d SwapDirection) String() string {
	switch d {
	case BaseToQuote:
		return "base_to_quote"
	case QuoteToBase:
		return "quote_to_base"
	default:
		return "unspecified"
	}
}

// ParseSwapDirection parses the output of SwapDirection.String.
func ParseSwapDirection(s string) (SwapDirection, error) {
	switch s {
	case "base_to_quote", "base":
		return BaseToQuote, nil
	case "quote_to_base", "quote":
		return QuoteToBase, nil
	}
	return DirectionUnspecified, fmt.Errorf("unknown swap direction %q", s)
}

// Intent is the ephemeral operation carried by a transition.
type Intent interface {
	Kind() OperationKind
	ValidateBasic() error
}

var (
	_ Intent = CreatePoolIntent{}
	_ Intent = SwapIntent{}
	_ Intent = ProvideLiquidityIntent{}
	_ Intent = WithdrawLiquidityIntent{}
)

// CreatePoolIntent creates a pool, either empty or seeded with an initial deposit.
type CreatePoolIntent struct {
	PoolIdentity string   `json:"pool_identity"`
	QuoteAssetID string   `json:"quote_asset_id"`
	LPAssetID    string   `json:"lp_asset_id"`
	FeeBps       uint16   `json:"fee_bps"`
	SeedBase     math.Int `json:"seed_base"`
	SeedQuote    math.Int `json:"seed_quote"`
	MinLPOut     math.Int `json:"min_lp_out"`
}

func (CreatePoolIntent) Kind() OperationKind { return OpCreatePool }

// IsSeeded reports whether the creation carries an initial deposit.
func (i CreatePoolIntent) IsSeeded() bool {
	return !i.SeedBase.IsNil() && !i.SeedBase.IsZero()
}

func (i CreatePoolIntent) ValidateBasic() error {
	for _, id := range []string{i.PoolIdentity, i.QuoteAssetID, i.LPAssetID} {
		if err := sdk.ValidateDenom(id); err != nil {
			return errorsmod.Wrapf(ErrInvalidTransition, "invalid identifier %q: %v", id, err)
		}
	}
	if i.FeeBps == 0 || i.FeeBps > FeeBpsCeiling {
		return errorsmod.Wrapf(ErrInvalidTransition, "fee must be in (0, %d] bps, got %d", FeeBpsCeiling, i.FeeBps)
	}
	for _, f := range []struct {
		name string
		v    math.Int
	}{
		{"seed base", i.SeedBase},
		{"seed quote", i.SeedQuote},
		{"min lp out", i.MinLPOut},
	} {
		if err := ValidateUint128(f.name, f.v); err != nil {
			return err
		}
	}
	if i.SeedBase.IsZero() != i.SeedQuote.IsZero() {
		return errorsmod.Wrap(ErrInvalidAmount, "seed amounts must be both zero or both positive")
	}
	return nil
}

// SwapIntent trades AmountIn of one pool asset for at least MinOut of the other.
type SwapIntent struct {
	Direction SwapDirection `json:"direction"`
	AmountIn  math.Int      `json:"amount_in"`
	MinOut    math.Int      `json:"min_out"`
	Deadline  time.Time     `json:"deadline"`
}

func (SwapIntent) Kind() OperationKind { return OpSwap }

func (i SwapIntent) ValidateBasic() error {
	if i.Direction != BaseToQuote && i.Direction != QuoteToBase {
		return errorsmod.Wrapf(ErrInvalidTransition, "unknown swap direction %d", i.Direction)
	}
	if err := ValidateUint128("amount in", i.AmountIn); err != nil {
		return err
	}
	if i.AmountIn.IsZero() {
		return errorsmod.Wrap(ErrInvalidAmount, "amount in must be positive")
	}
	if err := ValidateUint128("min out", i.MinOut); err != nil {
		return err
	}
	if i.Deadline.IsZero() {
		return errorsmod.Wrap(ErrInvalidTransition, "deadline is required")
	}
	return nil
}

// ProvideLiquidityIntent deposits both pool assets in exchange for LP tokens.
type ProvideLiquidityIntent struct {
	BaseAmount           math.Int `json:"base_amount"`
	QuoteAmount          math.Int `json:"quote_amount"`
	MinLPOut             math.Int `json:"min_lp_out"`
	MaxRatioDeviationBps uint32   `json:"max_ratio_deviation_bps"`
	IsInitial            bool     `json:"is_initial"`
}

func (ProvideLiquidityIntent) Kind() OperationKind { return OpProvideLiquidity }

func (i ProvideLiquidityIntent) ValidateBasic() error {
	for _, f := range []struct {
		name string
		v    math.Int
	}{
		{"base amount", i.BaseAmount},
		{"quote amount", i.QuoteAmount},
		{"min lp out", i.MinLPOut},
	} {
		if err := ValidateUint128(f.name, f.v); err != nil {
			return err
		}
	}
	if i.BaseAmount.IsZero() || i.QuoteAmount.IsZero() {
		return errorsmod.Wrap(ErrInvalidAmount, "both deposit amounts must be positive")
	}
	if i.MaxRatioDeviationBps > BasisPointsDenominator {
		return errorsmod.Wrapf(ErrInvalidTransition, "max ratio deviation %d bps exceeds 100%%", i.MaxRatioDeviationBps)
	}
	return nil
}

// WithdrawLiquidityIntent burns LP tokens for a pro-rata share of both reserves.
type WithdrawLiquidityIntent struct {
	LPAmountToBurn math.Int `json:"lp_amount_to_burn"`
	MinBaseOut     math.Int `json:"min_base_out"`
	MinQuoteOut    math.Int `json:"min_quote_out"`
	IsEmergency    bool     `json:"is_emergency"`
}

func (WithdrawLiquidityIntent) Kind() OperationKind { return OpWithdrawLiquidity }

func (i WithdrawLiquidityIntent) ValidateBasic() error {
	for _, f := range []struct {
		name string
		v    math.Int
	}{
		{"lp amount to burn", i.LPAmountToBurn},
		{"min base out", i.MinBaseOut},
		{"min quote out", i.MinQuoteOut},
	} {
		if err := ValidateUint128(f.name, f.v); err != nil {
			return err
		}
	}
	if i.LPAmountToBurn.IsZero() {
		return errorsmod.Wrap(ErrInvalidAmount, "lp amount to burn must be positive")
	}
	return nil
}
