package types

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// ParamsVersion is bumped whenever the meaning of a Params field changes.
	ParamsVersion uint32 = 1

	// BasisPointsDenominator is 100% expressed in basis points
	BasisPointsDenominator uint32 = 10_000

	// FeeBpsCeiling is the hard upper bound on a pool trading fee (10%)
	FeeBpsCeiling uint16 = 1000

	// UnitOfAccount is the number of smallest units in one unit of account
	UnitOfAccount int64 = 1_000_000

	// DefaultBaseAssetID is the ledger settlement asset
	DefaultBaseAssetID = "upaw"
)

// WithdrawalLimits bounds a single withdrawal and the state it leaves behind.
type WithdrawalLimits struct {
	MinBaseReserve   math.Int `json:"min_base_reserve"`
	MinQuoteReserve  math.Int `json:"min_quote_reserve"`
	MinLPSupply      math.Int `json:"min_lp_supply"`
	MaxWithdrawalBps uint32   `json:"max_withdrawal_bps"`
}

// Params is the versioned configuration passed into every validation call.
type Params struct {
	Version               uint32           `json:"version"`
	BaseAssetID           string           `json:"base_asset_id"`
	MaxFeeBps             uint16           `json:"max_fee_bps"`
	MinSwapAmountBase     math.Int         `json:"min_swap_amount_base"`
	MinSwapAmountQuote    math.Int         `json:"min_swap_amount_quote"`
	MaxSwapBps            uint32           `json:"max_swap_bps"`
	MinInitialDeposit     math.Int         `json:"min_initial_deposit"`
	MaxRatioDeviationBps  uint32           `json:"max_ratio_deviation_bps"`
	MaxSingleProvisionBps uint32           `json:"max_single_provision_bps"`
	NormalWithdrawal      WithdrawalLimits `json:"normal_withdrawal"`
	EmergencyWithdrawal   WithdrawalLimits `json:"emergency_withdrawal"`
	MarkerTTLSeconds      int64            `json:"marker_ttl_seconds"`
}

// DefaultParams returns default parameters for the settlement module
func DefaultParams() Params {
	unit := math.NewInt(UnitOfAccount)
	return Params{
		Version:               ParamsVersion,
		BaseAssetID:           DefaultBaseAssetID,
		MaxFeeBps:             FeeBpsCeiling,
		MinSwapAmountBase:     math.NewInt(1_000),
		MinSwapAmountQuote:    math.NewInt(1_000),
		MaxSwapBps:            5_000, // 50% of the input side reserve
		MinInitialDeposit:     unit,  // 1 unit of account per side
		MaxRatioDeviationBps:  500,   // 5%
		MaxSingleProvisionBps: 5_000, // 50% of the side reserve
		NormalWithdrawal: WithdrawalLimits{
			MinBaseReserve:   unit.MulRaw(10),
			MinQuoteReserve:  unit,
			MinLPSupply:      math.NewInt(1_000),
			MaxWithdrawalBps: 5_000,
		},
		EmergencyWithdrawal: WithdrawalLimits{
			MinBaseReserve:   unit,
			MinQuoteReserve:  unit.QuoRaw(10),
			MinLPSupply:      math.ZeroInt(),
			MaxWithdrawalBps: 9_900,
		},
		MarkerTTLSeconds: 7 * 24 * 60 * 60,
	}
}

// WithdrawalLimits returns the limits for the requested withdrawal mode.
func (p Params) WithdrawalLimits(emergency bool) WithdrawalLimits {
	if emergency {
		return p.EmergencyWithdrawal
	}
	return p.NormalWithdrawal
}

// MinSwapAmount returns the dust floor for the asset being deposited.
func (p Params) MinSwapAmount(direction SwapDirection) math.Int {
	if direction == QuoteToBase {
		return p.MinSwapAmountQuote
	}
	return p.MinSwapAmountBase
}

// Validate validates the set of params
func (p Params) Validate() error {
	if p.Version != ParamsVersion {
		return errorsmod.Wrapf(ErrInvalidParams, "unsupported params version %d, expected %d", p.Version, ParamsVersion)
	}
	if err := sdk.ValidateDenom(p.BaseAssetID); err != nil {
		return errorsmod.Wrapf(ErrInvalidParams, "base asset id: %v", err)
	}
	if p.MaxFeeBps == 0 || p.MaxFeeBps > FeeBpsCeiling {
		return errorsmod.Wrapf(ErrInvalidParams, "max fee must be in (0, %d] bps, got %d", FeeBpsCeiling, p.MaxFeeBps)
	}
	if err := requirePositive("min swap amount base", p.MinSwapAmountBase); err != nil {
		return err
	}
	if err := requirePositive("min swap amount quote", p.MinSwapAmountQuote); err != nil {
		return err
	}
	if err := requirePositive("min initial deposit", p.MinInitialDeposit); err != nil {
		return err
	}
	if err := validateBps("max swap", p.MaxSwapBps, false); err != nil {
		return err
	}
	if err := validateBps("max ratio deviation", p.MaxRatioDeviationBps, true); err != nil {
		return err
	}
	if err := validateBps("max single provision", p.MaxSingleProvisionBps, false); err != nil {
		return err
	}
	if err := p.NormalWithdrawal.validate("normal"); err != nil {
		return err
	}
	if err := p.EmergencyWithdrawal.validate("emergency"); err != nil {
		return err
	}
	if p.EmergencyWithdrawal.MinBaseReserve.GT(p.NormalWithdrawal.MinBaseReserve) ||
		p.EmergencyWithdrawal.MinQuoteReserve.GT(p.NormalWithdrawal.MinQuoteReserve) ||
		p.EmergencyWithdrawal.MinLPSupply.GT(p.NormalWithdrawal.MinLPSupply) {
		return errorsmod.Wrap(ErrInvalidParams, "emergency floors must not exceed normal floors")
	}
	if p.EmergencyWithdrawal.MaxWithdrawalBps < p.NormalWithdrawal.MaxWithdrawalBps {
		return errorsmod.Wrap(ErrInvalidParams, "emergency withdrawal cap must not be below the normal cap")
	}
	if p.MarkerTTLSeconds <= 0 {
		return errorsmod.Wrapf(ErrInvalidParams, "marker ttl must be positive, got %d", p.MarkerTTLSeconds)
	}
	return nil
}

func (l WithdrawalLimits) validate(mode string) error {
	for _, f := range []struct {
		name string
		v    math.Int
	}{
		{"min base reserve", l.MinBaseReserve},
		{"min quote reserve", l.MinQuoteReserve},
		{"min lp supply", l.MinLPSupply},
	} {
		if f.v.IsNil() || f.v.IsNegative() {
			return errorsmod.Wrapf(ErrInvalidParams, "%s withdrawal %s must be non-negative", mode, f.name)
		}
	}
	// A full drain is never allowed through a single withdrawal.
	if l.MaxWithdrawalBps == 0 || l.MaxWithdrawalBps >= BasisPointsDenominator {
		return errorsmod.Wrapf(ErrInvalidParams, "%s max withdrawal must be in (0, %d) bps, got %d",
			mode, BasisPointsDenominator, l.MaxWithdrawalBps)
	}
	return nil
}

func requirePositive(name string, v math.Int) error {
	if v.IsNil() || !v.IsPositive() {
		return errorsmod.Wrapf(ErrInvalidParams, "%s must be positive", name)
	}
	return nil
}

func validateBps(name string, bps uint32, allowZero bool) error {
	if bps > BasisPointsDenominator || (!allowZero && bps == 0) {
		return errorsmod.Wrapf(ErrInvalidParams, "%s must be a bps value in %s, got %d", name, bpsRange(allowZero), bps)
	}
	return nil
}

func bpsRange(allowZero bool) string {
	if allowZero {
		return fmt.Sprintf("[0, %d]", BasisPointsDenominator)
	}
	return fmt.Sprintf("(0, %d]", BasisPointsDenominator)
}
