package types

import (
	"cosmossdk.io/math"
)

// SwapOutcome is the result of a validated swap.
type SwapOutcome struct {
	Successor PoolState
	Direction SwapDirection
	AmountIn  math.Int
	AmountOut math.Int
}

// ProvisionOutcome is the result of a validated liquidity provision.
type ProvisionOutcome struct {
	Successor    PoolState
	BaseIn       math.Int
	QuoteIn      math.Int
	LPMinted     math.Int
	DeviationBps math.Int
}

// WithdrawalOutcome is the result of a validated liquidity withdrawal.
type WithdrawalOutcome struct {
	Successor PoolState
	BaseOut   math.Int
	QuoteOut  math.Int
	LPBurned  math.Int
}

// Receipt summarizes a settled transition: what moved between the pool and
// the counterparty, and the snapshot that replaced the consumed entry.
type Receipt struct {
	Kind         OperationKind `json:"kind"`
	PoolIdentity string        `json:"pool_identity"`
	Version      uint64        `json:"version"`
	Successor    PoolState     `json:"successor"`
	BaseIn       math.Int      `json:"base_in"`
	QuoteIn      math.Int      `json:"quote_in"`
	BaseOut      math.Int      `json:"base_out"`
	QuoteOut     math.Int      `json:"quote_out"`
	LPMinted     math.Int      `json:"lp_minted"`
	LPBurned     math.Int      `json:"lp_burned"`
}

// NewReceipt returns a receipt with every flow set to zero.
func NewReceipt(kind OperationKind, successor PoolState, version uint64) Receipt {
	return Receipt{
		Kind:         kind,
		PoolIdentity: successor.PoolIdentity,
		Version:      version,
		Successor:    successor,
		BaseIn:       math.ZeroInt(),
		QuoteIn:      math.ZeroInt(),
		BaseOut:      math.ZeroInt(),
		QuoteOut:     math.ZeroInt(),
		LPMinted:     math.ZeroInt(),
		LPBurned:     math.ZeroInt(),
	}
}
