package types

// Event types for the lpsupply module
const (
	EventTypeLPMint = "lp_mint"
	EventTypeLPBurn = "lp_burn"
	EventTypeLPBind = "lp_denom_bound"

	AttributeKeyDenom        = "denom"
	AttributeKeyPoolIdentity = "pool_identity"
	AttributeKeyHolder       = "holder"
	AttributeKeyAmount       = "amount"
	AttributeKeyOutstanding  = "outstanding"
)
