package types

// Event types for the settlement module
const (
	EventTypePoolCreated   = "pool_created"
	EventTypeSwap          = "pool_swap"
	EventTypeProvide       = "pool_provide_liquidity"
	EventTypeWithdraw      = "pool_withdraw_liquidity"
	EventTypeEntrySpent    = "pool_entry_spent"
	EventTypeParamsUpdated = "settlement_params_updated"
	EventTypeRejected      = "settlement_rejected"

	AttributeKeyPoolIdentity = "pool_identity"
	AttributeKeyVersion      = "version"
	AttributeKeySpentVersion = "spent_version"
	AttributeKeyInitiator    = "initiator"
	AttributeKeyMarker       = "marker"
	AttributeKeyBaseReserve  = "base_reserve"
	AttributeKeyQuoteReserve = "quote_reserve"
	AttributeKeyLPSupply     = "lp_supply"
	AttributeKeyDirection    = "direction"
	AttributeKeyAmountIn     = "amount_in"
	AttributeKeyAmountOut    = "amount_out"
	AttributeKeyBaseAmount   = "base_amount"
	AttributeKeyQuoteAmount  = "quote_amount"
	AttributeKeyLPAmount     = "lp_amount"
	AttributeKeyEmergency    = "emergency"
	AttributeKeyParamsVer    = "params_version"
	AttributeKeyReason       = "reason"
)
