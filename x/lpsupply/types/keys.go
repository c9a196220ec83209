package types

const (
	// ModuleName defines the module name. Issuance directives name this policy.
	ModuleName = "lpsupply"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

// Store key prefixes
var (
	SupplyKeyPrefix  = []byte{0x01} // lp denom -> supply record
	BalanceKeyPrefix = []byte{0x02} // (lp denom, holder) -> balance
)

func lengthPrefixed(s string) []byte {
	bz := make([]byte, 0, 1+len(s))
	bz = append(bz, byte(len(s)))
	return append(bz, s...)
}

// GetSupplyKey returns the store key of an LP denom's supply record
func GetSupplyKey(denom string) []byte {
	return append(append([]byte{}, SupplyKeyPrefix...), lengthPrefixed(denom)...)
}

// GetBalancePrefix returns the prefix of every holder balance of an LP denom
func GetBalancePrefix(denom string) []byte {
	return append(append([]byte{}, BalanceKeyPrefix...), lengthPrefixed(denom)...)
}

// GetBalanceKey returns the store key of one holder's balance
func GetBalanceKey(denom, holder string) []byte {
	return append(GetBalancePrefix(denom), holder...)
}
