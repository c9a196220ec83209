package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// ModuleName defines the module name
	ModuleName = "settlement"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// MarkerStoreKey holds freshness markers of settled transitions. Store key
	// names must not prefix one another.
	MarkerStoreKey = "markers"
)

// Store key prefixes
var (
	ParamsKey       = []byte{0x01} // key for module params
	PoolHeadKey     = []byte{0x02} // prefix for pool identity -> live version
	PoolSnapshotKey = []byte{0x03} // prefix for (pool identity, version) -> snapshot
)

// lengthPrefixed prepends the identity length so that one identity is never a
// key prefix of another ("pool/a" vs "pool/a/b").
func lengthPrefixed(poolIdentity string) []byte {
	bz := make([]byte, 0, 1+len(poolIdentity))
	bz = append(bz, byte(len(poolIdentity)))
	return append(bz, poolIdentity...)
}

// GetPoolHeadKey returns the store key for the live version of a pool
func GetPoolHeadKey(poolIdentity string) []byte {
	return append(append([]byte{}, PoolHeadKey...), lengthPrefixed(poolIdentity)...)
}

// GetPoolSnapshotPrefix returns the prefix under which every snapshot of a pool is stored
func GetPoolSnapshotPrefix(poolIdentity string) []byte {
	return append(append([]byte{}, PoolSnapshotKey...), lengthPrefixed(poolIdentity)...)
}

// GetPoolSnapshotKey returns the store key for one snapshot of a pool.
// Versions are big endian so prefix iteration yields history in order.
func GetPoolSnapshotKey(poolIdentity string, version uint64) []byte {
	return append(GetPoolSnapshotPrefix(poolIdentity), sdk.Uint64ToBigEndian(version)...)
}
