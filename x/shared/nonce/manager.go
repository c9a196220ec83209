// Package nonce tracks the freshness markers of settled transitions so that a
// transition is accepted at most once. Markers are kept for a TTL and pruned in
// insertion-time order.
package nonce

import (
	"encoding/binary"
	"fmt"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

var (
	// MarkerPrefix maps a marker to the block time it was consumed at
	MarkerPrefix = []byte{0x01}
	// MarkerTimePrefix indexes markers by consumption time for pruning
	MarkerTimePrefix = []byte{0x02}
)

const (
	// DefaultMarkerTTLSeconds is the default TTL for markers (7 days)
	DefaultMarkerTTLSeconds = int64(604800)

	// DefaultPruneBatch bounds the work of one PruneExpired call
	DefaultPruneBatch = 100
)

// ErrorProvider allows modules to provide their own error types while using
// the shared marker logic.
type ErrorProvider interface {
	// ReplayedMarkerError returns an error for a marker that was already consumed
	ReplayedMarkerError(msg string) error
	// InvalidMarkerError returns an error for a malformed marker
	InvalidMarkerError(msg string) error
}

// Manager records consumed freshness markers.
type Manager struct {
	storeKey      storetypes.StoreKey
	errorProvider ErrorProvider
	minLen        int
	maxLen        int
}

// NewManager creates a marker manager persisting into storeKey. Markers outside
// [minLen, maxLen] bytes are rejected.
func NewManager(storeKey storetypes.StoreKey, errorProvider ErrorProvider, minLen, maxLen int) *Manager {
	return &Manager{
		storeKey:      storeKey,
		errorProvider: errorProvider,
		minLen:        minLen,
		maxLen:        maxLen,
	}
}

func encodeTime(ts int64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(ts))
	return bz
}

func decodeTime(bz []byte) int64 {
	if len(bz) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(bz))
}

func markerKey(marker []byte) []byte {
	return append(append([]byte{}, MarkerPrefix...), marker...)
}

// markerTimeKey orders markers by time; the marker follows the 8 byte timestamp.
func markerTimeKey(ts int64, marker []byte) []byte {
	key := append(append([]byte{}, MarkerTimePrefix...), encodeTime(ts)...)
	return append(key, marker...)
}

func (m *Manager) validate(marker []byte) error {
	if len(marker) < m.minLen || len(marker) > m.maxLen {
		return m.errorProvider.InvalidMarkerError(fmt.Sprintf(
			"marker length %d outside [%d, %d]", len(marker), m.minLen, m.maxLen))
	}
	return nil
}

// IsConsumed reports whether marker was consumed and not yet pruned.
func (m *Manager) IsConsumed(ctx sdk.Context, marker []byte) bool {
	return ctx.KVStore(m.storeKey).Has(markerKey(marker))
}

// ConsumedAt returns the unix time a marker was consumed at.
func (m *Manager) ConsumedAt(ctx sdk.Context, marker []byte) (int64, bool) {
	bz := ctx.KVStore(m.storeKey).Get(markerKey(marker))
	if bz == nil {
		return 0, false
	}
	return decodeTime(bz), true
}

// CheckFresh returns an error if marker is malformed or was already consumed.
// It does not write.
func (m *Manager) CheckFresh(ctx sdk.Context, marker []byte) error {
	if err := m.validate(marker); err != nil {
		return err
	}
	if m.IsConsumed(ctx, marker) {
		return m.errorProvider.ReplayedMarkerError(fmt.Sprintf("replay detected: marker %X already consumed", marker))
	}
	return nil
}

// Consume checks marker and records it at the current block time.
func (m *Manager) Consume(ctx sdk.Context, marker []byte) error {
	if err := m.CheckFresh(ctx, marker); err != nil {
		return err
	}
	store := ctx.KVStore(m.storeKey)
	ts := ctx.BlockTime().Unix()
	store.Set(markerKey(marker), encodeTime(ts))
	store.Set(markerTimeKey(ts, marker), []byte{})
	return nil
}

// PruneExpired removes markers consumed more than ttlSeconds before the
// current block time. At most maxPrunePerCall markers are removed per call so
// the cost is spread across blocks. Returns the number of markers pruned.
func (m *Manager) PruneExpired(ctx sdk.Context, ttlSeconds int64, maxPrunePerCall int) (int, error) {
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultMarkerTTLSeconds
	}
	if maxPrunePerCall <= 0 {
		maxPrunePerCall = DefaultPruneBatch
	}

	store := ctx.KVStore(m.storeKey)
	cutoff := ctx.BlockTime().Unix() - ttlSeconds

	keysToDelete := make([][]byte, 0, maxPrunePerCall*2)
	pruned := 0

	iterator := storetypes.KVStorePrefixIterator(store, MarkerTimePrefix)
	defer iterator.Close()

	for ; iterator.Valid() && pruned < maxPrunePerCall; iterator.Next() {
		key := iterator.Key()
		if len(key) < len(MarkerTimePrefix)+8 {
			return pruned, fmt.Errorf("corrupt marker index key %X", key)
		}
		ts := decodeTime(key[len(MarkerTimePrefix) : len(MarkerTimePrefix)+8])
		// the index is time ordered, nothing after this entry is expired
		if ts > cutoff {
			break
		}
		marker := key[len(MarkerTimePrefix)+8:]
		keysToDelete = append(keysToDelete, append([]byte{}, key...), markerKey(marker))
		pruned++
	}

	for _, key := range keysToDelete {
		store.Delete(key)
	}
	return pruned, nil
}
