package types

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
)

// PoolStateEncodingVersion identifies the layout of encoded pool states and
// snapshots. Indexers must reject versions they do not know.
const PoolStateEncodingVersion uint32 = 1

type encodedPoolState struct {
	EncodingVersion uint32 `json:"encoding_version"`
	PoolState
}

type encodedSnapshot struct {
	EncodingVersion uint32 `json:"encoding_version"`
	PoolSnapshot
}

// EncodePoolState returns the stable, versioned encoding of a pool state.
func EncodePoolState(state PoolState) ([]byte, error) {
	bz, err := json.Marshal(encodedPoolState{EncodingVersion: PoolStateEncodingVersion, PoolState: state})
	if err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidPoolState, "encode pool state: %v", err)
	}
	return bz, nil
}

// DecodePoolState parses the output of EncodePoolState.
func DecodePoolState(bz []byte) (PoolState, error) {
	var enc encodedPoolState
	if err := json.Unmarshal(bz, &enc); err != nil {
		return PoolState{}, errorsmod.Wrapf(ErrInvalidPoolState, "decode pool state: %v", err)
	}
	if enc.EncodingVersion != PoolStateEncodingVersion {
		return PoolState{}, errorsmod.Wrapf(ErrInvalidPoolState, "unsupported pool state encoding version %d", enc.EncodingVersion)
	}
	return enc.PoolState, nil
}

// EncodeSnapshot returns the store encoding of a snapshot.
func EncodeSnapshot(snapshot PoolSnapshot) ([]byte, error) {
	bz, err := json.Marshal(encodedSnapshot{EncodingVersion: PoolStateEncodingVersion, PoolSnapshot: snapshot})
	if err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidPoolState, "encode snapshot: %v", err)
	}
	return bz, nil
}

// DecodeSnapshot parses the output of EncodeSnapshot.
func DecodeSnapshot(bz []byte) (PoolSnapshot, error) {
	var enc encodedSnapshot
	if err := json.Unmarshal(bz, &enc); err != nil {
		return PoolSnapshot{}, errorsmod.Wrapf(ErrInvalidPoolState, "decode snapshot: %v", err)
	}
	if enc.EncodingVersion != PoolStateEncodingVersion {
		return PoolSnapshot{}, errorsmod.Wrapf(ErrInvalidPoolState, "unsupported snapshot encoding version %d", enc.EncodingVersion)
	}
	return enc.PoolSnapshot, nil
}
