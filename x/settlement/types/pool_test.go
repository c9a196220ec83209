package types

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func fundedPool() PoolState {
	return PoolState{
		PoolIdentity: "pool/upaw-uusdc",
		QuoteAssetID: "uusdc",
		LPAssetID:    "lp/upaw-uusdc",
		BaseReserve:  math.NewInt(1_000_000_000),
		QuoteReserve: math.NewInt(2_000_000_000),
		LPSupply:     math.NewInt(1_414_213_562),
		FeeBps:       30,
	}
}

func TestPoolStateValidate(t *testing.T) {
	params := DefaultParams()
	require.NoError(t, fundedPool().Validate(params))
	require.NoError(t, NewEmptyPoolState("pool/a", "uusdc", "lp/a", 30).Validate(params))

	tests := []struct {
		name   string
		mutate func(p *PoolState)
		want   error
	}{
		{"quote is base asset", func(p *PoolState) { p.QuoteAssetID = DefaultBaseAssetID }, ErrInvalidPoolState},
		{"lp is quote asset", func(p *PoolState) { p.LPAssetID = p.QuoteAssetID }, ErrInvalidPoolState},
		{"zero fee", func(p *PoolState) { p.FeeBps = 0 }, ErrInvalidPoolState},
		{"fee above max", func(p *PoolState) { p.FeeBps = 1001 }, ErrInvalidPoolState},
		{"invalid identity", func(p *PoolState) { p.PoolIdentity = "" }, ErrInvalidPoolState},
		{"one sided reserves", func(p *PoolState) { p.QuoteReserve = math.ZeroInt() }, ErrInvalidPoolState},
		{"supply without reserves", func(p *PoolState) {
			p.BaseReserve = math.ZeroInt()
			p.QuoteReserve = math.ZeroInt()
		}, ErrInvalidPoolState},
		{"reserves without supply", func(p *PoolState) { p.LPSupply = math.ZeroInt() }, ErrInvalidPoolState},
		{"reserve wider than 128 bits", func(p *PoolState) { p.BaseReserve = MaxUint128.AddRaw(1) }, ErrInvalidPoolState},
		{"negative supply", func(p *PoolState) { p.LPSupply = math.NewInt(-5) }, ErrInvalidPoolState},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := fundedPool()
			tc.mutate(&p)
			require.ErrorIs(t, p.Validate(params), tc.want)
		})
	}
}

func TestPoolStateHelpers(t *testing.T) {
	p := fundedPool()
	in, out := p.Reserves(BaseToQuote)
	require.Equal(t, p.BaseReserve, in)
	require.Equal(t, p.QuoteReserve, out)
	in, out = p.Reserves(QuoteToBase)
	require.Equal(t, p.QuoteReserve, in)
	require.Equal(t, p.BaseReserve, out)

	other := p
	other.BaseReserve = math.NewInt(1)
	require.True(t, p.SameIdentity(other))
	other.FeeBps = 31
	require.False(t, p.SameIdentity(other))

	require.False(t, p.IsEmpty())
	require.True(t, NewEmptyPoolState("pool/a", "uusdc", "lp/a", 30).IsEmpty())
}

func TestValidateUint128(t *testing.T) {
	require.NoError(t, ValidateUint128("x", math.ZeroInt()))
	require.NoError(t, ValidateUint128("x", MaxUint128))
	require.ErrorIs(t, ValidateUint128("x", MaxUint128.AddRaw(1)), ErrInvalidAmount)
	require.ErrorIs(t, ValidateUint128("x", math.NewInt(-1)), ErrInvalidAmount)
	require.ErrorIs(t, ValidateUint128("x", math.Int{}), ErrInvalidAmount)
	require.Equal(t, 128, MaxUint128.BigInt().BitLen())
}

func TestEncodingRoundTripAndVersioning(t *testing.T) {
	state := fundedPool()
	bz, err := EncodePoolState(state)
	require.NoError(t, err)
	require.Contains(t, string(bz), `"encoding_version":1`)
	require.Contains(t, string(bz), `"base_reserve":"1000000000"`)

	decoded, err := DecodePoolState(bz)
	require.NoError(t, err)
	require.True(t, state.SameIdentity(decoded))
	require.True(t, state.LPSupply.Equal(decoded.LPSupply))

	_, err = DecodePoolState([]byte(`{"encoding_version":2,"pool_identity":"pool/a"}`))
	require.ErrorIs(t, err, ErrInvalidPoolState)
	_, err = DecodePoolState([]byte(`not json`))
	require.ErrorIs(t, err, ErrInvalidPoolState)

	snap := PoolSnapshot{State: state, Version: 7, CreatedAt: time.Unix(1_700_000_000, 0).UTC(), Spent: true, SpentBy: []byte("marker-0123456789")}
	bz, err = EncodeSnapshot(snap)
	require.NoError(t, err)
	got, err := DecodeSnapshot(bz)
	require.NoError(t, err)
	require.Equal(t, snap.Version, got.Version)
	require.Equal(t, snap.SpentBy, got.SpentBy)
	require.True(t, got.Spent)
	require.True(t, snap.CreatedAt.Equal(got.CreatedAt))
	require.Equal(t, EntryRef{PoolIdentity: state.PoolIdentity, Version: 7}, got.Ref())
}

func TestPoolKeysAreNotPrefixesOfEachOther(t *testing.T) {
	a := GetPoolSnapshotPrefix("pool/a")
	ab := GetPoolSnapshotPrefix("pool/a/b")
	require.NotEqual(t, a, ab[:len(a)])

	k1 := GetPoolSnapshotKey("pool/a", 1)
	k2 := GetPoolSnapshotKey("pool/a", 2)
	require.Less(t, string(k1), string(k2))
	require.Equal(t, a, k1[:len(a)])
}
