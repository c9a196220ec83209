package ammmath

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/x/settlement/types"
)

func TestSwapOutputReferencePool(t *testing.T) {
	out, err := SwapOutput(
		math.NewInt(100_000_000_000),
		math.NewInt(2_301_952_000_000),
		math.NewInt(1_000_000),
		30,
	)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(22_950_232), out)
}

func TestAmountInWithFee(t *testing.T) {
	v, err := AmountInWithFee(math.NewInt(1_000_000), 30)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(9_970_000_000), v)

	_, err = AmountInWithFee(math.NewInt(1), 10_000)
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestInitialLPIssuance(t *testing.T) {
	lp, err := InitialLPIssuance(math.NewInt(10_000_000), math.NewInt(20_000_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(14_142_135), lp)

	lp, err = InitialLPIssuance(math.NewInt(4), math.NewInt(9))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(6), lp)

	lp, err = InitialLPIssuance(types.MaxUint128, types.MaxUint128)
	require.NoError(t, err)
	require.True(t, lp.Equal(types.MaxUint128))
}

func TestProRataWithdrawal(t *testing.T) {
	base, err := ProRataWithdrawal(math.NewInt(50_000_000), math.NewInt(10_000_000), math.NewInt(100_000_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(5_000_000), base)

	quote, err := ProRataWithdrawal(math.NewInt(80_000_000), math.NewInt(10_000_000), math.NewInt(100_000_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(8_000_000), quote)

	// floors toward the pool
	v, err := ProRataWithdrawal(math.NewInt(10), math.NewInt(1), math.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(3), v)

	_, err = ProRataWithdrawal(math.NewInt(10), math.NewInt(4), math.NewInt(3))
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestShareRatioAndSubsequentIssuance(t *testing.T) {
	r, err := ShareRatio(math.NewInt(5_000_000), math.NewInt(50_000_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(100_000), r)

	// the smaller ratio wins
	lp, err := SubsequentLPIssuance(
		math.NewInt(5_000_000), math.NewInt(7_900_000),
		math.NewInt(50_000_000), math.NewInt(80_000_000),
		math.NewInt(100_000_000),
	)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(9_875_000), lp)
}

func TestRatioDeviationBps(t *testing.T) {
	dev, err := RatioDeviationBps(math.NewInt(100_000), math.NewInt(94_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(600), dev)

	dev, err = RatioDeviationBps(math.NewInt(94_000), math.NewInt(100_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(600), dev)

	dev, err = RatioDeviationBps(math.NewInt(7), math.NewInt(7))
	require.NoError(t, err)
	require.True(t, dev.IsZero())

	_, err = RatioDeviationBps(math.ZeroInt(), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestApplyBpsAndMulDiv(t *testing.T) {
	v, err := ApplyBps(math.NewInt(15_000_000), 5_000)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(7_500_000), v)

	v, err = ApplyBps(math.NewInt(999), 1)
	require.NoError(t, err)
	require.True(t, v.IsZero())

	_, err = MulDiv(math.NewInt(1), math.NewInt(1), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestRejectsBadOperands(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"zero reserve in", func() error {
			_, err := SwapOutput(math.ZeroInt(), math.NewInt(1), math.NewInt(1), 30)
			return err
		}},
		{"negative amount", func() error {
			_, err := SwapOutput(math.NewInt(1), math.NewInt(1), math.NewInt(-1), 30)
			return err
		}},
		{"nil operand", func() error {
			_, err := InitialLPIssuance(math.Int{}, math.NewInt(1))
			return err
		}},
		{"zero reserve ratio", func() error {
			_, err := ShareRatio(math.NewInt(1), math.ZeroInt())
			return err
		}},
		{"zero supply", func() error {
			_, err := ProRataWithdrawal(math.NewInt(1), math.ZeroInt(), math.ZeroInt())
			return err
		}},
		{"result wider than 128 bits", func() error {
			_, err := MulDiv(types.MaxUint128, math.NewInt(2), math.NewInt(1))
			return err
		}},
		{"intermediate wider than 256 bits", func() error {
			wide := types.MaxUint128.Mul(math.NewInt(1 << 62))
			_, err := ConstantProduct(wide, wide)
			return err
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.fn(), types.ErrInvalidAmount)
		})
	}
}

func TestInvariantComparisons(t *testing.T) {
	require.True(t, ProductNonDecreasing(math.NewInt(10), math.NewInt(10), math.NewInt(11), math.NewInt(10)))
	require.False(t, ProductNonDecreasing(math.NewInt(10), math.NewInt(10), math.NewInt(9), math.NewInt(11)))

	// doubling reserves and supply keeps k/lp^2 constant
	require.True(t, ProductPerShareNonDecreasing(
		math.NewInt(10), math.NewInt(40), math.NewInt(20),
		math.NewInt(20), math.NewInt(80), math.NewInt(40),
	))
	// minting one unit too many dilutes
	require.False(t, ProductPerShareNonDecreasing(
		math.NewInt(10), math.NewInt(40), math.NewInt(20),
		math.NewInt(20), math.NewInt(80), math.NewInt(41),
	))
	require.True(t, ProductPerShareNonDecreasing(
		math.ZeroInt(), math.ZeroInt(), math.ZeroInt(),
		math.NewInt(4), math.NewInt(9), math.NewInt(6),
	))
	require.False(t, ProductPerShareNonDecreasing(
		math.NewInt(4), math.NewInt(9), math.NewInt(6),
		math.NewInt(1), math.NewInt(1), math.ZeroInt(),
	))
}
