// Package ammmath holds the pure integer arithmetic of the constant-product
// pool. Every function floors, none touches state, and every intermediate is
// bounded to 256 bits while every result is bounded to 128 bits.
package ammmath

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/paw-chain/settlement/x/settlement/types"
)

const (
	// Scale is the fixed-point precision of share ratios.
	Scale int64 = 1_000_000

	// MaxIntermediateBits is the ledger integer width available to intermediates.
	MaxIntermediateBits = 256

	// MaxResultBits is the width of every persisted quantity.
	MaxResultBits = 128
)

var (
	bpsDenominator = big.NewInt(int64(types.BasisPointsDenominator))
	scale          = big.NewInt(Scale)
)

func operand(name string, v math.Int) (*big.Int, error) {
	if v.IsNil() {
		return nil, errorsmod.Wrapf(types.ErrInvalidAmount, "%s is unset", name)
	}
	if v.IsNegative() {
		return nil, errorsmod.Wrapf(types.ErrInvalidAmount, "%s is negative: %s", name, v)
	}
	return v.BigInt(), nil
}

func positive(name string, v math.Int) (*big.Int, error) {
	b, err := operand(name, v)
	if err != nil {
		return nil, err
	}
	if b.Sign() == 0 {
		return nil, errorsmod.Wrapf(types.ErrInvalidAmount, "%s must be positive", name)
	}
	return b, nil
}

func bounded(what string, v *big.Int) error {
	if v.BitLen() > MaxIntermediateBits {
		return errorsmod.Wrapf(types.ErrInvalidAmount, "%s exceeds %d bits", what, MaxIntermediateBits)
	}
	return nil
}

func result(what string, v *big.Int) (math.Int, error) {
	if v.BitLen() > MaxResultBits {
		return math.Int{}, errorsmod.Wrapf(types.ErrInvalidAmount, "%s exceeds %d bits", what, MaxResultBits)
	}
	return math.NewIntFromBigInt(v), nil
}

// mulDiv computes floor(a*b/c) for non-negative a, b and positive c.
func mulDiv(what string, a, b, c *big.Int) (*big.Int, error) {
	product := new(big.Int).Mul(a, b)
	if err := bounded(what, product); err != nil {
		return nil, err
	}
	return product.Quo(product, c), nil
}

// MulDiv returns floor(a * b / c).
func MulDiv(a, b, c math.Int) (math.Int, error) {
	x, err := operand("multiplicand", a)
	if err != nil {
		return math.Int{}, err
	}
	y, err := operand("multiplier", b)
	if err != nil {
		return math.Int{}, err
	}
	z, err := positive("divisor", c)
	if err != nil {
		return math.Int{}, err
	}
	q, err := mulDiv("mul div product", x, y, z)
	if err != nil {
		return math.Int{}, err
	}
	return result("mul div", q)
}

// ApplyBps returns floor(amount * bps / 10000).
func ApplyBps(amount math.Int, bps uint32) (math.Int, error) {
	return MulDiv(amount, math.NewIntFromUint64(uint64(bps)), math.NewIntFromUint64(uint64(types.BasisPointsDenominator)))
}

// AmountInWithFee returns amount_in * (10000 - fee_bps).
func AmountInWithFee(amountIn math.Int, feeBps uint16) (math.Int, error) {
	in, err := operand("amount in", amountIn)
	if err != nil {
		return math.Int{}, err
	}
	if uint32(feeBps) >= types.BasisPointsDenominator {
		return math.Int{}, errorsmod.Wrapf(types.ErrInvalidAmount, "fee %d bps leaves nothing to trade", feeBps)
	}
	factor := big.NewInt(int64(types.BasisPointsDenominator) - int64(feeBps))
	v := new(big.Int).Mul(in, factor)
	if err := bounded("amount in with fee", v); err != nil {
		return math.Int{}, err
	}
	return math.NewIntFromBigInt(v), nil
}

// SwapOutput returns the amount paid out of reserveOut for amountIn deposited
// into reserveIn:
//
//	floor(aif * reserve_out / (reserve_in * 10000 + aif)), aif = amount_in * (10000 - fee_bps)
func SwapOutput(reserveIn, reserveOut, amountIn math.Int, feeBps uint16) (math.Int, error) {
	rin, err := positive("reserve in", reserveIn)
	if err != nil {
		return math.Int{}, err
	}
	rout, err := positive("reserve out", reserveOut)
	if err != nil {
		return math.Int{}, err
	}
	aifInt, err := AmountInWithFee(amountIn, feeBps)
	if err != nil {
		return math.Int{}, err
	}
	aif := aifInt.BigInt()

	denominator := new(big.Int).Mul(rin, bpsDenominator)
	denominator.Add(denominator, aif)
	if err := bounded("swap denominator", denominator); err != nil {
		return math.Int{}, err
	}
	if denominator.Sign() == 0 {
		return math.Int{}, errorsmod.Wrap(types.ErrInvalidAmount, "swap denominator is zero")
	}
	out, err := mulDiv("swap numerator", aif, rout, denominator)
	if err != nil {
		return math.Int{}, err
	}
	return result("swap output", out)
}

// InitialLPIssuance returns floor(sqrt(base * quote)).
func InitialLPIssuance(base, quote math.Int) (math.Int, error) {
	b, err := operand("base amount", base)
	if err != nil {
		return math.Int{}, err
	}
	q, err := operand("quote amount", quote)
	if err != nil {
		return math.Int{}, err
	}
	product := new(big.Int).Mul(b, q)
	if err := bounded("initial deposit product", product); err != nil {
		return math.Int{}, err
	}
	return result("initial lp issuance", product.Sqrt(product))
}

// ShareRatio returns floor(amount * Scale / reserve).
func ShareRatio(amount, reserve math.Int) (math.Int, error) {
	a, err := operand("amount", amount)
	if err != nil {
		return math.Int{}, err
	}
	r, err := positive("reserve", reserve)
	if err != nil {
		return math.Int{}, err
	}
	ratio, err := mulDiv("share ratio", a, scale, r)
	if err != nil {
		return math.Int{}, err
	}
	return result("share ratio", ratio)
}

// SubsequentLPIssuance returns floor(lp_supply * min(base_ratio, quote_ratio) / Scale).
// Issuing against the smaller ratio means any excess on the other side is donated
// to the pool.
func SubsequentLPIssuance(base, quote, baseReserve, quoteReserve, lpSupply math.Int) (math.Int, error) {
	baseRatio, err := ShareRatio(base, baseReserve)
	if err != nil {
		return math.Int{}, err
	}
	quoteRatio, err := ShareRatio(quote, quoteReserve)
	if err != nil {
		return math.Int{}, err
	}
	supply, err := positive("lp supply", lpSupply)
	if err != nil {
		return math.Int{}, err
	}
	ratio := math.MinInt(baseRatio, quoteRatio)
	lp, err := mulDiv("lp issuance", supply, ratio.BigInt(), scale)
	if err != nil {
		return math.Int{}, err
	}
	return result("lp issuance", lp)
}

// RatioDeviationBps returns floor(|a - b| * 10000 / max(a, b)).
func RatioDeviationBps(a, b math.Int) (math.Int, error) {
	x, err := operand("ratio", a)
	if err != nil {
		return math.Int{}, err
	}
	y, err := operand("ratio", b)
	if err != nil {
		return math.Int{}, err
	}
	hi, lo := x, y
	if hi.Cmp(lo) < 0 {
		hi, lo = lo, hi
	}
	if hi.Sign() == 0 {
		return math.Int{}, errorsmod.Wrap(types.ErrInvalidAmount, "both ratios are zero")
	}
	diff := new(big.Int).Sub(hi, lo)
	dev, err := mulDiv("ratio deviation", diff, bpsDenominator, hi)
	if err != nil {
		return math.Int{}, err
	}
	return result("ratio deviation", dev)
}

// ProRataWithdrawal returns floor(reserve * lp_burn / lp_supply).
func ProRataWithdrawal(reserve, lpBurn, lpSupply math.Int) (math.Int, error) {
	r, err := operand("reserve", reserve)
	if err != nil {
		return math.Int{}, err
	}
	burn, err := operand("lp burn", lpBurn)
	if err != nil {
		return math.Int{}, err
	}
	supply, err := positive("lp supply", lpSupply)
	if err != nil {
		return math.Int{}, err
	}
	if burn.Cmp(supply) > 0 {
		return math.Int{}, errorsmod.Wrapf(types.ErrInvalidAmount, "burn %s exceeds supply %s", lpBurn, lpSupply)
	}
	out, err := mulDiv("pro rata product", r, burn, supply)
	if err != nil {
		return math.Int{}, err
	}
	return result("pro rata withdrawal", out)
}

// ConstantProduct returns base * quote.
func ConstantProduct(base, quote math.Int) (math.Int, error) {
	b, err := operand("base reserve", base)
	if err != nil {
		return math.Int{}, err
	}
	q, err := operand("quote reserve", quote)
	if err != nil {
		return math.Int{}, err
	}
	k := new(big.Int).Mul(b, q)
	if err := bounded("constant product", k); err != nil {
		return math.Int{}, err
	}
	return math.NewIntFromBigInt(k), nil
}

func mulAll(factors ...math.Int) *big.Int {
	p := big.NewInt(1)
	for _, f := range factors {
		p.Mul(p, f.BigInt())
	}
	return p
}

// ProductNonDecreasing reports whether newBase*newQuote >= oldBase*oldQuote.
// The comparison is done on unbounded integers.
func ProductNonDecreasing(oldBase, oldQuote, newBase, newQuote math.Int) bool {
	return mulAll(newBase, newQuote).Cmp(mulAll(oldBase, oldQuote)) >= 0
}

// ProductPerShareNonDecreasing reports whether k/lp^2 did not decrease, i.e.
// newK * oldLP^2 >= oldK * newLP^2. A pool with no previous supply has no share
// to protect; a pool left with no supply must be left with no reserves.
func ProductPerShareNonDecreasing(oldBase, oldQuote, oldLP, newBase, newQuote, newLP math.Int) bool {
	if oldLP.IsZero() {
		return true
	}
	if newLP.IsZero() {
		return newBase.IsZero() && newQuote.IsZero()
	}
	lhs := mulAll(newBase, newQuote, oldLP, oldLP)
	rhs := mulAll(oldBase, oldQuote, newLP, newLP)
	return lhs.Cmp(rhs) >= 0
}
