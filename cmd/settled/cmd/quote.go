package cmd

import (
	"time"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/paw-chain/settlement/x/settlement/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

const (
	flagPool         = "pool"
	flagQuoteAsset   = "quote-asset"
	flagLPAsset      = "lp-asset"
	flagBaseReserve  = "base-reserve"
	flagQuoteReserve = "quote-reserve"
	flagLPSupply     = "lp-supply"
	flagFeeBps       = "fee-bps"

	flagDirection       = "direction"
	flagAmountIn        = "amount-in"
	flagMinOut          = "min-out"
	flagBase            = "base"
	flagQuote           = "quote"
	flagMinLPOut        = "min-lp-out"
	flagMaxDeviationBps = "max-deviation-bps"
	flagInitial         = "initial"
	flagLP              = "lp"
	flagMinBase         = "min-base"
	flagMinQuote        = "min-quote"
	flagEmergency       = "emergency"
)

// quoteResult is the printed outcome of a quote.
type quoteResult struct {
	Operation    string          `json:"operation"`
	BaseIn       math.Int        `json:"base_in"`
	QuoteIn      math.Int        `json:"quote_in"`
	BaseOut      math.Int        `json:"base_out"`
	QuoteOut     math.Int        `json:"quote_out"`
	LPMinted     math.Int        `json:"lp_minted"`
	LPBurned     math.Int        `json:"lp_burned"`
	DeviationBps *math.Int       `json:"deviation_bps,omitempty"`
	Successor    types.PoolState `json:"successor"`
}

func newQuoteResult(kind types.OperationKind, successor types.PoolState) quoteResult {
	receipt := types.NewReceipt(kind, successor, 0)
	return quoteResult{
		Operation: kind.String(),
		BaseIn:    receipt.BaseIn,
		QuoteIn:   receipt.QuoteIn,
		BaseOut:   receipt.BaseOut,
		QuoteOut:  receipt.QuoteOut,
		LPMinted:  receipt.LPMinted,
		LPBurned:  receipt.LPBurned,
		Successor: successor,
	}
}

// QuoteCmd evaluates an operation against a pool described by flags without
// touching any store.
func QuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute the outcome of an operation against a pool state",
	}

	cmd.PersistentFlags().String(flagPool, "pool/upaw-uusdc", "pool identity")
	cmd.PersistentFlags().String(flagQuoteAsset, "uusdc", "quote asset id")
	cmd.PersistentFlags().String(flagLPAsset, "lp/upaw-uusdc", "lp asset id")
	cmd.PersistentFlags().String(flagBaseReserve, "0", "base reserve of the pool")
	cmd.PersistentFlags().String(flagQuoteReserve, "0", "quote reserve of the pool")
	cmd.PersistentFlags().String(flagLPSupply, "0", "outstanding lp supply of the pool")
	cmd.PersistentFlags().Uint16(flagFeeBps, 30, "pool fee in basis points")
	cmd.PersistentFlags().String(flagGenesis, "", "genesis file to read params from")

	cmd.AddCommand(
		quoteSwapCmd(),
		quoteProvideCmd(),
		quoteWithdrawCmd(),
	)
	return cmd
}

func quoteSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Quote a swap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, pool, err := quoteInputs(cmd.Flags())
			if err != nil {
				return err
			}
			dirStr, _ := cmd.Flags().GetString(flagDirection)
			direction, err := types.ParseSwapDirection(dirStr)
			if err != nil {
				return err
			}
			amountIn, err := amountFlag(cmd.Flags(), flagAmountIn)
			if err != nil {
				return err
			}
			minOut, err := amountFlag(cmd.Flags(), flagMinOut)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			intent := types.SwapIntent{
				Direction: direction,
				AmountIn:  amountIn,
				MinOut:    minOut,
				Deadline:  now.Add(time.Minute),
			}
			if err := intent.ValidateBasic(); err != nil {
				return err
			}
			outcome, err := keeper.ComputeSwap(params, pool, intent, now)
			if err != nil {
				return err
			}

			res := newQuoteResult(types.OpSwap, outcome.Successor)
			if direction == types.BaseToQuote {
				res.BaseIn, res.QuoteOut = outcome.AmountIn, outcome.AmountOut
			} else {
				res.QuoteIn, res.BaseOut = outcome.AmountIn, outcome.AmountOut
			}
			return printYAML(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().String(flagDirection, types.BaseToQuote.String(), "swap direction (base_to_quote or quote_to_base)")
	cmd.Flags().String(flagAmountIn, "", "input amount")
	cmd.Flags().String(flagMinOut, "0", "minimum acceptable output")
	return cmd
}

func quoteProvideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provide",
		Short: "Quote a liquidity provision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, pool, err := quoteInputs(cmd.Flags())
			if err != nil {
				return err
			}
			base, err := amountFlag(cmd.Flags(), flagBase)
			if err != nil {
				return err
			}
			quote, err := amountFlag(cmd.Flags(), flagQuote)
			if err != nil {
				return err
			}
			minLPOut, err := amountFlag(cmd.Flags(), flagMinLPOut)
			if err != nil {
				return err
			}
			maxDeviation, _ := cmd.Flags().GetUint32(flagMaxDeviationBps)
			initial, _ := cmd.Flags().GetBool(flagInitial)

			intent := types.ProvideLiquidityIntent{
				BaseAmount:           base,
				QuoteAmount:          quote,
				MinLPOut:             minLPOut,
				MaxRatioDeviationBps: maxDeviation,
				IsInitial:            initial,
			}
			if err := intent.ValidateBasic(); err != nil {
				return err
			}
			outcome, err := keeper.ComputeProvision(params, pool, intent)
			if err != nil {
				return err
			}

			res := newQuoteResult(types.OpProvideLiquidity, outcome.Successor)
			res.BaseIn, res.QuoteIn, res.LPMinted = outcome.BaseIn, outcome.QuoteIn, outcome.LPMinted
			if !outcome.DeviationBps.IsNil() {
				res.DeviationBps = &outcome.DeviationBps
			}
			return printYAML(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().String(flagBase, "", "base amount to deposit")
	cmd.Flags().String(flagQuote, "", "quote amount to deposit")
	cmd.Flags().String(flagMinLPOut, "0", "minimum acceptable lp tokens")
	cmd.Flags().Uint32(flagMaxDeviationBps, 0, "ratio deviation tolerance in basis points (0 uses the params cap)")
	cmd.Flags().Bool(flagInitial, false, "first deposit into an empty pool")
	return cmd
}

func quoteWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Quote a liquidity withdrawal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, pool, err := quoteInputs(cmd.Flags())
			if err != nil {
				return err
			}
			lp, err := amountFlag(cmd.Flags(), flagLP)
			if err != nil {
				return err
			}
			minBase, err := amountFlag(cmd.Flags(), flagMinBase)
			if err != nil {
				return err
			}
			minQuote, err := amountFlag(cmd.Flags(), flagMinQuote)
			if err != nil {
				return err
			}
			emergency, _ := cmd.Flags().GetBool(flagEmergency)

			intent := types.WithdrawLiquidityIntent{
				LPAmountToBurn: lp,
				MinBaseOut:     minBase,
				MinQuoteOut:    minQuote,
				IsEmergency:    emergency,
			}
			if err := intent.ValidateBasic(); err != nil {
				return err
			}
			outcome, err := keeper.ComputeWithdrawal(params, pool, intent)
			if err != nil {
				return err
			}

			res := newQuoteResult(types.OpWithdrawLiquidity, outcome.Successor)
			res.BaseOut, res.QuoteOut, res.LPBurned = outcome.BaseOut, outcome.QuoteOut, outcome.LPBurned
			return printYAML(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().String(flagLP, "", "lp tokens to burn")
	cmd.Flags().String(flagMinBase, "0", "minimum acceptable base output")
	cmd.Flags().String(flagMinQuote, "0", "minimum acceptable quote output")
	cmd.Flags().Bool(flagEmergency, false, "use the emergency reserve floors")
	return cmd
}

func amountFlag(flags *pflag.FlagSet, name string) (math.Int, error) {
	s, err := flags.GetString(name)
	if err != nil {
		return math.Int{}, err
	}
	return parseAmount(name, s)
}

// quoteInputs reads the params and the pool state named by the quote flags.
func quoteInputs(flags *pflag.FlagSet) (types.Params, types.PoolState, error) {
	genesisPath, _ := flags.GetString(flagGenesis)
	params, err := loadParams(genesisPath)
	if err != nil {
		return types.Params{}, types.PoolState{}, err
	}

	poolID, _ := flags.GetString(flagPool)
	quoteAsset, _ := flags.GetString(flagQuoteAsset)
	lpAsset, _ := flags.GetString(flagLPAsset)
	feeBps, _ := flags.GetUint16(flagFeeBps)

	pool := types.NewEmptyPoolState(poolID, quoteAsset, lpAsset, feeBps)
	if pool.BaseReserve, err = amountFlag(flags, flagBaseReserve); err != nil {
		return types.Params{}, types.PoolState{}, err
	}
	if pool.QuoteReserve, err = amountFlag(flags, flagQuoteReserve); err != nil {
		return types.Params{}, types.PoolState{}, err
	}
	if pool.LPSupply, err = amountFlag(flags, flagLPSupply); err != nil {
		return types.Params{}, types.PoolState{}, err
	}
	if err := pool.Validate(params); err != nil {
		return types.Params{}, types.PoolState{}, err
	}
	return params, pool, nil
}
