package cmd

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paw-chain/settlement/app"
)

const flagConfig = "config"

type contextKey struct{}

// commandContext carries the resolved operator configuration to subcommands.
type commandContext struct {
	config app.Config
	logger log.Logger
}

// NewRootCmd creates the root command of settled.
func NewRootCmd() *cobra.Command {
	v := app.NewViper()

	rootCmd := &cobra.Command{
		Use:   app.Name,
		Short: "AMM pool settlement engine",
		Long: `settled evaluates pool transitions (pool creation, swaps, liquidity provision and
withdrawal) against versioned pool snapshots and an LP token supply ledger.

Configuration is read from --config, SETTLED_* environment variables and flags,
in increasing order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// set the default command outputs
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())

			return loadCommandContext(cmd, v)
		},
	}

	pf := rootCmd.PersistentFlags()
	def := app.DefaultConfig()
	pf.String(flagConfig, "", "config file (yaml or toml)")
	pf.String(app.FlagHome, def.Home, "directory for config and data")
	pf.String(app.FlagDBBackend, def.DBBackend, "database backend (memdb or goleveldb)")
	pf.String(app.FlagAuthority, def.Authority, "governance authority allowed to approve emergency withdrawals")
	pf.Int(app.FlagPruneBatch, def.PruneBatch, "maximum freshness markers pruned per block")
	pf.Uint(app.FlagInvariantCheckPeriod, def.InvariantCheckPeriod, "assert invariants every N blocks (0 disables)")
	pf.String(app.FlagLogLevel, def.LogLevel, "log level or module filter (e.g. x/settlement:debug,*:info)")
	pf.String(app.FlagLogFormat, def.LogFormat, "log format (plain or json)")

	rootCmd.AddCommand(
		InitCmd(),
		GenesisCmd(),
		ParamsCmd(),
		QuoteCmd(),
		SimulateCmd(),
		ExportCmd(),
	)

	return rootCmd
}

func loadCommandContext(cmd *cobra.Command, v *viper.Viper) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString(flagConfig); path != "" {
		if err := app.ReadConfigFile(v, path); err != nil {
			return err
		}
	}

	cfg, err := app.ConfigFromViper(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := app.NewLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, contextKey{}, &commandContext{config: cfg, logger: logger}))
	return nil
}

func getCommandContext(cmd *cobra.Command) *commandContext {
	if cmdCtx, ok := cmd.Context().Value(contextKey{}).(*commandContext); ok {
		return cmdCtx
	}
	return &commandContext{config: app.DefaultConfig(), logger: log.NewNopLogger()}
}
