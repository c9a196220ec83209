package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/paw-chain/settlement/app"
)

const (
	flagServe  = "serve"
	flagLinger = "linger"
	flagCORS   = "cors"
	flagOutput = "output"
)

// SimulateCmd settles a scenario file on an engine built from the operator
// configuration.
func SimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Settle the transitions of a scenario file and print the results",
		Long: `Settle the transitions of a scenario file and print the results.

The engine uses the configured database backend. An uninitialized store is
loaded from --genesis, or from the default genesis. The scenario pool is
created unless it already exists. The command fails when any step ends
differently than the scenario expects.

With --serve, metrics are exposed on --metrics-addr and the health and pool
endpoints on --health-addr while the scenario runs and for --linger after.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := getCommandContext(cmd)
			cfg, logger := cmdCtx.config, cmdCtx.logger

			output, _ := cmd.Flags().GetString(flagOutput)
			if err := validateOutput(output); err != nil {
				return err
			}
			sc, err := LoadScenario(args[0])
			if err != nil {
				return err
			}

			tel, err := app.InitTelemetry(cfg.Telemetry)
			if err != nil {
				return err
			}
			defer func() {
				if err := tel.Shutdown(context.Background()); err != nil {
					logger.Error("failed to flush traces", "error", err)
				}
			}()

			engine, err := app.NewSettlementAppFromConfig(logger, cfg)
			if err != nil {
				return err
			}
			defer engine.Close()

			if !engine.Initialized() {
				genesisPath, _ := cmd.Flags().GetString(flagGenesis)
				genesis := app.NewDefaultGenesisState()
				if genesisPath != "" {
					if genesis, err = app.LoadGenesisFile(genesisPath); err != nil {
						return err
					}
				}
				start, err := sc.startTime()
				if err != nil {
					return err
				}
				if err := engine.InitChain(genesis, start); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serve, _ := cmd.Flags().GetBool(flagServe)
			if serve {
				enableCORS, _ := cmd.Flags().GetBool(flagCORS)
				srv, err := newOperatorServer(cfg, engine, logger, enableCORS)
				if err != nil {
					return err
				}
				srv.Start()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					if err := srv.Stop(shutdownCtx); err != nil {
						logger.Error("failed to stop operator server", "error", err)
					}
				}()
			}

			results, runErr := NewSimulator(engine, logger, cfg.Authority).Run(ctx, sc)

			report := map[string]interface{}{
				"scenario": sc.Name,
				"version":  engine.LastCommitID().Version,
				"results":  results,
			}
			write := printYAML
			if output == "json" {
				write = printJSON
			}
			if printErr := write(cmd.OutOrStdout(), report); printErr != nil {
				return printErr
			}

			if linger, _ := cmd.Flags().GetDuration(flagLinger); serve && linger > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(linger):
				}
			}
			return runErr
		},
	}

	def := app.DefaultConfig()
	cmd.Flags().String(flagGenesis, "", "genesis file for an uninitialized store")
	cmd.Flags().String(flagOutput, "yaml", "output format (yaml or json)")
	cmd.Flags().Bool(flagServe, false, "serve metrics, health and pool endpoints while running")
	cmd.Flags().Duration(flagLinger, 0, "keep serving for this long after the scenario finishes")
	cmd.Flags().Bool(flagCORS, false, "allow cross-origin reads of the pool endpoints")
	cmd.Flags().String(app.FlagMetricsAddr, def.MetricsAddr, "prometheus metrics listen address")
	cmd.Flags().String(app.FlagHealthAddr, def.HealthAddr, "health and pool endpoint listen address")
	return cmd
}

func validateOutput(output string) error {
	switch output {
	case "yaml", "json":
		return nil
	}
	return fmt.Errorf("unsupported output format %q", output)
}
