package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/paw-chain/settlement/app"
)

const (
	flagOverwrite = "overwrite"

	configDir      = "config"
	configFileName = "settled.yaml"
	genesisFile    = "genesis.json"
)

// InitCmd writes a default operator config and genesis file under the home
// directory.
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config and genesis files to the home directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := getCommandContext(cmd)
			cfg := cmdCtx.config
			overwrite, _ := cmd.Flags().GetBool(flagOverwrite)

			dir := filepath.Join(cfg.Home, configDir)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			configPath := filepath.Join(dir, configFileName)
			genesisPath := filepath.Join(dir, genesisFile)
			if !overwrite {
				for _, path := range []string{configPath, genesisPath} {
					if _, err := os.Stat(path); err == nil {
						return fmt.Errorf("%s already exists, use --%s to replace it", path, flagOverwrite)
					}
				}
			}

			configBz, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			if err := os.WriteFile(configPath, configBz, 0o600); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			genesisBz, err := json.MarshalIndent(app.NewDefaultGenesisState(), "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(genesisPath, genesisBz, 0o600); err != nil {
				return fmt.Errorf("failed to write genesis: %w", err)
			}

			cmdCtx.logger.Info("initialized home", "home", cfg.Home)
			fmt.Fprintf(cmd.OutOrStdout(), "config: %s\ngenesis: %s\n", configPath, genesisPath)
			return nil
		},
	}
	cmd.Flags().Bool(flagOverwrite, false, "replace existing files")
	return cmd
}

// GenesisCmd groups the genesis file helpers.
func GenesisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Genesis file helpers",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "default",
			Short: "Print the default genesis",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printJSON(cmd.OutOrStdout(), app.NewDefaultGenesisState())
			},
		},
		&cobra.Command{
			Use:   "validate <genesis.json>",
			Short: "Validate a genesis file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				genesis, err := app.LoadGenesisFile(args[0])
				if err != nil {
					return err
				}
				if err := genesis.Validate(); err != nil {
					return fmt.Errorf("invalid genesis %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "genesis %s is valid\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

// ExportCmd prints the committed state of a persistent engine as genesis.
func ExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the committed engine state as genesis JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := getCommandContext(cmd)
			engine, err := app.NewSettlementAppFromConfig(cmdCtx.logger, cmdCtx.config)
			if err != nil {
				return err
			}
			defer engine.Close()

			if !engine.Initialized() {
				return fmt.Errorf("no committed state under %s", cmdCtx.config.DataDir())
			}
			genesis, err := engine.ExportGenesis()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), genesis)
		},
	}
}
