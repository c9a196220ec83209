package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paw-chain/settlement/app"
	"github.com/paw-chain/settlement/x/settlement/types"
)

const flagGenesis = "genesis"

// ParamsCmd prints the settlement params in effect.
func ParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print the settlement params as YAML",
		Long: `Print the settlement params as YAML. Without --genesis the built-in defaults
are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString(flagGenesis)
			params, err := loadParams(path)
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), params)
		},
	}
	cmd.Flags().String(flagGenesis, "", "genesis file to read params from")
	return cmd
}

// loadParams reads and validates the params of a genesis file, or returns the
// defaults when path is empty.
func loadParams(path string) (types.Params, error) {
	if path == "" {
		return types.DefaultParams(), nil
	}
	genesis, err := app.LoadGenesisFile(path)
	if err != nil {
		return types.Params{}, err
	}
	if err := genesis.Validate(); err != nil {
		return types.Params{}, err
	}
	state, err := genesis.SettlementGenesis()
	if err != nil {
		return types.Params{}, err
	}
	return state.Params, nil
}
