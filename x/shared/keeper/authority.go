// Package keeper provides keeper utilities shared by the settlement modules.
package keeper

import (
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"
)

// ValidateAuthority checks that actual is the configured governance authority.
// An unconfigured (empty) authority never validates, so governance-only paths
// such as parameter updates and emergency withdrawals stay closed until one is set.
//
//	if err := sharedkeeper.ValidateAuthority(k.authority, tx.Authority); err != nil {
//	    return err
//	}
func ValidateAuthority(expected, actual string) error {
	if expected == "" {
		return govtypes.ErrInvalidSigner.Wrap("no governance authority configured")
	}
	if expected != actual {
		return govtypes.ErrInvalidSigner.Wrapf(
			"invalid authority; expected %s, got %s",
			expected,
			actual,
		)
	}
	return nil
}
