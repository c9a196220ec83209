package keeper

import (
	"encoding/json"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	sharedkeeper "github.com/paw-chain/settlement/x/shared/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

// GetParams returns the current parameters. A store without params yields the
// defaults so that read-only tooling works against an uninitialised engine.
func (k Keeper) GetParams(ctx sdk.Context) types.Params {
	bz := k.getStore(ctx).Get(types.ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}
	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		panic(fmt.Sprintf("corrupt settlement params: %v", err))
	}
	return params
}

// SetParams validates and stores params.
func (k Keeper) SetParams(ctx sdk.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	bz, err := json.Marshal(params)
	if err != nil {
		return errorsmod.Wrapf(types.ErrInvalidParams, "encode params: %v", err)
	}
	k.getStore(ctx).Set(types.ParamsKey, bz)
	return nil
}

// UpdateParams replaces the params on behalf of the governance authority.
func (k Keeper) UpdateParams(ctx sdk.Context, authority string, params types.Params) error {
	if err := sharedkeeper.ValidateAuthority(k.authority, authority); err != nil {
		return errorsmod.Wrap(types.ErrUnauthorized, err.Error())
	}
	if err := k.SetParams(ctx, params); err != nil {
		return err
	}

	k.Logger(ctx).Info("settlement params updated", "version", params.Version, "authority", authority)
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeParamsUpdated,
			sdk.NewAttribute(types.AttributeKeyParamsVer, fmt.Sprintf("%d", params.Version)),
		),
	)
	return nil
}
