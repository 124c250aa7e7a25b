package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

// MsgServer is the transaction surface of the coordinator.
type MsgServer interface {
	RegisterAgreement(goCtx context.Context, msg *types.MsgRegisterAgreement) (*types.MsgRegisterAgreementResponse, error)
	FulfillOracleRequest(goCtx context.Context, msg *types.MsgFulfillOracleRequest) (*types.MsgFulfillOracleRequestResponse, error)
	Withdraw(goCtx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error)
}

type msgServer struct {
	*Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
// for the provided Keeper.
func NewMsgServerImpl(keeper *Keeper) MsgServer {
	return &msgServer{Keeper: keeper}
}

var _ MsgServer = msgServer{}

// RegisterAgreement checks every oracle consented to the agreement and
// registers it.
func (k msgServer) RegisterAgreement(goCtx context.Context, msg *types.MsgRegisterAgreement) (*types.MsgRegisterAgreementResponse, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	agreement, err := msg.Agreement()
	if err != nil {
		return nil, err
	}
	if err := types.VerifyOracleSignatures(agreement, msg.Signatures); err != nil {
		return nil, err
	}

	id, err := k.Keeper.RegisterAgreement(ctx, agreement)
	if err != nil {
		return nil, err
	}
	return &types.MsgRegisterAgreementResponse{AgreementID: id}, nil
}

// FulfillOracleRequest submits an oracle's value after checking the oracle
// signed it.
func (k msgServer) FulfillOracleRequest(goCtx context.Context, msg *types.MsgFulfillOracleRequest) (*types.MsgFulfillOracleRequestResponse, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	oracle, err := sdk.AccAddressFromBech32(msg.Oracle)
	if err != nil {
		return nil, errorsmod.Wrap(sdkerrors.ErrInvalidAddress, err.Error())
	}
	if err := types.VerifySigner(types.FulfillmentDigest(msg.RequestID, msg.Value), msg.Signature, oracle); err != nil {
		return nil, err
	}

	if err := k.Keeper.FulfillOracleRequest(ctx, msg.RequestID, msg.Value, oracle); err != nil {
		return nil, err
	}
	return &types.MsgFulfillOracleRequestResponse{}, nil
}

// Withdraw pays out an oracle's earnings.
func (k msgServer) Withdraw(goCtx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	oracle, err := sdk.AccAddressFromBech32(msg.Oracle)
	if err != nil {
		return nil, errorsmod.Wrap(sdkerrors.ErrInvalidAddress, err.Error())
	}
	digest := types.WithdrawalDigest(ctx.ChainID(), oracle, k.GetWithdrawSequence(ctx, oracle), msg.Amount)
	if err := types.VerifySigner(digest, msg.Signature, oracle); err != nil {
		return nil, err
	}

	if err := k.Keeper.Withdraw(ctx, oracle, msg.Amount); err != nil {
		return nil, err
	}
	return &types.MsgWithdrawResponse{}, nil
}
