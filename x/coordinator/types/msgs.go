package types

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/ethereum/go-ethereum/common"
)

// MsgRegisterAgreement registers a service agreement. Every oracle must have
// signed the resulting agreement id.
type MsgRegisterAgreement struct {
	Oracles    []string    `json:"oracles"`
	Aggregator string      `json:"aggregator"`
	Quorum     uint32      `json:"quorum"`
	Payment    sdkmath.Int `json:"payment"`
	Signatures [][]byte    `json:"signatures"`
}

type MsgRegisterAgreementResponse struct {
	AgreementID common.Hash `json:"agreement_id"`
}

// Agreement builds the agreement described by the message.
func (msg MsgRegisterAgreement) Agreement() (ServiceAgreement, error) {
	oracles := make([]sdk.AccAddress, len(msg.Oracles))
	for i, o := range msg.Oracles {
		addr, err := sdk.AccAddressFromBech32(o)
		if err != nil {
			return ServiceAgreement{}, errorsmod.Wrapf(sdkerrors.ErrInvalidAddress, "oracle %d: %v", i, err)
		}
		oracles[i] = addr
	}
	aggregator, err := ParseAggregatorType(msg.Aggregator)
	if err != nil {
		return ServiceAgreement{}, err
	}
	return NewServiceAgreement(oracles, aggregator, msg.Quorum, msg.Payment), nil
}

func (msg MsgRegisterAgreement) ValidateBasic() error {
	agreement, err := msg.Agreement()
	if err != nil {
		return err
	}
	if err := agreement.Validate(); err != nil {
		return err
	}
	if len(msg.Signatures) != len(msg.Oracles) {
		return errorsmod.Wrapf(ErrInvalidSignature, "got %d signatures for %d oracles", len(msg.Signatures), len(msg.Oracles))
	}
	return nil
}

// MsgFulfillOracleRequest submits an oracle's value for a pending request.
// Signature is the oracle's signature over FulfillmentDigest.
type MsgFulfillOracleRequest struct {
	Oracle    string      `json:"oracle"`
	RequestID common.Hash `json:"request_id"`
	Value     []byte      `json:"value"`
	Signature []byte      `json:"signature"`
}

type MsgFulfillOracleRequestResponse struct{}

func (msg MsgFulfillOracleRequest) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Oracle); err != nil {
		return errorsmod.Wrapf(sdkerrors.ErrInvalidAddress, "invalid oracle address: %v", err)
	}
	if msg.RequestID == (common.Hash{}) {
		return errorsmod.Wrap(ErrUnknownRequest, "empty request id")
	}
	return nil
}

func (msg MsgFulfillOracleRequest) GetSigners() []sdk.AccAddress {
	oracle, _ := sdk.AccAddressFromBech32(msg.Oracle)
	return []sdk.AccAddress{oracle}
}

// MsgWithdraw moves an oracle's earnings out of coordinator custody.
// Signature is the oracle's signature over WithdrawalDigest.
type MsgWithdraw struct {
	Oracle    string      `json:"oracle"`
	Amount    sdkmath.Int `json:"amount"`
	Signature []byte      `json:"signature"`
}

type MsgWithdrawResponse struct{}

func (msg MsgWithdraw) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Oracle); err != nil {
		return errorsmod.Wrapf(sdkerrors.ErrInvalidAddress, "invalid oracle address: %v", err)
	}
	if msg.Amount.IsNil() || !msg.Amount.IsPositive() {
		return errorsmod.Wrapf(sdkerrors.ErrInvalidCoins, "amount must be positive")
	}
	return nil
}

func (msg MsgWithdraw) GetSigners() []sdk.AccAddress {
	oracle, _ := sdk.AccAddressFromBech32(msg.Oracle)
	return []sdk.AccAddress{oracle}
}
