package types

import (
	"github.com/cosmos/cosmos-sdk/codec"
)

// ModuleCdc encodes module state. Stored values are plain structs, so no
// interface registration is needed beyond the messages.
var ModuleCdc = codec.NewLegacyAmino()

func init() {
	RegisterLegacyAminoCodec(ModuleCdc)
	ModuleCdc.Seal()
}

// RegisterLegacyAminoCodec registers the coordinator messages on cdc.
func RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&MsgRegisterAgreement{}, "coordinator/MsgRegisterAgreement", nil)
	cdc.RegisterConcrete(&MsgFulfillOracleRequest{}, "coordinator/MsgFulfillOracleRequest", nil)
	cdc.RegisterConcrete(&MsgWithdraw{}, "coordinator/MsgWithdraw", nil)
}
