package types

import (
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
)

// BankKeeper defines the expected interface needed to check the consumer's
// funds.
type BankKeeper interface {
	GetBalance(ctx sdk.Context, addr sdk.AccAddress, denom string) sdk.Coin
}

// CoordinatorKeeper defines the coordinator surface a consumer depends on.
type CoordinatorKeeper interface {
	coordinatortypes.Fulfiller

	GetParams(ctx sdk.Context) coordinatortypes.Params
	GetAgreement(ctx sdk.Context, id common.Hash) (coordinatortypes.ServiceAgreement, error)
	TransferAndRequest(ctx sdk.Context, requester sdk.AccAddress, agreementID common.Hash, params []byte, amount sdkmath.Int) (common.Hash, error)
}
