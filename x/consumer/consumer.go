package consumer

import (
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/GPTx-global/oraclelink/x/consumer/keeper"
	"github.com/GPTx-global/oraclelink/x/consumer/types"
	coordinatorkeeper "github.com/GPTx-global/oraclelink/x/coordinator/keeper"
)

// NewConsumer builds the consumer called name and registers it with
// coordinator as the program receiving results for its address.
func NewConsumer(
	storeKey storetypes.StoreKey,
	name string,
	agreementID common.Hash,
	coordinator *coordinatorkeeper.Keeper,
	bankKeeper types.BankKeeper,
) (*keeper.Keeper, error) {
	k, err := keeper.NewKeeper(storeKey, name, agreementID, coordinator, bankKeeper)
	if err != nil {
		return nil, err
	}
	coordinator.SetRequester(k.Address(), k)
	return k, nil
}
