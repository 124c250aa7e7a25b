package keeper_test

import (
	"crypto/ecdsa"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/GPTx-global/oraclelink/x/coordinator/keeper"
	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

func (s *KeeperTestSuite) newOracleKey() (*ecdsa.PrivateKey, sdk.AccAddress) {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	return key, types.AddressFromPubKey(&key.PublicKey)
}

func (s *KeeperTestSuite) sign(digest []byte, key *ecdsa.PrivateKey) []byte {
	sig, err := types.Sign(digest, key)
	s.Require().NoError(err)
	return sig
}

func (s *KeeperTestSuite) TestMsgServerFlow() {
	srv := keeper.NewMsgServerImpl(s.f.CoordinatorKeeper)
	goCtx := sdk.WrapSDKContext(s.f.Ctx)

	keyA, addrA := s.newOracleKey()
	keyB, addrB := s.newOracleKey()

	msg := &types.MsgRegisterAgreement{
		Oracles:    []string{addrA.String(), addrB.String()},
		Aggregator: "median",
		Payment:    payment,
	}
	agreement, err := msg.Agreement()
	s.Require().NoError(err)

	msg.Signatures = [][]byte{s.sign(types.AgreementDigest(agreement.ID), keyA), []byte("bogus")}
	_, err = srv.RegisterAgreement(goCtx, msg)
	s.Require().ErrorIs(err, types.ErrInvalidSignature)
	s.Require().False(s.f.CoordinatorKeeper.HasAgreement(s.f.Ctx, agreement.ID))

	msg.Signatures[1] = s.sign(types.AgreementDigest(agreement.ID), keyB)
	res, err := srv.RegisterAgreement(goCtx, msg)
	s.Require().NoError(err)
	s.Require().Equal(agreement.ID, res.AgreementID)

	id := s.request(agreement)

	value := []byte("12")
	fulfill := &types.MsgFulfillOracleRequest{Oracle: addrA.String(), RequestID: id, Value: value}
	fulfill.Signature = s.sign(types.FulfillmentDigest(id, value), keyB)
	_, err = srv.FulfillOracleRequest(goCtx, fulfill)
	s.Require().ErrorIs(err, types.ErrInvalidSignature)

	fulfill.Signature = s.sign(types.FulfillmentDigest(id, value), keyA)
	_, err = srv.FulfillOracleRequest(goCtx, fulfill)
	s.Require().NoError(err)

	value = []byte("20")
	_, err = srv.FulfillOracleRequest(goCtx, &types.MsgFulfillOracleRequest{
		Oracle:    addrB.String(),
		RequestID: id,
		Value:     value,
		Signature: s.sign(types.FulfillmentDigest(id, value), keyB),
	})
	s.Require().NoError(err)

	request, _ := s.f.CoordinatorKeeper.GetRequest(s.f.Ctx, id)
	s.Require().Equal(types.RequestStateFulfilled, request.State)
	s.Require().Equal(types.EncodeWord(sdkmath.NewInt(16).BigInt()), request.Result)

	amount := sdkmath.NewInt(20)
	chainID := s.f.Ctx.ChainID()
	withdraw := &types.MsgWithdraw{Oracle: addrB.String(), Amount: amount, Signature: s.sign(types.WithdrawalDigest(chainID, addrA, 0, amount), keyA)}
	_, err = srv.Withdraw(goCtx, withdraw)
	s.Require().ErrorIs(err, types.ErrInvalidSignature)

	withdraw.Signature = s.sign(types.WithdrawalDigest("other-chain", addrB, 0, amount), keyB)
	_, err = srv.Withdraw(goCtx, withdraw)
	s.Require().ErrorIs(err, types.ErrInvalidSignature)

	withdraw.Signature = s.sign(types.WithdrawalDigest(chainID, addrB, 0, amount), keyB)
	_, err = srv.Withdraw(goCtx, withdraw)
	s.Require().NoError(err)
	s.Require().True(s.f.Balance(addrB).Equal(amount))

	// the same signed withdrawal cannot be replayed
	_, err = srv.Withdraw(goCtx, withdraw)
	s.Require().ErrorIs(err, types.ErrInvalidSignature)
	s.Require().True(s.f.Balance(addrB).Equal(amount))

	withdraw.Signature = s.sign(types.WithdrawalDigest(chainID, addrB, 1, amount), keyB)
	_, err = srv.Withdraw(goCtx, withdraw)
	s.Require().NoError(err)
	s.Require().True(s.f.Balance(addrB).Equal(amount.MulRaw(2)))
}

func (s *KeeperTestSuite) TestMsgValidateBasic() {
	_, addr := s.newOracleKey()

	tests := []struct {
		name string
		msg  interface{ ValidateBasic() error }
		err  error
	}{
		{
			name: "unknown aggregator",
			msg:  types.MsgRegisterAgreement{Oracles: []string{addr.String()}, Aggregator: "mode", Payment: payment, Signatures: [][]byte{nil}},
			err:  types.ErrUnknownAggregator,
		},
		{
			name: "signature count",
			msg:  types.MsgRegisterAgreement{Oracles: []string{addr.String()}, Payment: payment},
			err:  types.ErrInvalidSignature,
		},
		{
			name: "empty request id",
			msg:  types.MsgFulfillOracleRequest{Oracle: addr.String()},
			err:  types.ErrUnknownRequest,
		},
	}
	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.Require().ErrorIs(tc.msg.ValidateBasic(), tc.err)
		})
	}

	s.Require().Error(types.MsgWithdraw{Oracle: addr.String(), Amount: sdkmath.ZeroInt()}.ValidateBasic())
	s.Require().Error(types.MsgWithdraw{Oracle: "guru1bad", Amount: sdkmath.OneInt()}.ValidateBasic())
}
