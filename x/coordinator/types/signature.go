package types

import (
	"crypto/ecdsa"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	fulfillDomain  = []byte("oracle.fulfill")
	withdrawDomain = []byte("oracle.withdraw")
)

// AgreementDigest is the hash an oracle signs to consent to an agreement.
func AgreementDigest(agreementID common.Hash) []byte {
	return agreementID.Bytes()
}

// FulfillmentDigest is the hash an oracle signs when submitting value for
// requestID.
func FulfillmentDigest(requestID common.Hash, value []byte) []byte {
	return crypto.Keccak256(fulfillDomain, requestID.Bytes(), value)
}

// WithdrawalDigest is the hash an oracle signs to withdraw amount. sequence is
// the oracle's current withdrawal sequence, so a signature is good for one
// withdrawal on one chain.
func WithdrawalDigest(chainID string, oracle sdk.AccAddress, sequence uint64, amount sdkmath.Int) []byte {
	return crypto.Keccak256(
		withdrawDomain,
		[]byte{byte(len(chainID))}, []byte(chainID),
		[]byte{byte(len(oracle))}, oracle,
		Uint64ToBytes(sequence),
		[]byte(amount.String()),
	)
}

// AddressFromPubKey returns the account address of a secp256k1 key.
func AddressFromPubKey(pub *ecdsa.PublicKey) sdk.AccAddress {
	return sdk.AccAddress(crypto.PubkeyToAddress(*pub).Bytes())
}

// Sign produces a 65 byte [R || S || V] signature over digest.
func Sign(digest []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	return crypto.Sign(digest, key)
}

// RecoverSigner returns the address that produced sig over digest.
func RecoverSigner(digest, sig []byte) (sdk.AccAddress, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, errorsmod.Wrapf(ErrInvalidSignature, "signature length %d", len(sig))
	}
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidSignature, err.Error())
	}
	return AddressFromPubKey(pub), nil
}

// VerifySigner checks that sig over digest was produced by expected.
func VerifySigner(digest, sig []byte, expected sdk.AccAddress) error {
	signer, err := RecoverSigner(digest, sig)
	if err != nil {
		return err
	}
	if !signer.Equals(expected) {
		return errorsmod.Wrapf(ErrInvalidSignature, "signed by %s, expected %s", signer, expected)
	}
	return nil
}

// VerifyOracleSignatures checks that every oracle of the agreement signed its
// id. Signatures are matched to oracles by position.
func VerifyOracleSignatures(agreement ServiceAgreement, signatures [][]byte) error {
	if len(signatures) != len(agreement.Oracles) {
		return errorsmod.Wrapf(ErrInvalidSignature, "got %d signatures for %d oracles", len(signatures), len(agreement.Oracles))
	}
	digest := AgreementDigest(agreement.ID)
	for i, oracle := range agreement.Oracles {
		if err := VerifySigner(digest, signatures[i], oracle); err != nil {
			return errorsmod.Wrapf(err, "oracle %d", i)
		}
	}
	return nil
}
