// Package keys derives the oracle signing key from a bip39 mnemonic.
package keys

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/tyler-smith/go-bip39"

	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Key is an oracle signing key and its account address.
type Key struct {
	priv    *ecdsa.PrivateKey
	address sdk.AccAddress
}

// NewMnemonic returns a fresh 24 word mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// FromMnemonic derives the key at hdPath.
func FromMnemonic(mnemonic, hdPath string) (*Key, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet: %w", err)
	}
	path, err := hdwallet.ParseDerivationPath(hdPath)
	if err != nil {
		return nil, fmt.Errorf("invalid hd path %q: %w", hdPath, err)
	}
	account, err := wallet.Derive(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to derive %s: %w", hdPath, err)
	}
	priv, err := wallet.PrivateKey(account)
	if err != nil {
		return nil, fmt.Errorf("failed to export key: %w", err)
	}

	return NewKey(priv), nil
}

// NewKey wraps an existing secp256k1 key.
func NewKey(priv *ecdsa.PrivateKey) *Key {
	return &Key{priv: priv, address: types.AddressFromPubKey(&priv.PublicKey)}
}

// Load reads the mnemonic file and derives the key at hdPath.
func Load(mnemonicFile, hdPath string) (*Key, error) {
	bz, err := os.ReadFile(mnemonicFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read mnemonic file: %w", err)
	}
	return FromMnemonic(string(bz), hdPath)
}

// WriteMnemonic stores a new mnemonic at path unless a file already exists
// there, and returns the mnemonic in use.
func WriteMnemonic(path string) (string, error) {
	if bz, err := os.ReadFile(path); err == nil {
		return strings.TrimSpace(string(bz)), nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	mnemonic, err := NewMnemonic()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(mnemonic+"\n"), 0600); err != nil {
		return "", err
	}
	return mnemonic, nil
}

func (k *Key) Address() sdk.AccAddress {
	return k.address
}

// Sign signs a 32 byte digest.
func (k *Key) Sign(digest []byte) ([]byte, error) {
	return types.Sign(digest, k.priv)
}

// PrivateKey exposes the raw key for tests and tooling.
func (k *Key) PrivateKey() *ecdsa.PrivateKey {
	return k.priv
}
