// Copyright 2022 Evmos Foundation
// This file is part of the Evmos Network packages.
//
// Evmos is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The Evmos packages are distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the Evmos packages. If not, see https://github.com/evmos/evmos/blob/main/LICENSE
package types

import (
	"math/big"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// AttoGuru defines the denomination used for agreement payments, escrow and
	// oracle withdrawals.
	AttoGuru string = "aguru"

	// BaseDenomUnit defines the base denomination unit for guru.
	// 1 guru = 1x10^{BaseDenomUnit} aguru
	BaseDenomUnit = 18

	// Bech32PrefixAccAddr is the account address prefix used on the API.
	Bech32PrefixAccAddr = "guru"
	// Bech32PrefixAccPub is the account public key prefix.
	Bech32PrefixAccPub = Bech32PrefixAccAddr + "pub"
)

// OneGuru is 1 guru expressed in aguru.
var OneGuru = sdkmath.NewIntFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(BaseDenomUnit), nil))

// NewGuruCoin is a utility function that returns an "aguru" coin with the given sdkmath.Int amount.
// The function will panic if the provided amount is negative.
func NewGuruCoin(amount sdkmath.Int) sdk.Coin {
	return sdk.NewCoin(AttoGuru, amount)
}

// NewGuruCoinInt64 is a utility function that returns an "aguru" coin with the given int64 amount.
// The function will panic if the provided amount is negative.
func NewGuruCoinInt64(amount int64) sdk.Coin {
	return sdk.NewInt64Coin(AttoGuru, amount)
}

// SetBech32Prefixes configures the global sdk config for guru addresses.
// It is a no-op once the config is sealed.
func SetBech32Prefixes(config *sdk.Config) {
	defer func() { _ = recover() }()
	config.SetBech32PrefixForAccount(Bech32PrefixAccAddr, Bech32PrefixAccPub)
}
