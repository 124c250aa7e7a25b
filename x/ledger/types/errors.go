package types

import (
	errorsmod "cosmossdk.io/errors"
)

// errors
var (
	ErrInsufficientFunds = errorsmod.Register(ModuleName, 2, "insufficient funds")
	ErrInvalidCoins      = errorsmod.Register(ModuleName, 3, "invalid coins")
	ErrInvalidAddress    = errorsmod.Register(ModuleName, 4, "invalid address")
)
