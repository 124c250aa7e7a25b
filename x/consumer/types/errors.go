package types

import (
	errorsmod "cosmossdk.io/errors"
)

// errors
var (
	ErrInsufficientFunds = errorsmod.Register(ModuleName, 2, "insufficient funds for agreement payment")
	ErrUnauthorized      = errorsmod.Register(ModuleName, 3, "caller is not the configured coordinator")
	ErrInvalidName       = errorsmod.Register(ModuleName, 4, "invalid consumer name")
)
