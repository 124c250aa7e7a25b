package types

import (
	errorsmod "cosmossdk.io/errors"
)

// errors
var (
	ErrDuplicateAgreement       = errorsmod.Register(ModuleName, 2, "service agreement already registered")
	ErrUnknownAgreement         = errorsmod.Register(ModuleName, 3, "unknown service agreement")
	ErrInvalidAgreement         = errorsmod.Register(ModuleName, 4, "invalid service agreement")
	ErrInsufficientPayment      = errorsmod.Register(ModuleName, 5, "insufficient payment")
	ErrUnauthorized             = errorsmod.Register(ModuleName, 6, "caller is not authorized")
	ErrUnknownRequest           = errorsmod.Register(ModuleName, 7, "unknown or already fulfilled request")
	ErrUnknownRound             = errorsmod.Register(ModuleName, 8, "unknown aggregation round")
	ErrDuplicateSubmission      = errorsmod.Register(ModuleName, 9, "oracle already submitted for this round")
	ErrClosedRound              = errorsmod.Register(ModuleName, 10, "aggregation round already closed")
	ErrInvalidSubmission        = errorsmod.Register(ModuleName, 11, "submission value is not a valid number")
	ErrUnknownAggregator        = errorsmod.Register(ModuleName, 12, "no aggregation strategy bound to aggregator type")
	ErrRequestIDCollision       = errorsmod.Register(ModuleName, 13, "request id already in use")
	ErrInvalidSignature         = errorsmod.Register(ModuleName, 14, "invalid oracle signature")
	ErrInsufficientWithdrawable = errorsmod.Register(ModuleName, 15, "amount exceeds withdrawable balance")
	ErrInvalidParams            = errorsmod.Register(ModuleName, 16, "invalid module params")
)
