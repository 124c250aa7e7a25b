package types

// ledger module event types
const (
	EventTypeTransfer = "transfer"
	EventTypeMint     = "mint"

	AttributeKeyRecipient = "recipient"
	AttributeKeySender    = "sender"
	AttributeKeyAmount    = "amount"
)
