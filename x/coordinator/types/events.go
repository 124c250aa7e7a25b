package types

// coordinator module event types
const (
	EventTypeAgreementRegistered = "agreement_registered"
	EventTypeOracleRequest       = "oracle_request"
	EventTypeOracleResponse      = "oracle_response"
	EventTypeRequestFulfilled    = "request_fulfilled"
	EventTypeCallbackDelivered   = "callback_delivered"
	EventTypeCallbackFailed      = "callback_failed"
	EventTypeWithdraw            = "withdraw"
	EventTypeRoundOpened         = "round_opened"
	EventTypeRoundClosed         = "round_closed"

	AttributeKeyAgreementID = "agreement_id"
	AttributeKeyRequestID   = "request_id"
	AttributeKeyRequester   = "requester"
	AttributeKeyPayment     = "payment"
	AttributeKeyDataVersion = "data_version"
	AttributeKeyParams      = "params"
	AttributeKeyOracles     = "oracles"
	AttributeKeyOracle      = "oracle"
	AttributeKeyAggregator  = "aggregator"
	AttributeKeyQuorum      = "quorum"
	AttributeKeyValue       = "value"
	AttributeKeyPayees      = "payees"
	AttributeKeyError       = "error"
	AttributeKeyAmount      = "amount"
	AttributeKeySubmissions = "submissions"
	AttributeKeyResult      = "result"
	AttributeKeySequence    = "sequence"
)
