package types

// consumer module event types
const (
	EventTypeValueUpdated = "consumer_value_updated"

	AttributeKeyConsumer  = "consumer"
	AttributeKeyRequestID = "request_id"
	AttributeKeyValue     = "value"
)
