package testutil

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// FilterEvents returns the events of type typ in emission order.
func FilterEvents(events sdk.Events, typ string) sdk.Events {
	var out sdk.Events
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// IndexOfEvent returns the position of the first event of type typ, or -1.
func IndexOfEvent(events sdk.Events, typ string) int {
	for i, e := range events {
		if e.Type == typ {
			return i
		}
	}
	return -1
}

// Attribute returns the value of key in e.
func Attribute(e sdk.Event, key string) string {
	for _, attr := range e.Attributes {
		if string(attr.Key) == key {
			return string(attr.Value)
		}
	}
	return ""
}
