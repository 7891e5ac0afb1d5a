package models

import "strings"

// Intent is the closed set of operations a customer turn can map to
type Intent string

const (
	IntentFAQ          Intent = "csv"
	IntentOrderLookup  Intent = "mysql"
	IntentReschedule   Intent = "reschedule_delivery"
	IntentAddress      Intent = "address_change"
	IntentGeneral      Intent = "general"
	IntentCapabilities Intent = "capabilities"
	IntentSmallTalk    Intent = "small_talks"
	IntentFrustration  Intent = "frustration"
	IntentVIP          Intent = "vip"
)

// AllIntents lists every valid intent
var AllIntents = []Intent{
	IntentFAQ,
	IntentOrderLookup,
	IntentReschedule,
	IntentAddress,
	IntentGeneral,
	IntentCapabilities,
	IntentSmallTalk,
	IntentFrustration,
	IntentVIP,
}

// ParseIntent returns the intent for a raw label and whether it is in the closed set
func ParseIntent(raw string) (Intent, bool) {
	label := Intent(strings.ToLower(strings.Trim(strings.TrimSpace(raw), `"'.`)))
	for _, intent := range AllIntents {
		if intent == label {
			return intent, true
		}
	}
	return IntentGeneral, false
}

// String returns the label
func (i Intent) String() string {
	return string(i)
}

// WaitingFor marks the slot a session is blocked on
type WaitingFor string

const (
	WaitingNone    WaitingFor = ""
	WaitingOrderID WaitingFor = "order_id"
	WaitingDate    WaitingFor = "date"
	WaitingAddress WaitingFor = "address"
)

// ParseWaitingFor maps a stored value back onto the enum; unknown values mean none
func ParseWaitingFor(raw string) WaitingFor {
	switch WaitingFor(raw) {
	case WaitingOrderID, WaitingDate, WaitingAddress:
		return WaitingFor(raw)
	default:
		return WaitingNone
	}
}

// LookupKind is the sub-intent of an order lookup
type LookupKind string

const (
	LookupInvoice  LookupKind = "invoice"
	LookupShipment LookupKind = "shipment"
	LookupAll      LookupKind = "all"
)
