package crm

import (
	"errors"
	"fmt"
)

// ErrUnknownEventType is returned when an action code is not part of the closed vocabulary.
var ErrUnknownEventType = errors.New("unknown event type")

// EventType is the closed set of actions that can be recorded against a company.
type EventType string

const (
	EventContactAttempt     EventType = "contact_attempt"
	EventLprConversation    EventType = "lpr_conversation"
	EventDiscoveryFilled    EventType = "discovery_filled"
	EventDemoPlanned        EventType = "demo_planned"
	EventDemoConducted      EventType = "demo_conducted"
	EventInvoiceIssued      EventType = "invoice_issued"
	EventPaymentReceived    EventType = "payment_received"
	EventCertificateIssued  EventType = "certificate_issued"
	EventApplicationCreated EventType = "application_created"
	EventCpSent             EventType = "cp_sent"
)

// EventTypes lists every recordable action.
var EventTypes = []EventType{
	EventContactAttempt,
	EventLprConversation,
	EventDiscoveryFilled,
	EventDemoPlanned,
	EventDemoConducted,
	EventInvoiceIssued,
	EventPaymentReceived,
	EventCertificateIssued,
	EventApplicationCreated,
	EventCpSent,
}

var eventTypeLabels = map[EventType]string{
	EventContactAttempt:     "Contact attempt",
	EventLprConversation:    "Decision-maker conversation",
	EventDiscoveryFilled:    "Discovery filled",
	EventDemoPlanned:        "Demo planned",
	EventDemoConducted:      "Demo conducted",
	EventInvoiceIssued:      "Invoice issued",
	EventPaymentReceived:    "Payment received",
	EventCertificateIssued:  "Certificate issued",
	EventApplicationCreated: "Application created",
	EventCpSent:             "Proposal sent",
}

// ParseEventType maps an action code to its EventType. Unknown codes are
// rejected, never defaulted.
func ParseEventType(code string) (EventType, error) {
	t := EventType(code)
	if _, ok := eventTypeLabels[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventType, code)
	}
	return t, nil
}

// Label returns the human-readable action name.
func (t EventType) Label() string {
	return eventTypeLabels[t]
}

func (t EventType) String() string {
	return string(t)
}
