package model

// EventType classifies an inbound provider notification after parsing.
type EventType string

const (
	EventTypePaymentCompleted EventType = "payment.completed"
	EventTypeOther            EventType = "other" // recognized but irrelevant; acknowledged and ignored
)

// PaymentEvent is the validated, typed result of parsing a webhook payload.
// It is produced by a provider adapter only after the signature check passed,
// so business code never sees raw provider JSON.
type PaymentEvent struct {
	Type              EventType
	EventID           string // provider delivery/event id, used for duplicate suppression
	Provider          string
	ProviderPaymentID string // provider transaction id
	ListingID         string // business correlation attached at checkout time
	Tier              Tier   // tier attached at checkout time
	Amount            int64  // minor units as reported by the provider
	RawType           string // provider's own event type string, for logs
}
