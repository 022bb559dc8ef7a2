package event

// Type identifies the kind of domain event.
type Type string

const (
	TypeApplicationSubmitted    Type = "application.submitted"
	TypeApplicationTransitioned Type = "application.transitioned"
	TypeApplicationEscalated    Type = "application.escalated"
	TypeApplicationFinalized    Type = "application.finalized"
	TypePaymentConfirmed        Type = "payment.confirmed"
	TypeDocumentsVerified       Type = "documents.verified"
)

// String returns the string representation of the event type.
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants.
func (t Type) IsValid() bool {
	switch t {
	case TypeApplicationSubmitted,
		TypeApplicationTransitioned,
		TypeApplicationEscalated,
		TypeApplicationFinalized,
		TypePaymentConfirmed,
		TypeDocumentsVerified:
		return true
	default:
		return false
	}
}
