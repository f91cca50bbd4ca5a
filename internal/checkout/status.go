package checkout

// AttemptStatus tracks one checkout attempt through the payment saga.
// Payment capture is irreversible from the client's point of view; every
// status after PaymentCompleted degrades rather than rolls back.
type AttemptStatus string

const (
	StatusInitiated        AttemptStatus = "INITIATED"
	StatusIntentCreated    AttemptStatus = "INTENT_CREATED"
	StatusPaymentCompleted AttemptStatus = "PAYMENT_COMPLETED"
	StatusActivated        AttemptStatus = "ACTIVATED"
	StatusCompleted        AttemptStatus = "COMPLETED"
	StatusFailed           AttemptStatus = "FAILED"
)

var transitions = map[AttemptStatus][]AttemptStatus{
	StatusInitiated:        {StatusIntentCreated, StatusFailed},
	StatusIntentCreated:    {StatusPaymentCompleted, StatusFailed},
	StatusPaymentCompleted: {StatusActivated, StatusCompleted}, // activation failure still completes
	StatusActivated:        {StatusCompleted},
}

func CanTransitionTo(from, to AttemptStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s AttemptStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// String representation (for logging)
func (s AttemptStatus) String() string {
	return string(s)
}
