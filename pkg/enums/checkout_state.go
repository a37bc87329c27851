package enums

// CheckoutState is the per-cart checkout state machine.
// Idle never recurs once a cart reaches Completed.
type CheckoutState string

const (
	CheckoutStateIdle       CheckoutState = "idle"
	CheckoutStateInProgress CheckoutState = "in_progress"
	CheckoutStateCompleted  CheckoutState = "completed"
	CheckoutStateFailed     CheckoutState = "failed"
)
