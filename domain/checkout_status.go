package domain

type CheckoutState string

const (
	CheckoutStateIdle                 CheckoutState = "IDLE"
	CheckoutStateValidating           CheckoutState = "VALIDATING"
	CheckoutStateValidationFailed     CheckoutState = "VALIDATION_FAILED"
	CheckoutStateBranching            CheckoutState = "BRANCHING"
	CheckoutStateDirectSubmission     CheckoutState = "DIRECT_SUBMISSION"
	CheckoutStateGatewayInitiation    CheckoutState = "GATEWAY_INITIATION"
	CheckoutStateAwaitingConfirmation CheckoutState = "AWAITING_CONFIRMATION"
	CheckoutStateCompleted            CheckoutState = "COMPLETED"
	CheckoutStateCancelled            CheckoutState = "CANCELLED"
	CheckoutStateFailed               CheckoutState = "FAILED"
)

var transitions = map[CheckoutState][]CheckoutState{
	CheckoutStateIdle:             {CheckoutStateValidating, CheckoutStateAwaitingConfirmation},
	CheckoutStateValidating:       {CheckoutStateValidationFailed, CheckoutStateBranching},
	CheckoutStateValidationFailed: {CheckoutStateIdle},
	CheckoutStateBranching:        {CheckoutStateDirectSubmission, CheckoutStateGatewayInitiation},
	CheckoutStateDirectSubmission: {CheckoutStateCompleted, CheckoutStateFailed},
	// a failed initiation goes straight back to Idle
	CheckoutStateGatewayInitiation:    {CheckoutStateAwaitingConfirmation, CheckoutStateIdle},
	CheckoutStateAwaitingConfirmation: {CheckoutStateCompleted, CheckoutStateCancelled, CheckoutStateFailed, CheckoutStateIdle},
	CheckoutStateCompleted:            {CheckoutStateIdle},
	CheckoutStateCancelled:            {CheckoutStateIdle},
	CheckoutStateFailed:               {CheckoutStateIdle},
}

// CanTransitionTo reports whether the checkout state machine allows from -> to.
func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateCompleted || s == CheckoutStateCancelled || s == CheckoutStateFailed
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}
