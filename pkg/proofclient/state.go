package proofclient

// FlowState is the client-side verification dialog state.
type FlowState string

const (
	StateIdle      FlowState = "IDLE"
	StateSelected  FlowState = "SELECTED_NO_RESULT"
	StateVerifying FlowState = "VERIFYING"
	StateResulted  FlowState = "RESULTED"
)

// stateMachine enforces verification flow transitions. Closing the flow
// resets to IDLE from any state and is handled outside the table.
type stateMachine struct {
	allowedTransitions map[FlowState][]FlowState
}

func newStateMachine() *stateMachine {
	return &stateMachine{
		allowedTransitions: map[FlowState][]FlowState{
			StateIdle:      {StateSelected},
			StateSelected:  {StateSelected, StateVerifying},
			StateVerifying: {StateResulted, StateSelected},
			StateResulted:  {StateSelected},
		},
	}
}

// CanTransition checks if a state transition is allowed
func (sm *stateMachine) CanTransition(from, to FlowState) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}
