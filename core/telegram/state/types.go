package state

// State identifies a finite-state-machine step used in conversations.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = "idle"

// Stateful is implemented by session payloads that expose their current step.
type Stateful interface {
	CurrentState() State
}
