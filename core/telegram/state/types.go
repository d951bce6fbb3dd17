package state

import tele "gopkg.in/telebot.v4"

// State identifies a finite-state-machine step used in conversations.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = "idle"

// Manager tracks the dialog state of each user and dispatches updates to the
// handler registered for that state.
type Manager interface {
	SetState(userID int64, st State)
	GetState(userID int64) State
	ClearState(userID int64)
	InProgress(userID int64) bool

	// Handle registers the handler invoked by ManagerHandler for st.
	Handle(st State, h tele.HandlerFunc)
	ManagerHandler(c tele.Context) error
}
