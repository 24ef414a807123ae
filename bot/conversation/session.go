package conversation

import (
	"time"

	"github.com/m3rciful/adboard/bot/listing"
	"github.com/m3rciful/adboard/core/telegram/state"
)

// Steps of a submission, in order.
const (
	StateAwaitingCategory    state.State = "awaiting_category"
	StateAwaitingTitle       state.State = "awaiting_title"
	StateAwaitingDescription state.State = "awaiting_description"
	StateAwaitingPrice       state.State = "awaiting_price"
	StateAwaitingPhoto       state.State = "awaiting_photo"
	StateAwaitingContact     state.State = "awaiting_contact"
)

// Session is one user's submission in progress. It lives only in memory.
type Session struct {
	// ID correlates log lines of one submission.
	ID        string
	UserID    int64
	State     state.State
	Draft     listing.Draft
	StartedAt time.Time
	// Album is the media group the draft photo was taken from.
	Album string
}

// CurrentState implements state.Stateful.
func (s Session) CurrentState() state.State { return s.State }

// Sessions is the in-memory session manager used by the engine.
type Sessions = state.Manager[Session]

// NewSessions returns an empty session manager.
func NewSessions() *Sessions { return state.NewMemoryManager[Session]() }
