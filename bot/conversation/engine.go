// Package conversation drives the guided listing submission dialogue.
// Each user has at most one Session; all events for a user are handled
// one at a time under that user's lock.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/adboard/bot/listing"
	"github.com/m3rciful/adboard/bot/texts"
	"github.com/m3rciful/adboard/core/logger"
	"github.com/m3rciful/adboard/core/telegram/state"
)

// Store is the persistence the engine needs.
type Store interface {
	DailyCount(ctx context.Context, userID int64, date string) (int, error)
	TrySubmit(ctx context.Context, userID int64, date string, draft listing.Draft, limit int) (int64, error)
	ListRecent(ctx context.Context, n int) ([]listing.Listing, error)
}

// DefaultCategories are offered when none are configured.
var DefaultCategories = []string{"🏠 Аренда", "💼 Работа", "🔧 Услуги", "🛒 Куплю/Продам", "🎁 Отдам даром"}

const (
	DefaultDailyLimit  = 5
	DefaultRecentLimit = 5
	DefaultSkipKeyword = "нет"
	DefaultCurrency    = "CZK"
)

// Options tune the engine. Zero values fall back to the defaults above.
type Options struct {
	DailyLimit  int
	RecentLimit int
	SkipKeyword string
	Currency    string
	Categories  []string
	// Location defines the calendar day used for quota accounting.
	Location *time.Location
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.DailyLimit <= 0 {
		o.DailyLimit = DefaultDailyLimit
	}
	if o.RecentLimit <= 0 {
		o.RecentLimit = DefaultRecentLimit
	}
	if strings.TrimSpace(o.SkipKeyword) == "" {
		o.SkipKeyword = DefaultSkipKeyword
	}
	o.SkipKeyword = strings.TrimSpace(o.SkipKeyword)
	if strings.TrimSpace(o.Currency) == "" {
		o.Currency = DefaultCurrency
	}
	if len(o.Categories) == 0 {
		o.Categories = DefaultCategories
	}
	o.Categories = slices.Clone(o.Categories)
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Engine is the conversation state machine.
type Engine struct {
	store    Store
	sessions *Sessions
	opts     Options
}

// New returns an engine over store. A nil sessions manager gets a fresh one.
func New(store Store, sessions *Sessions, opts Options) *Engine {
	if sessions == nil {
		sessions = NewSessions()
	}
	return &Engine{store: store, sessions: sessions, opts: opts.withDefaults()}
}

// Categories returns the configured category labels in display order.
func (e *Engine) Categories() []string { return slices.Clone(e.opts.Categories) }

// InProgress reports whether the user is in the middle of a submission.
func (e *Engine) InProgress(userID int64) bool { return e.sessions.InProgress(userID) }

// Active returns the number of users with a listing in progress.
func (e *Engine) Active() int { return e.sessions.Len() }

// Handle applies ev to the user's session and returns what to show next.
// Invalid input never produces an error; only storage failures do.
func (e *Engine) Handle(ctx context.Context, ev Event) (Action, error) {
	unlock := e.sessions.Lock(ev.UserID)
	defer unlock()

	switch ev.Kind {
	case EventStart:
		return e.start(ctx, ev.UserID)
	case EventCancel:
		return e.cancel(ctx, ev.UserID), nil
	case EventBrowse:
		return e.browse(ctx, ev.UserID)
	case EventMenuSelection, EventText, EventPhoto:
	default:
		return Action{}, fmt.Errorf("conversation: unknown event kind %d", ev.Kind)
	}

	sess, ok := e.sessions.Get(ev.UserID)
	if !ok {
		logger.Debug(ctx, "engine", "no_session",
			slog.Int64("user_id", ev.UserID),
			slog.String("input", ev.Kind.String()),
		)
		return Action{Kind: ActionIdle, Text: texts.IdleMenu, State: state.StateIdle}, nil
	}
	return e.advance(ctx, sess, ev)
}

func (e *Engine) today() string {
	return listing.DateKey(e.opts.Now().In(e.opts.Location))
}

func (e *Engine) start(ctx context.Context, userID int64) (Action, error) {
	date := e.today()
	count, err := e.store.DailyCount(ctx, userID, date)
	if err != nil {
		return Action{}, fmt.Errorf("conversation: start: %w", err)
	}
	if count >= e.opts.DailyLimit {
		logger.Info(ctx, "engine", "quota_rejected",
			slog.Int64("user_id", userID),
			slog.String("date", date),
			slog.Int("count", count),
			slog.Int("limit", e.opts.DailyLimit),
		)
		return Action{
			Kind:  ActionQuotaRejected,
			Text:  texts.QuotaReached(e.opts.DailyLimit),
			State: e.sessions.GetState(userID),
		}, nil
	}

	prev, restarted := e.sessions.Get(userID)
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		State:     StateAwaitingCategory,
		StartedAt: e.opts.Now(),
	}
	e.sessions.Set(userID, sess)

	attrs := []slog.Attr{
		slog.String("session_id", sess.ID),
		slog.Int64("user_id", userID),
		slog.String("next_state", string(sess.State)),
	}
	if restarted {
		attrs = append(attrs, slog.String("replaced_session", prev.ID))
	}
	logger.Info(ctx, "engine", "session_started", attrs...)

	return Action{
		Kind:    ActionPromptWithChoices,
		Text:    texts.ChooseCategory,
		Choices: e.Categories(),
		State:   sess.State,
	}, nil
}

func (e *Engine) cancel(ctx context.Context, userID int64) Action {
	if sess, ok := e.sessions.Get(userID); ok {
		e.sessions.Clear(userID)
		logger.Info(ctx, "engine", "session_cancelled",
			slog.String("session_id", sess.ID),
			slog.Int64("user_id", userID),
			slog.String("state", string(sess.State)),
		)
		return Action{Kind: ActionIdle, Text: texts.Cancelled, State: state.StateIdle}
	}
	return Action{Kind: ActionIdle, Text: texts.IdleMenu, State: state.StateIdle}
}

func (e *Engine) browse(ctx context.Context, userID int64) (Action, error) {
	items, err := e.store.ListRecent(ctx, e.opts.RecentLimit)
	if err != nil {
		return Action{}, fmt.Errorf("conversation: browse: %w", err)
	}
	act := Action{Kind: ActionListings, Listings: items, State: e.sessions.GetState(userID)}
	if len(items) == 0 {
		act.Text = texts.NoListings
	}
	return act, nil
}

func (e *Engine) advance(ctx context.Context, sess Session, ev Event) (Action, error) {
	from := sess.State
	var act Action

	// Telegram delivers an album as one update per picture; only the first
	// one counts.
	if ev.Kind == EventPhoto && ev.Album != "" && ev.Album == sess.Album {
		logger.Debug(ctx, "engine", "album_sibling",
			slog.String("session_id", sess.ID),
			slog.String("state", string(sess.State)),
		)
		return Action{Kind: ActionNone, State: sess.State}, nil
	}

	switch sess.State {
	case StateAwaitingCategory:
		act = e.onCategory(&sess, ev)
	case StateAwaitingTitle:
		act = e.onText(&sess, ev, func(d *listing.Draft, v string) { d.Title = v },
			StateAwaitingDescription, texts.EnterTitle, texts.EnterDescription)
	case StateAwaitingDescription:
		act = e.onText(&sess, ev, func(d *listing.Draft, v string) { d.Description = v },
			StateAwaitingPrice, texts.EnterDescription, texts.EnterPrice(e.opts.Currency))
	case StateAwaitingPrice:
		act = e.onText(&sess, ev, func(d *listing.Draft, v string) { d.Price = v },
			StateAwaitingPhoto, texts.EnterPrice(e.opts.Currency), texts.SendPhoto(e.opts.SkipKeyword))
	case StateAwaitingPhoto:
		act = e.onPhoto(&sess, ev)
	case StateAwaitingContact:
		return e.onContact(ctx, sess, ev)
	default:
		e.sessions.Clear(sess.UserID)
		logger.Warn(ctx, "engine", "bad_state",
			slog.String("session_id", sess.ID),
			slog.String("state", string(sess.State)),
		)
		return Action{Kind: ActionIdle, Text: texts.IdleMenu, State: state.StateIdle}, nil
	}

	if act.Kind != ActionReject {
		e.sessions.Set(sess.UserID, sess)
	}
	act.State = sess.State

	if logger.ShouldSampleDebug() || act.Kind == ActionReject {
		logger.Debug(ctx, "engine", "transition",
			slog.String("session_id", sess.ID),
			slog.String("state", string(from)),
			slog.String("next_state", string(sess.State)),
			slog.String("input", ev.Kind.String()),
			slog.String("status", act.Kind.String()),
		)
	}
	return act, nil
}

func (e *Engine) onCategory(sess *Session, ev Event) Action {
	if ev.Kind == EventMenuSelection {
		label := strings.TrimSpace(ev.Text)
		if slices.Contains(e.opts.Categories, label) {
			sess.Draft.Category = label
			sess.State = StateAwaitingTitle
			return Action{Kind: ActionPrompt, Text: texts.EnterTitle}
		}
	}
	return Action{Kind: ActionReject, Text: texts.UnknownCategory, Choices: e.Categories()}
}

func (e *Engine) onText(sess *Session, ev Event, set func(*listing.Draft, string), next state.State, retry, prompt string) Action {
	v := strings.TrimSpace(ev.Text)
	if ev.Kind != EventText || v == "" {
		return Action{Kind: ActionReject, Text: retry}
	}
	set(&sess.Draft, v)
	sess.State = next
	return Action{Kind: ActionPrompt, Text: prompt}
}

func (e *Engine) onPhoto(sess *Session, ev Event) Action {
	switch ev.Kind {
	case EventPhoto:
		if p, ok := bestPhoto(ev.Photos); ok {
			id := p.FileID
			sess.Draft.Photo = &id
			sess.Album = ev.Album
			sess.State = StateAwaitingContact
			return Action{Kind: ActionPrompt, Text: texts.EnterContact}
		}
	case EventText:
		if strings.EqualFold(strings.TrimSpace(ev.Text), e.opts.SkipKeyword) {
			sess.Draft.Photo = nil
			sess.Album = ""
			sess.State = StateAwaitingContact
			return Action{Kind: ActionPrompt, Text: texts.EnterContact}
		}
	}
	return Action{Kind: ActionReject, Text: texts.PhotoOrSkip(e.opts.SkipKeyword)}
}

// onContact commits the draft. On quota exhaustion the session is dropped;
// on storage failure it is kept at the contact step so the user can resend.
func (e *Engine) onContact(ctx context.Context, sess Session, ev Event) (Action, error) {
	contact := strings.TrimSpace(ev.Text)
	if ev.Kind != EventText || contact == "" {
		return Action{Kind: ActionReject, Text: texts.EnterContact, State: sess.State}, nil
	}
	draft := sess.Draft
	draft.Contact = contact

	date := e.today()
	id, err := e.store.TrySubmit(ctx, sess.UserID, date, draft, e.opts.DailyLimit)
	switch {
	case errors.Is(err, listing.ErrQuotaExceeded):
		e.sessions.Clear(sess.UserID)
		logger.Info(ctx, "engine", "quota_rejected",
			slog.String("session_id", sess.ID),
			slog.Int64("user_id", sess.UserID),
			slog.String("date", date),
			slog.Int("limit", e.opts.DailyLimit),
		)
		return Action{Kind: ActionQuotaRejected, Text: texts.QuotaReached(e.opts.DailyLimit), State: state.StateIdle}, nil
	case err != nil:
		logger.Error(ctx, "engine", "commit_failed",
			slog.String("session_id", sess.ID),
			slog.Int64("user_id", sess.UserID),
			logger.Err(err),
		)
		return Action{}, fmt.Errorf("conversation: commit: %w", err)
	}

	e.sessions.Clear(sess.UserID)
	logger.Info(ctx, "engine", "session_committed",
		slog.String("session_id", sess.ID),
		slog.Int64("user_id", sess.UserID),
		slog.Int64("listing_id", id),
		slog.String("category", draft.Category),
		slog.Duration("duration", logger.RoundMS(e.opts.Now().Sub(sess.StartedAt))),
	)
	return Action{Kind: ActionConfirm, Text: texts.Submitted, ListingID: id, State: state.StateIdle}, nil
}
