package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/adboard/bot/listing"
	"github.com/m3rciful/adboard/bot/texts"
	"github.com/m3rciful/adboard/core/telegram/state"
)

type memStore struct {
	mu        sync.Mutex
	counts    map[string]int
	listings  []listing.Listing
	submitErr error
	countErr  error
	dates     []string
}

func newMemStore() *memStore { return &memStore{counts: map[string]int{}} }

func key(userID int64, date string) string { return fmt.Sprintf("%d/%s", userID, date) }

func (m *memStore) DailyCount(_ context.Context, userID int64, date string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.counts[key(userID, date)], nil
}

func (m *memStore) TrySubmit(_ context.Context, userID int64, date string, d listing.Draft, limit int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dates = append(m.dates, date)
	if m.submitErr != nil {
		return 0, m.submitErr
	}
	if m.counts[key(userID, date)] >= limit {
		return 0, listing.ErrQuotaExceeded
	}
	m.counts[key(userID, date)]++
	id := int64(len(m.listings) + 1)
	m.listings = append(m.listings, listing.Listing{
		ID: id, UserID: userID, Category: d.Category, Title: d.Title, Description: d.Description,
		Price: d.Price, Photo: d.Photo, Contact: d.Contact,
	})
	return id, nil
}

func (m *memStore) ListRecent(_ context.Context, n int) ([]listing.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []listing.Listing
	for i := len(m.listings) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.listings[i])
	}
	return out, nil
}

func (m *memStore) rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listings)
}

var fixedNow = time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)

func newEngine(t *testing.T, st Store) *Engine {
	t.Helper()
	prague, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)
	return New(st, nil, Options{Location: prague, Now: func() time.Time { return fixedNow }})
}

func handle(t *testing.T, e *Engine, ev Event) Action {
	t.Helper()
	act, err := e.Handle(context.Background(), ev)
	require.NoError(t, err)
	return act
}

// fillUntilContact walks a fresh session up to the contact step.
func fillUntilContact(t *testing.T, e *Engine, user int64) {
	t.Helper()
	handle(t, e, Start(user))
	handle(t, e, MenuSelection(user, "💼 Работа"))
	handle(t, e, Text(user, "Ищу сварщика"))
	handle(t, e, Text(user, "Полный день"))
	handle(t, e, Text(user, "30000"))
	handle(t, e, Text(user, "нет"))
}

func TestFullSubmission(t *testing.T) {
	st := newMemStore()
	e := newEngine(t, st)
	const user = 10

	act := handle(t, e, Start(user))
	assert.Equal(t, ActionPromptWithChoices, act.Kind)
	assert.Equal(t, texts.ChooseCategory, act.Text)
	assert.Equal(t, DefaultCategories, act.Choices)
	assert.Equal(t, StateAwaitingCategory, act.State)

	act = handle(t, e, MenuSelection(user, " 🏠 Аренда "))
	assert.Equal(t, ActionPrompt, act.Kind)
	assert.Equal(t, texts.EnterTitle, act.Text)

	act = handle(t, e, Text(user, "  Комната у парка  "))
	assert.Equal(t, texts.EnterDescription, act.Text)
	act = handle(t, e, Text(user, "20 м², мебель"))
	assert.Equal(t, "Укажите цену (в CZK):", act.Text)
	act = handle(t, e, Text(user, "9000"))
	assert.Equal(t, StateAwaitingPhoto, act.State)

	act = handle(t, e, Photos(user,
		Photo{FileID: "small", Width: 90, Height: 60, FileSize: 1_000},
		Photo{FileID: "large", Width: 1280, Height: 853, FileSize: 120_000},
		Photo{FileID: "medium", Width: 800, Height: 533, FileSize: 60_000},
	))
	assert.Equal(t, texts.EnterContact, act.Text)
	assert.Equal(t, StateAwaitingContact, act.State)
	assert.Zero(t, st.rows())

	act = handle(t, e, Text(user, "+420 777 000 111"))
	assert.Equal(t, ActionConfirm, act.Kind)
	assert.Equal(t, texts.Submitted, act.Text)
	assert.Equal(t, int64(1), act.ListingID)
	assert.Equal(t, state.StateIdle, act.State)
	assert.False(t, e.InProgress(user))

	require.Len(t, st.listings, 1)
	got := st.listings[0]
	assert.Equal(t, "🏠 Аренда", got.Category)
	assert.Equal(t, "Комната у парка", got.Title)
	require.NotNil(t, got.Photo)
	assert.Equal(t, "large", *got.Photo)
	assert.Equal(t, "+420 777 000 111", got.Contact)
	// 23:30 UTC is already the next day in Prague.
	assert.Equal(t, []string{"2024-05-02"}, st.dates)
}

func TestSkipKeywordLeavesPhotoEmpty(t *testing.T) {
	st := newMemStore()
	e := newEngine(t, st)
	handle(t, e, Start(1))
	handle(t, e, MenuSelection(1, "🔧 Услуги"))
	handle(t, e, Text(1, "Ремонт"))
	handle(t, e, Text(1, "Быстро"))
	handle(t, e, Text(1, "договорная"))

	act := handle(t, e, Text(1, "  НЕТ "))
	assert.Equal(t, StateAwaitingContact, act.State)
	handle(t, e, Text(1, "@fixer"))

	require.Len(t, st.listings, 1)
	assert.Nil(t, st.listings[0].Photo)
}

func TestBestPhoto(t *testing.T) {
	p, ok := bestPhoto([]Photo{
		{FileID: "a", Width: 100, Height: 100, FileSize: 10},
		{FileID: "", Width: 4000, Height: 4000, FileSize: 999},
		{FileID: "b", Width: 100, Height: 100, FileSize: 20},
		{FileID: "c", Width: 50, Height: 200, FileSize: 20},
	})
	require.True(t, ok)
	assert.Equal(t, "c", p.FileID, "equal area and size: later variant wins")

	_, ok = bestPhoto([]Photo{{FileID: " "}})
	assert.False(t, ok)
}

func TestAlbumSiblingsAreIgnored(t *testing.T) {
	st := newMemStore()
	e := newEngine(t, st)
	handle(t, e, Start(1))
	handle(t, e, MenuSelection(1, "🔧 Услуги"))
	handle(t, e, Text(1, "t"))
	handle(t, e, Text(1, "d"))
	handle(t, e, Text(1, "p"))

	act := handle(t, e, AlbumPhotos(1, "grp", Photo{FileID: "first", Width: 10, Height: 10}))
	assert.Equal(t, ActionPrompt, act.Kind)
	assert.Equal(t, StateAwaitingContact, act.State)

	act = handle(t, e, AlbumPhotos(1, "grp", Photo{FileID: "second", Width: 90, Height: 90}))
	assert.Equal(t, ActionNone, act.Kind)
	assert.Equal(t, StateAwaitingContact, act.State)

	act = handle(t, e, AlbumPhotos(1, "other", Photo{FileID: "third"}))
	assert.Equal(t, ActionReject, act.Kind)
	assert.Equal(t, texts.EnterContact, act.Text)

	handle(t, e, Text(1, "@me"))
	require.Len(t, st.listings, 1)
	require.NotNil(t, st.listings[0].Photo)
	assert.Equal(t, "first", *st.listings[0].Photo)
}

func TestPhotoStepRejectsOtherInput(t *testing.T) {
	e := newEngine(t, newMemStore())
	handle(t, e, Start(1))
	handle(t, e, MenuSelection(1, "🔧 Услуги"))
	handle(t, e, Text(1, "t"))
	handle(t, e, Text(1, "d"))
	handle(t, e, Text(1, "p"))

	for _, ev := range []Event{Text(1, "maybe"), Photos(1), Photos(1, Photo{FileID: ""}), MenuSelection(1, "🔧 Услуги")} {
		act := handle(t, e, ev)
		assert.Equal(t, ActionReject, act.Kind)
		assert.Equal(t, texts.PhotoOrSkip("нет"), act.Text)
		assert.Equal(t, StateAwaitingPhoto, act.State)
	}
}

func TestRejectsLeaveSessionUnchanged(t *testing.T) {
	e := newEngine(t, newMemStore())
	handle(t, e, Start(1))

	for _, ev := range []Event{Text(1, "🏠 Аренда"), MenuSelection(1, "🚗 Авто"), Photos(1, Photo{FileID: "x"})} {
		act := handle(t, e, ev)
		assert.Equal(t, ActionReject, act.Kind)
		assert.Equal(t, DefaultCategories, act.Choices)
		assert.Equal(t, StateAwaitingCategory, act.State)
	}

	handle(t, e, MenuSelection(1, "🏠 Аренда"))
	for _, ev := range []Event{Text(1, "   "), Photos(1, Photo{FileID: "x"}), MenuSelection(1, "🏠 Аренда")} {
		act := handle(t, e, ev)
		assert.Equal(t, ActionReject, act.Kind)
		assert.Equal(t, texts.EnterTitle, act.Text)
	}
	sess, ok := e.sessions.Get(1)
	require.True(t, ok)
	assert.Equal(t, StateAwaitingTitle, sess.State)
	assert.Empty(t, sess.Draft.Title)
}

func TestStartGatedByQuota(t *testing.T) {
	st := newMemStore()
	st.counts[key(1, "2024-05-02")] = DefaultDailyLimit
	e := newEngine(t, st)

	act := handle(t, e, Start(1))
	assert.Equal(t, ActionQuotaRejected, act.Kind)
	assert.Equal(t, texts.QuotaReached(5), act.Text)
	assert.False(t, e.InProgress(1))
}

func TestQuotaAtStartKeepsExistingSession(t *testing.T) {
	st := newMemStore()
	e := newEngine(t, st)
	handle(t, e, Start(1))
	handle(t, e, MenuSelection(1, "🏠 Аренда"))

	st.mu.Lock()
	st.counts[key(1, "2024-05-02")] = DefaultDailyLimit
	st.mu.Unlock()

	act := handle(t, e, Start(1))
	assert.Equal(t, ActionQuotaRejected, act.Kind)
	assert.Equal(t, StateAwaitingTitle, act.State)
	sess, ok := e.sessions.Get(1)
	require.True(t, ok)
	assert.Equal(t, "🏠 Аренда", sess.Draft.Category)
}

func TestQuotaAtCommitClearsSession(t *testing.T) {
	st := newMemStore()
	e := newEngine(t, st)
	fillUntilContact(t, e, 1)

	st.mu.Lock()
	st.counts[key(1, "2024-05-02")] = DefaultDailyLimit
	st.mu.Unlock()

	act := handle(t, e, Text(1, "@me"))
	assert.Equal(t, ActionQuotaRejected, act.Kind)
	assert.False(t, e.InProgress(1))
	assert.Zero(t, st.rows())
}

func TestSixthSubmissionRejected(t *testing.T) {
	st := newMemStore()
	e := newEngine(t, st)
	for i := 0; i < 5; i++ {
		fillUntilContact(t, e, 1)
		act := handle(t, e, Text(1, "@me"))
		require.Equal(t, ActionConfirm, act.Kind)
	}
	act := handle(t, e, Start(1))
	assert.Equal(t, ActionQuotaRejected, act.Kind)
	assert.Equal(t, 5, st.rows())
}

func TestStorageFailureKeepsContactStep(t *testing.T) {
	st := newMemStore()
	e := newEngine(t, st)
	fillUntilContact(t, e, 1)

	st.submitErr = fmt.Errorf("store: insert listing: %w: disk full", listing.ErrStorage)
	_, err := e.Handle(context.Background(), Text(1, "@me"))
	require.ErrorIs(t, err, listing.ErrStorage)
	assert.Equal(t, StateAwaitingContact, e.sessions.GetState(1))

	st.submitErr = nil
	act := handle(t, e, Text(1, "@me"))
	assert.Equal(t, ActionConfirm, act.Kind)
	assert.Equal(t, 1, st.rows())
}

func TestStartStorageFailure(t *testing.T) {
	st := newMemStore()
	st.countErr = listing.ErrStorage
	e := newEngine(t, st)

	_, err := e.Handle(context.Background(), Start(1))
	require.ErrorIs(t, err, listing.ErrStorage)
	assert.False(t, e.InProgress(1))
}

func TestAbandonedSessionWritesNothing(t *testing.T) {
	st := newMemStore()
	e := newEngine(t, st)
	handle(t, e, Start(1))
	handle(t, e, MenuSelection(1, "🏠 Аренда"))
	handle(t, e, Text(1, "t"))
	handle(t, e, Text(1, "d"))
	handle(t, e, Text(1, "p"))

	assert.Zero(t, st.rows())
	count, err := st.DailyCount(context.Background(), 1, "2024-05-02")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRestartDiscardsDraft(t *testing.T) {
	e := newEngine(t, newMemStore())
	handle(t, e, Start(1))
	handle(t, e, MenuSelection(1, "🏠 Аренда"))
	handle(t, e, Text(1, "old title"))
	first, _ := e.sessions.Get(1)

	act := handle(t, e, Start(1))
	assert.Equal(t, StateAwaitingCategory, act.State)
	sess, ok := e.sessions.Get(1)
	require.True(t, ok)
	assert.Empty(t, sess.Draft.Title)
	assert.NotEqual(t, first.ID, sess.ID)
}

func TestCancel(t *testing.T) {
	e := newEngine(t, newMemStore())
	handle(t, e, Start(1))
	handle(t, e, Start(2))
	assert.Equal(t, 2, e.Active())

	act := handle(t, e, Cancel(1))
	assert.Equal(t, ActionIdle, act.Kind)
	assert.Equal(t, texts.Cancelled, act.Text)
	assert.False(t, e.InProgress(1))
	assert.Equal(t, 1, e.Active())

	act = handle(t, e, Cancel(1))
	assert.Equal(t, texts.IdleMenu, act.Text)
}

func TestUnknownSessionIsIdle(t *testing.T) {
	e := newEngine(t, newMemStore())
	for _, ev := range []Event{Text(1, "hi"), Photos(1, Photo{FileID: "x"}), MenuSelection(1, "🏠 Аренда")} {
		act := handle(t, e, ev)
		assert.Equal(t, ActionIdle, act.Kind)
		assert.Equal(t, state.StateIdle, act.State)
	}
}

func TestBrowse(t *testing.T) {
	st := newMemStore()
	e := newEngine(t, st)

	act := handle(t, e, Browse(1))
	assert.Equal(t, ActionListings, act.Kind)
	assert.Empty(t, act.Listings)
	assert.Equal(t, texts.NoListings, act.Text)

	for u := int64(1); u <= 7; u++ {
		fillUntilContact(t, e, u)
		handle(t, e, Text(u, "@me"))
	}
	act = handle(t, e, Browse(1))
	require.Len(t, act.Listings, DefaultRecentLimit)
	assert.Equal(t, int64(7), act.Listings[0].ID)
	assert.Equal(t, int64(3), act.Listings[4].ID)
}

func TestUnknownEventKind(t *testing.T) {
	e := newEngine(t, newMemStore())
	_, err := e.Handle(context.Background(), Event{Kind: 99, UserID: 1})
	assert.Error(t, err)
}

func TestConcurrentUsersDoNotInterfere(t *testing.T) {
	st := newMemStore()
	e := newEngine(t, st)

	var g errgroup.Group
	for u := int64(1); u <= 8; u++ {
		g.Go(func() error {
			ctx := context.Background()
			for _, ev := range []Event{
				Start(u), MenuSelection(u, "🎁 Отдам даром"), Text(u, fmt.Sprintf("item %d", u)),
				Text(u, "d"), Text(u, "0"), Text(u, "нет"), Text(u, "@me"),
			} {
				if _, err := e.Handle(ctx, ev); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 8, st.rows())
	for _, l := range st.listings {
		assert.Equal(t, fmt.Sprintf("item %d", l.UserID), l.Title)
	}
}

func TestSameUserEventsAreSerialized(t *testing.T) {
	st := newMemStore()
	e := newEngine(t, st)
	fillUntilContact(t, e, 1)

	// Many duplicate contact messages race; only the first may commit.
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := e.Handle(context.Background(), Text(1, "@me"))
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 1, st.rows())
	assert.False(t, e.InProgress(1))
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{SkipKeyword: "  skip "}.withDefaults()
	assert.Equal(t, "skip", o.SkipKeyword)
	assert.Equal(t, DefaultDailyLimit, o.DailyLimit)
	assert.Equal(t, DefaultCurrency, o.Currency)
	assert.NotNil(t, o.Now)
}
