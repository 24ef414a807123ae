// Package store persists listings and per-user daily submission counters.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/adboard/bot/listing"
	"github.com/m3rciful/adboard/core/database"
	"github.com/m3rciful/adboard/core/logger"
)

// DefaultRecent is the number of listings returned by ListRecent when n <= 0.
const DefaultRecent = 5

const (
	qDailyCount = `SELECT count FROM ad_limits WHERE user_id = ? AND date = ?`

	// The WHERE clause keeps concurrent writers from pushing the counter past the limit.
	qBumpCounter = `INSERT INTO ad_limits (user_id, date, count) VALUES (?, ?, 1)
ON CONFLICT (user_id, date) DO UPDATE SET count = ad_limits.count + 1
WHERE ad_limits.count < ?`

	qInsertListing = `INSERT INTO listings (user_id, category, title, description, price, photo, contact, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	qListRecent = `SELECT id, user_id, category, title, description, price, photo, contact, created_at
FROM listings ORDER BY id DESC LIMIT ?`
)

// Store is the SQL-backed submission store. It is safe for concurrent use.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a store over db.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DailyCount returns how many listings userID submitted on date; 0 when none.
func (s *Store) DailyCount(ctx context.Context, userID int64, date string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind(qDailyCount), userID, date)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, storageErr("daily count", err)
	}
	return count, nil
}

// TrySubmit checks the quota for (userID, date), bumps the counter, and inserts
// the listing in one transaction. It returns listing.ErrQuotaExceeded without
// writing anything once the counter has reached limit.
func (s *Store) TrySubmit(ctx context.Context, userID int64, date string, draft listing.Draft, limit int) (int64, error) {
	if err := draft.Validate(); err != nil {
		return 0, err
	}

	start := time.Now()
	var id int64
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var count int
		err := tx.GetContext(ctx, &count, tx.Rebind(qDailyCount), userID, date)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return storageErr("read counter", err)
		}
		if count >= limit {
			return listing.ErrQuotaExceeded
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(qBumpCounter), userID, date, limit)
		if err != nil {
			return storageErr("bump counter", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageErr("bump counter", err)
		}
		if n == 0 {
			return listing.ErrQuotaExceeded
		}

		createdAt := s.now().UTC().Format(time.RFC3339Nano)
		err = tx.QueryRowxContext(ctx, tx.Rebind(qInsertListing),
			userID, draft.Category, draft.Title, draft.Description, draft.Price,
			draft.Photo, draft.Contact, createdAt,
		).Scan(&id)
		if err != nil {
			return storageErr("insert listing", err)
		}
		return nil
	})

	switch {
	case errors.Is(err, listing.ErrQuotaExceeded):
		logger.Info(ctx, "store", "quota_exceeded",
			slog.Int64("user_id", userID),
			slog.String("date", date),
			slog.Int("limit", limit),
		)
		return 0, err
	case errors.Is(err, listing.ErrStorage):
		logger.Error(ctx, "store", "submit_failed", slog.Int64("user_id", userID), logger.Err(err))
		return 0, err
	case err != nil:
		logger.Error(ctx, "store", "submit_failed", slog.Int64("user_id", userID), logger.Err(err))
		return 0, storageErr("submit", err)
	}

	logger.Info(ctx, "store", "listing_created",
		slog.Int64("listing_id", id),
		slog.Int64("user_id", userID),
		slog.String("category", draft.Category),
		slog.String("date", date),
		slog.Duration("duration", logger.Took(start)),
	)
	return id, nil
}

// ListRecent returns up to n listings, newest first.
func (s *Store) ListRecent(ctx context.Context, n int) ([]listing.Listing, error) {
	if n <= 0 {
		n = DefaultRecent
	}
	var rows []listingRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(qListRecent), n); err != nil {
		return nil, storageErr("list recent", err)
	}
	out := make([]listing.Listing, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toListing())
	}
	return out, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("store: %s: %w: %w", op, listing.ErrStorage, err)
}
