package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/m3rciful/adboard/bot/listing"
)

type listingRow struct {
	ID          int64          `db:"id"`
	UserID      int64          `db:"user_id"`
	Category    string         `db:"category"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Price       string         `db:"price"`
	Photo       sql.NullString `db:"photo"`
	Contact     string         `db:"contact"`
	CreatedAt   dbTime         `db:"created_at"`
}

func (r listingRow) toListing() listing.Listing {
	l := listing.Listing{
		ID:          r.ID,
		UserID:      r.UserID,
		Category:    r.Category,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Contact:     r.Contact,
		CreatedAt:   time.Time(r.CreatedAt),
	}
	if r.Photo.Valid {
		photo := r.Photo.String
		l.Photo = &photo
	}
	return l
}

// dbTime scans created_at from Postgres TIMESTAMPTZ as well as SQLite TEXT.
type dbTime time.Time

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.DateTime,
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = dbTime{}
		return nil
	case time.Time:
		*t = dbTime(v)
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("created_at: unsupported type %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = dbTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("created_at: unrecognized time %q", s)
}
