// Package listing holds the classified listing model shared by the
// conversation engine, the submission store, and the Telegram handlers.
package listing

import (
	"strings"
	"time"
)

// Draft is a listing being collected by a conversation.
// Photo stays nil when the user skipped the photo step.
type Draft struct {
	Category    string
	Title       string
	Description string
	Price       string
	Photo       *string
	Contact     string
}

// Validate checks that every required field is filled.
func (d Draft) Validate() error {
	for _, v := range []string{d.Category, d.Title, d.Description, d.Price, d.Contact} {
		if strings.TrimSpace(v) == "" {
			return ErrIncompleteDraft
		}
	}
	if d.Photo != nil && strings.TrimSpace(*d.Photo) == "" {
		return ErrIncompleteDraft
	}
	return nil
}

// Listing is a committed classified ad.
type Listing struct {
	ID          int64
	UserID      int64
	Category    string
	Title       string
	Description string
	Price       string
	Photo       *string
	Contact     string
	CreatedAt   time.Time
}

// HasPhoto reports whether the listing carries a photo reference.
func (l Listing) HasPhoto() bool {
	return l.Photo != nil && *l.Photo != ""
}

// DateKey formats t as the calendar date used for quota accounting.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
