package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDraftValidate(t *testing.T) {
	photo := "file-1"
	empty := "  "
	full := Draft{
		Category:    "🏠 Аренда",
		Title:       "Flat",
		Description: "2+kk",
		Price:       "15000",
		Contact:     "@owner",
	}

	assert.NoError(t, full.Validate())

	withPhoto := full
	withPhoto.Photo = &photo
	assert.NoError(t, withPhoto.Validate())

	blankPhoto := full
	blankPhoto.Photo = &empty
	assert.ErrorIs(t, blankPhoto.Validate(), ErrIncompleteDraft)

	noContact := full
	noContact.Contact = " "
	assert.ErrorIs(t, noContact.Validate(), ErrIncompleteDraft)
}

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2026, 10, 17, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-17", DateKey(ts))
	assert.Equal(t, "2026-10-18", DateKey(ts.In(loc)))
}
