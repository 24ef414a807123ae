package conversation

import (
	"strings"

	"github.com/m3rciful/adboard/bot/listing"
	"github.com/m3rciful/adboard/core/telegram/state"
)

// EventKind identifies an inbound user input.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventMenuSelection
	EventText
	EventPhoto
	EventCancel
	EventBrowse
)

var eventNames = map[EventKind]string{
	EventStart:         "start",
	EventMenuSelection: "menu_selection",
	EventText:          "text",
	EventPhoto:         "photo",
	EventCancel:        "cancel",
	EventBrowse:        "browse",
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return "unknown"
}

// Photo is one size variant of an attached image.
type Photo struct {
	FileID   string
	Width    int
	Height   int
	FileSize int64
}

// Event is a single user input addressed to the engine.
type Event struct {
	Kind   EventKind
	UserID int64
	Text   string
	Photos []Photo
	// Album is the media group of a photo sent as part of an album.
	Album string
}

// Start requests a new submission.
func Start(userID int64) Event { return Event{Kind: EventStart, UserID: userID} }

// MenuSelection carries the label of a pressed choice button.
func MenuSelection(userID int64, label string) Event {
	return Event{Kind: EventMenuSelection, UserID: userID, Text: label}
}

// Text carries a free-text message.
func Text(userID int64, text string) Event {
	return Event{Kind: EventText, UserID: userID, Text: text}
}

// Photos carries every variant of one attached image.
func Photos(userID int64, photos ...Photo) Event {
	return Event{Kind: EventPhoto, UserID: userID, Photos: photos}
}

// AlbumPhotos is Photos for an image that belongs to album.
func AlbumPhotos(userID int64, album string, photos ...Photo) Event {
	ev := Photos(userID, photos...)
	ev.Album = album
	return ev
}

// Cancel aborts the current submission.
func Cancel(userID int64) Event { return Event{Kind: EventCancel, UserID: userID} }

// Browse requests the most recent listings.
func Browse(userID int64) Event { return Event{Kind: EventBrowse, UserID: userID} }

// bestPhoto picks the variant with the largest pixel area, then the largest
// file size; among equal variants the later one wins. Variants without a
// file reference are ignored.
func bestPhoto(photos []Photo) (Photo, bool) {
	var best Photo
	found := false
	for _, p := range photos {
		if strings.TrimSpace(p.FileID) == "" {
			continue
		}
		if !found || p.better(best) {
			best, found = p, true
		}
	}
	return best, found
}

func (p Photo) area() int64 { return int64(p.Width) * int64(p.Height) }

func (p Photo) better(than Photo) bool {
	if a, b := p.area(), than.area(); a != b {
		return a > b
	}
	return p.FileSize >= than.FileSize
}

// ActionKind tells the dispatch layer how to render an Action.
type ActionKind int

const (
	ActionPrompt ActionKind = iota + 1
	ActionPromptWithChoices
	ActionReject
	ActionConfirm
	ActionQuotaRejected
	ActionListings
	ActionIdle
	// ActionNone means the event was absorbed and nothing is sent.
	ActionNone
)

var actionNames = map[ActionKind]string{
	ActionPrompt:            "prompt",
	ActionPromptWithChoices: "prompt_with_choices",
	ActionReject:            "reject",
	ActionConfirm:           "confirm",
	ActionQuotaRejected:     "quota_rejected",
	ActionListings:          "listings",
	ActionIdle:              "idle",
	ActionNone:              "none",
}

func (k ActionKind) String() string {
	if s, ok := actionNames[k]; ok {
		return s
	}
	return "unknown"
}

// Action is the engine's reply to one Event.
// Choices is set for prompts and rejects at the category step.
type Action struct {
	Kind      ActionKind
	Text      string
	Choices   []string
	Listings  []listing.Listing
	ListingID int64
	// State is the user's step after the event was handled.
	State state.State
}
