// Package attendance owns the fixed status set and the rule that a user
// holds at most one status per event.
package attendance

import (
	"strings"

	"github.com/meeow/eventbot/common"
	"github.com/meeow/eventbot/eventstore"
)

type Status string

const (
	StatusYes    Status = "Yes"
	StatusPartly Status = "Partly"
	StatusMaybe  Status = "Maybe"
	StatusNo     Status = "No"
)

// Statuses is the fixed set, in display order
var Statuses = []Status{StatusYes, StatusPartly, StatusMaybe, StatusNo}

var statusEmojis = map[Status]string{
	StatusYes:    "😃",
	StatusPartly: "😐",
	StatusMaybe:  "🤔",
	StatusNo:     "😦",
}

// several glyph variants fold into the same status
var emojiStatuses = map[string]Status{
	"😃": StatusYes,
	"😄": StatusYes,
	"😀": StatusYes,
	"🙂": StatusYes,

	"😐": StatusPartly,
	"😑": StatusPartly,

	"🤔": StatusMaybe,
	"🤷": StatusMaybe,

	"😦": StatusNo,
	"😧": StatusNo,
	"🙁": StatusNo,
}

// Emoji returns the canonical reaction emoji for the status
func (s Status) Emoji() string {
	return statusEmojis[s]
}

// ParseStatus matches a status by name, case insensitive. Reported
// ok=false when the name isn't part of the fixed set.
func ParseStatus(name string) (Status, bool) {
	for _, s := range Statuses {
		if strings.EqualFold(string(s), name) {
			return s, true
		}
	}
	return "", false
}

// EmojiToStatus maps a reaction symbol to a status, many-to-one. Unmapped
// symbols are reported ok=false.
func EmojiToStatus(emoji string) (Status, bool) {
	s, ok := emojiStatuses[emoji]
	return s, ok
}

// NewStatusLists returns the empty status lists a fresh event starts with
func NewStatusLists() map[string][]string {
	lists := make(map[string][]string, len(Statuses))
	for _, s := range Statuses {
		lists[string(s)] = []string{}
	}
	return lists
}

// StatusOf scans the fixed status set for the list currently holding userID
func StatusOf(evt *eventstore.Event, userID string) (Status, bool) {
	for _, s := range Statuses {
		if common.ContainsStringSlice(evt.Statuses[string(s)], userID) {
			return s, true
		}
	}
	return "", false
}
