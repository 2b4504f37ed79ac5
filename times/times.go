// Package times resolves free-form date/time input against a guild's
// timezone and renders timestamps back for display.
package times

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonas747/when"
	"github.com/jonas747/when/rules"
	wcommon "github.com/jonas747/when/rules/common"
	"github.com/jonas747/when/rules/en"
	"github.com/meeow/eventbot/common"
)

var logger = common.GetFixedPrefixLogger("times")

// ParseError means the input couldn't be resolved to any calendar date/time.
type ParseError struct {
	Input string
}

func (p *ParseError) Error() string {
	return fmt.Sprintf("could not make sense of %q as a date/time", p.Input)
}

func (p *ParseError) IsUserError() bool { return true }

const displayLayout = "Monday 1/2 3:04PM MST"

type Service struct {
	parser *when.Parser
}

func NewService() *Service {
	parser := when.New(&rules.Options{
		Distance:     10,
		MatchByOrder: true})

	parser.Add(
		en.Weekday(rules.Override),
		en.CasualDate(rules.Override),
		en.CasualTime(rules.Override),
		en.Hour(rules.Override),
		en.HourMinute(rules.Override),
		en.Deadline(rules.Override),
		en.ExactMonthDate(rules.Override),
	)
	parser.Add(wcommon.All...)

	return &Service{parser: parser}
}

// Layouts tried before falling back to natural language parsing. Input is
// lowercased first so the am/pm variants stay case insensitive.
var (
	absoluteLayouts = []string{
		"1/2/2006 15:04",
		"1/2/2006 3:04pm",
		"1/2/2006 3pm",
		"2006-01-02 15:04",
		"1/2/2006",
	}
	yearlessLayouts = []string{
		"1/2 15:04",
		"1/2 3:04pm",
		"1/2 3pm",
		"1/2",
	}
	clockLayouts = []string{
		"15:04",
		"3:04pm",
		"3pm",
	}
)

// Resolve parses input into an absolute timestamp. Values carrying no
// explicit zone information are interpreted in loc.
func (s *Service) Resolve(input string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	now := time.Now().In(loc)
	cleaned := strings.ToLower(strings.TrimSpace(input))

	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, loc); err == nil {
			return t, nil
		}
	}

	for _, layout := range yearlessLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, loc); err == nil {
			return time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
		}
	}

	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, loc); err == nil {
			return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
		}
	}

	result, err := s.parser.Parse(input, now)
	if err != nil || result == nil {
		return time.Time{}, &ParseError{Input: input}
	}

	return result.Time, nil
}

// IsPast reports whether ts is strictly before now. Instants compare the
// same in any zone so no conversion is needed here.
func (s *Service) IsPast(ts time.Time) bool {
	return ts.Before(time.Now())
}

// Format renders ts localized to loc. A nil loc means the caller lost track
// of the zone somewhere, that fallback is logged rather than silently applied.
func (s *Service) Format(ts time.Time, loc *time.Location) string {
	if loc == nil {
		logger.Info("formatting timestamp without a zone, falling back to the bot default")
		var err error
		loc, err = time.LoadLocation(common.ConfDefaultTimezone.GetString())
		if err != nil {
			loc = time.UTC
		}
	}

	return ts.In(loc).Format(displayLayout)
}
