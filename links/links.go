// Package links maintains the symmetric cross-community pointer between two
// events so attendance on one side can be shown from the other.
package links

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/meeow/eventbot/attendance"
	"github.com/meeow/eventbot/common"
	"github.com/meeow/eventbot/eventstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var logger = common.GetFixedPrefixLogger("links")

const (
	ErrMalformedRef  = errors.Sentinel("that doesn't look like an event reference")
	ErrSameCommunity = errors.Sentinel("the referenced event already lives in this community")
	ErrAlreadyLinked = errors.Sentinel("the referenced event is already linked to another community")
)

// BrokenLinkError means a link reference points at an event that no longer
// exists. Display renders it inline, it is never fatal.
type BrokenLinkError struct {
	Ref Ref
}

func (e *BrokenLinkError) Error() string {
	return fmt.Sprintf("the linked event (%s) has been deleted", e.Ref)
}

func (e *BrokenLinkError) IsUserError() bool { return true }

// Ref is enough information to dereference an event across communities: the
// owning guild plus the event's persistent id.
type Ref struct {
	GuildID int64
	EventID primitive.ObjectID
}

func (r Ref) String() string {
	return strconv.FormatInt(r.GuildID, 10) + ":" + r.EventID.Hex()
}

func (r Ref) IsZero() bool {
	return r.GuildID == 0
}

func RefTo(evt *eventstore.Event) Ref {
	return Ref{GuildID: evt.Metadata.GuildID, EventID: evt.ID}
}

func ParseRef(s string) (Ref, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return Ref{}, ErrMalformedRef
	}

	guildID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Ref{}, ErrMalformedRef
	}

	eventID, err := primitive.ObjectIDFromHex(parts[1])
	if err != nil {
		return Ref{}, ErrMalformedRef
	}

	return Ref{GuildID: guildID, EventID: eventID}, nil
}

type Coordinator struct {
	Store eventstore.Store
}

func NewCoordinator(store eventstore.Store) *Coordinator {
	return &Coordinator{Store: store}
}

// Resolve dereferences a link reference. A missing target is reported as a
// BrokenLinkError so callers can render the break instead of failing.
func (c *Coordinator) Resolve(ctx context.Context, ref Ref) (*eventstore.Event, error) {
	evt, err := c.Store.GetByID(ctx, ref.GuildID, ref.EventID)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			return nil, &BrokenLinkError{Ref: ref}
		}
		return nil, err
	}
	return evt, nil
}

// Link writes the mutual pointers into both events. The two writes are
// independent, a crash in between leaves a one-sided link that readers
// detect lazily rather than anything repairing it eagerly.
func (c *Coordinator) Link(ctx context.Context, a, b *eventstore.Event) error {
	err := c.Store.UpdateField(ctx, a.Metadata.GuildID, a.ID, eventstore.FieldLink, RefTo(b).String())
	if err != nil {
		return errors.WrapIf(err, "write link on local event")
	}

	err = c.Store.UpdateField(ctx, b.Metadata.GuildID, b.ID, eventstore.FieldLink, RefTo(a).String())
	return errors.WrapIf(err, "write link on origin event")
}

// Join clones the referenced event into destGuild and links the two. The
// clone starts with fresh status lists and the joining user as author.
func (c *Coordinator) Join(ctx context.Context, destGuildID int64, author string, ref Ref) (*eventstore.Event, error) {
	if ref.GuildID == destGuildID {
		return nil, ErrSameCommunity
	}

	origin, err := c.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if origin.Metadata.Link != "" {
		return nil, ErrAlreadyLinked
	}

	conflict, err := c.Store.TimeConflict(ctx, destGuildID, origin.Time)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, eventstore.ErrTimeConflict
	}

	local := &eventstore.Event{
		Name:        origin.Name,
		Author:      author,
		Time:        origin.Time,
		Description: origin.Description,
		Statuses:    attendance.NewStatusLists(),
		Metadata: eventstore.Metadata{
			Reminders: map[string]int{},
		},
	}

	_, err = c.Store.Insert(ctx, destGuildID, local)
	if err != nil {
		return nil, err
	}

	err = c.Link(ctx, local, origin)
	if err != nil {
		return nil, err
	}

	local.Metadata.Link = RefTo(origin).String()
	return local, nil
}

// Unlink clears the partner's pointer when evt is being deleted. Best
// effort: a failure here just means the partner's next read reports the
// break instead.
func (c *Coordinator) Unlink(ctx context.Context, evt *eventstore.Event) {
	if evt.Metadata.Link == "" {
		return
	}

	ref, err := ParseRef(evt.Metadata.Link)
	if err != nil {
		logger.WithError(err).Error("dropping malformed link ref during unlink: ", evt.Metadata.Link)
		return
	}

	err = c.Store.UpdateField(ctx, ref.GuildID, ref.EventID, eventstore.FieldLink, "")
	if err != nil {
		logger.WithError(err).Error("failed clearing partner link, will be detected as broken on read")
	}
}
