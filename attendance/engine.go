package attendance

import (
	"context"

	"github.com/meeow/eventbot/eventstore"
)

// Engine applies status changes against the store.
type Engine struct {
	Store eventstore.Store
}

func NewEngine(store eventstore.Store) *Engine {
	return &Engine{Store: store}
}

// SetStatus moves userID to newStatus on the named event. A re-react with
// the current status is a no-op (changed=false, nothing written).
//
// The change is two single-field writes: first the removal from the old
// list, then the append to the new one. A crash between them leaves the user
// in no list at all, which self-heals on their next status change and never
// duplicates them across lists.
func (e *Engine) SetStatus(ctx context.Context, guildID int64, eventName, userID string, newStatus Status) (changed bool, err error) {
	evt, err := e.Store.Get(ctx, guildID, eventName)
	if err != nil {
		return false, err
	}

	oldStatus, hasOld := StatusOf(evt, userID)
	if hasOld && oldStatus == newStatus {
		return false, nil
	}

	if hasOld {
		oldList := evt.Statuses[string(oldStatus)]
		removed := make([]string, 0, len(oldList)-1)
		for _, member := range oldList {
			if member != userID {
				removed = append(removed, member)
			}
		}

		err = e.Store.UpdateField(ctx, guildID, evt.ID, eventstore.StatusField(string(oldStatus)), removed)
		if err != nil {
			return false, err
		}
	}

	appended := append(evt.Statuses[string(newStatus)], userID)
	err = e.Store.UpdateField(ctx, guildID, evt.ID, eventstore.StatusField(string(newStatus)), appended)
	if err != nil {
		return false, err
	}

	return true, nil
}
