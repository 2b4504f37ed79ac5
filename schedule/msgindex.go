package schedule

import (
	"strconv"
	"sync"

	"emperror.dev/errors"
	"github.com/mediocregopher/radix/v3"
	"github.com/meeow/eventbot/common"
	"github.com/meeow/eventbot/links"
)

// MessageIndex maps posted event messages to the event they render, so the
// reaction handler never has to scrape message text to recover the event.
type MessageIndex interface {
	Set(messageID int64, ref links.Ref) error
	Get(messageID int64) (ref links.Ref, ok bool, err error)
	Delete(messageID int64) error
}

// RedisMessageIndex keeps the index in redis so it survives restarts.
type RedisMessageIndex struct{}

var _ MessageIndex = (*RedisMessageIndex)(nil)

func msgKey(messageID int64) string {
	return "event_msgs:" + strconv.FormatInt(messageID, 10)
}

func (RedisMessageIndex) Set(messageID int64, ref links.Ref) error {
	err := common.RedisPool.Do(radix.Cmd(nil, "SET", msgKey(messageID), ref.String()))
	return errors.WrapIf(err, "index event message")
}

func (RedisMessageIndex) Get(messageID int64) (links.Ref, bool, error) {
	var raw string
	mn := radix.MaybeNil{Rcv: &raw}
	err := common.RedisPool.Do(radix.Cmd(&mn, "GET", msgKey(messageID)))
	if err != nil {
		return links.Ref{}, false, errors.WrapIf(err, "look up event message")
	}
	if mn.Nil {
		return links.Ref{}, false, nil
	}

	ref, err := links.ParseRef(raw)
	if err != nil {
		return links.Ref{}, false, err
	}
	return ref, true, nil
}

func (RedisMessageIndex) Delete(messageID int64) error {
	err := common.RedisPool.Do(radix.Cmd(nil, "DEL", msgKey(messageID)))
	return errors.WrapIf(err, "unindex event message")
}

// MemMessageIndex is the in-memory index used by tests.
type MemMessageIndex struct {
	mu   sync.Mutex
	refs map[int64]links.Ref
}

var _ MessageIndex = (*MemMessageIndex)(nil)

func NewMemMessageIndex() *MemMessageIndex {
	return &MemMessageIndex{refs: make(map[int64]links.Ref)}
}

func (m *MemMessageIndex) Set(messageID int64, ref links.Ref) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[messageID] = ref
	return nil
}

func (m *MemMessageIndex) Get(messageID int64) (links.Ref, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, ok := m.refs[messageID]
	return ref, ok, nil
}

func (m *MemMessageIndex) Delete(messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refs, messageID)
	return nil
}
