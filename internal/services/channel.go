package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/pkg/errors"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
	"github.com/Akin1234dot/Fifthlasb/pkg/utils"
)

// ChannelState is the lifecycle of one open conversation.
type ChannelState int

const (
	ChannelClosed ChannelState = iota
	ChannelLoading
	ChannelLive
)

// How far a server timestamp may drift from the local send time and still
// reconcile against the optimistic entry.
const reconcileWindow = 2 * time.Minute

var ErrSendInProgress = errors.Validation("A send is already in progress")

// Sender identifies the principal writing into the channel, with the
// display projection denormalized onto each sent message.
type Sender struct {
	ID       string
	Name     string
	PhotoURL string
}

// Channel is the live message feed for one open conversation, direct or
// group. Every inbound snapshot fully replaces the in-memory list; optimistic
// entries ride on top until the authoritative row arrives.
type Channel struct {
	mu sync.Mutex

	state          ChannelState
	conversationID string
	kind           string
	participants   models.StringList
	sender         Sender

	store    MessageStore
	notifier Notifier

	messages   []models.Message
	optimistic []models.Message
	sentAt     map[string]time.Time // optimistic id -> local send time
	marked     map[string]bool      // message ids already sent a read-mark

	draft        string
	sendInFlight bool

	cancel  context.CancelFunc
	updates chan struct{}
}

// NewChannel builds a closed channel for the conversation. For direct
// conversations conversationID must be the sorted participant-pair key; for
// groups it is the group id.
func NewChannel(conversationID, kind string, participants models.StringList, sender Sender, store MessageStore, notifier Notifier) *Channel {
	return &Channel{
		conversationID: conversationID,
		kind:           kind,
		participants:   participants.Sorted(),
		sender:         sender,
		store:          store,
		notifier:       notifier,
		sentAt:         make(map[string]time.Time),
		marked:         make(map[string]bool),
		updates:        make(chan struct{}, 1),
	}
}

func (c *Channel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Updates signals after each applied snapshot. Advisory; consumers re-read
// Messages.
func (c *Channel) Updates() <-chan struct{} {
	return c.updates
}

// Open moves the channel Loading then Live: it loads the initial snapshot
// and follows collection changes until ctx is cancelled or Close is called.
// Opening again first tears down the previous subscription; teardown runs on
// every exit path, including error exits.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	subCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = ChannelLoading
	c.mu.Unlock()

	if err := c.Refresh(); err != nil {
		c.closeWith(cancel)
		return err
	}

	changes, err := c.notifier.Changed(subCtx)
	if err != nil {
		c.closeWith(cancel)
		return err
	}

	c.mu.Lock()
	c.state = ChannelLive
	c.mu.Unlock()

	go func() {
		defer c.closeWith(cancel)
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				if err := c.Refresh(); err != nil {
					// A failed snapshot stops the feed; the user recovers by
					// re-opening the conversation.
					logger.Warn().Err(err).Str("conversation", c.conversationID).Msg("Channel feed stopped")
					return
				}
			}
		}
	}()

	return nil
}

// Close tears down the subscription. Idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.state = ChannelClosed
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Channel) closeWith(cancel context.CancelFunc) {
	cancel()
	c.mu.Lock()
	if c.state != ChannelClosed {
		c.state = ChannelClosed
	}
	c.mu.Unlock()
}

// Refresh re-queries the full conversation snapshot and applies it,
// replacing the in-memory list wholesale.
func (c *Channel) Refresh() error {
	snapshot, err := c.store.ListConversation(c.conversationID)
	if err != nil {
		return err
	}
	c.applySnapshot(snapshot)
	return nil
}

func (c *Channel) applySnapshot(snapshot []models.Message) {
	c.mu.Lock()

	// Reconcile optimistic entries: the authoritative row has a different id
	// than the local one, so match on content + sender + approximate time.
	// Each authoritative row clears at most one optimistic entry, so two
	// identical sends keep their own pending entries until both rows land.
	consumed := make(map[string]bool, len(c.optimistic))
	remaining := c.optimistic[:0]
	for _, opt := range c.optimistic {
		matched := false
		for i := range snapshot {
			auth := &snapshot[i]
			if consumed[auth.ID] {
				continue
			}
			if auth.Content == opt.Content && auth.SenderID == opt.SenderID && auth.Timestamp != nil {
				local := c.sentAt[opt.ID]
				if local.IsZero() || absDuration(auth.Timestamp.Sub(local)) <= reconcileWindow {
					consumed[auth.ID] = true
					matched = true
					break
				}
			}
		}
		if matched {
			delete(c.sentAt, opt.ID)
		} else {
			remaining = append(remaining, opt)
		}
	}
	c.optimistic = remaining

	sortMessages(snapshot)
	c.messages = snapshot

	// Best-effort read-marking for inbound messages. At most once per
	// message id, never retried on failure.
	var toMark []string
	for i := range snapshot {
		m := &snapshot[i]
		if m.SenderID != c.sender.ID && !m.Read && !c.marked[m.ID] {
			c.marked[m.ID] = true
			toMark = append(toMark, m.ID)
		}
	}
	c.mu.Unlock()

	for _, id := range toMark {
		go func(id string) {
			if err := c.store.MarkRead(id); err != nil {
				logger.Warn().Err(err).Str("message", id).Msg("Read-mark failed, not retrying")
			}
		}(id)
	}

	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// Messages returns the current list: the authoritative snapshot ascending by
// timestamp with unacknowledged optimistic entries after it.
func (c *Channel) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, 0, len(c.messages)+len(c.optimistic))
	out = append(out, c.messages...)
	out = append(out, c.optimistic...)
	return out
}

// Draft returns the composer text, restored after a failed send.
func (c *Channel) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Send validates text, appends an optimistic local entry, then performs the
// durable write. At most one send may be outstanding at a time. On failure
// the optimistic entry is removed and the text is restored as the draft for
// retry; on success the entry stays until the live snapshot delivers the
// authoritative row.
func (c *Channel) Send(text string) (*models.Message, error) {
	if err := utils.ValidateMessageContent(text); err != nil {
		return nil, errors.Validation(err.Error())
	}

	c.mu.Lock()
	if c.sendInFlight {
		c.mu.Unlock()
		return nil, ErrSendInProgress
	}
	c.sendInFlight = true
	c.draft = ""

	opt := models.Message{
		ID:             uuid.New().String(),
		ConversationID: c.conversationID,
		Content:        text,
		SenderID:       c.sender.ID,
		SenderName:     c.sender.Name,
		SenderPhoto:    c.sender.PhotoURL,
		Participants:   c.participants,
		Kind:           c.kind,
		IsOptimistic:   true,
	}
	c.optimistic = append(c.optimistic, opt)
	c.sentAt[opt.ID] = time.Now()
	c.mu.Unlock()

	durable := models.Message{
		ConversationID: opt.ConversationID,
		Content:        opt.Content,
		SenderID:       opt.SenderID,
		SenderName:     opt.SenderName,
		SenderPhoto:    opt.SenderPhoto,
		Participants:   opt.Participants,
		Kind:           opt.Kind,
	}
	err := c.store.Insert(&durable)

	c.mu.Lock()
	c.sendInFlight = false
	if err != nil {
		c.removeOptimisticLocked(opt.ID)
		c.draft = text
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	if c.kind == models.KindGroup {
		// Summary overwrite is fire-and-forget; the known interleaving race
		// is documented at the store.
		if err := c.store.UpdateGroupSummary(c.conversationID, durable.Content, durable.Timestamp); err != nil {
			logger.Warn().Err(err).Str("group", c.conversationID).Msg("Group summary update failed")
		}
	}

	return &durable, nil
}

// Delete removes a message the principal authored. Non-authors get
// PermissionError and the list is untouched. The local removal is optimistic
// and restored if the durable delete fails. Deleting the newest message of a
// group recomputes the persisted summary; direct conversations have no
// persisted summary to fix up.
func (c *Channel) Delete(messageID string) error {
	c.mu.Lock()
	idx := -1
	for i := range c.messages {
		if c.messages[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx == -1 {
		c.mu.Unlock()
		return errors.NotFound("Message not found")
	}
	target := c.messages[idx]
	if target.SenderID != c.sender.ID {
		c.mu.Unlock()
		return errors.Permission("Only the sender can delete a message")
	}

	wasNewest := idx == len(c.messages)-1
	before := c.messages
	after := make([]models.Message, 0, len(before)-1)
	after = append(after, before[:idx]...)
	after = append(after, before[idx+1:]...)
	c.messages = after
	c.mu.Unlock()

	if err := c.store.Delete(messageID); err != nil {
		c.mu.Lock()
		c.messages = before
		c.mu.Unlock()
		return err
	}

	if wasNewest && c.kind == models.KindGroup {
		c.mu.Lock()
		last := ""
		var lastAt *time.Time
		if n := len(c.messages); n > 0 {
			last = c.messages[n-1].Content
			lastAt = c.messages[n-1].Timestamp
		}
		c.mu.Unlock()
		if err := c.store.UpdateGroupSummary(c.conversationID, last, lastAt); err != nil {
			logger.Warn().Err(err).Str("group", c.conversationID).Msg("Group summary recompute failed")
		}
	}

	return nil
}

func (c *Channel) removeOptimisticLocked(id string) {
	for i := range c.optimistic {
		if c.optimistic[i].ID == id {
			c.optimistic = append(c.optimistic[:i], c.optimistic[i+1:]...)
			break
		}
	}
	delete(c.sentAt, id)
}

// sortMessages orders ascending by timestamp with nil-timestamp entries
// last.
func sortMessages(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		a, b := msgs[i].Timestamp, msgs[j].Timestamp
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
