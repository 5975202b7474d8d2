package services

import (
	"context"
	"time"

	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/pkg/errors"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
)

// MessageStore is the durable side of the message collection. The production
// implementation sits on GORM and publishes a feed invalidation after every
// write; tests substitute failing stores to exercise revert paths.
type MessageStore interface {
	// ListConversation returns the full snapshot for one conversation,
	// oldest first.
	ListConversation(conversationID string) ([]models.Message, error)
	// ListForParticipant returns every message whose participant set
	// contains the user, newest first.
	ListForParticipant(userID string) ([]models.Message, error)
	Insert(m *models.Message) error
	Delete(id string) error
	MarkRead(id string) error
	UpdateGroupSummary(groupID, lastMessage string, at *time.Time) error
}

// Notifier signals that the message collection may have changed. Each
// receive on the returned channel prompts a full snapshot re-query; the
// subscription ends when ctx is cancelled.
type Notifier interface {
	Changed(ctx context.Context) (<-chan struct{}, error)
}

// --- GORM-backed store ---

type GormMessageStore struct{}

func (GormMessageStore) ListConversation(conversationID string) ([]models.Message, error) {
	var msgs []models.Message
	err := database.DB.
		Where("conversation_id = ?", conversationID).
		Order("timestamp asc").
		Find(&msgs).Error
	if err != nil {
		return nil, errors.TransientIO("Failed to fetch messages")
	}
	return msgs, nil
}

func (GormMessageStore) ListForParticipant(userID string) ([]models.Message, error) {
	var msgs []models.Message
	err := database.DB.
		Where("participants LIKE ?", models.LikeToken(userID)).
		Order("timestamp desc").
		Find(&msgs).Error
	if err != nil {
		return nil, errors.TransientIO("Failed to fetch message feed")
	}
	return msgs, nil
}

func (GormMessageStore) Insert(m *models.Message) error {
	if err := database.DB.Create(m).Error; err != nil {
		return errors.TransientIO("Failed to send message")
	}
	database.PublishFeedEvent(database.FeedEvent{ConversationID: m.ConversationID, Kind: "created"})
	return nil
}

func (GormMessageStore) Delete(id string) error {
	if err := database.DB.Delete(&models.Message{}, "id = ?", id).Error; err != nil {
		return errors.TransientIO("Failed to delete message")
	}
	database.PublishFeedEvent(database.FeedEvent{Kind: "deleted"})
	return nil
}

func (GormMessageStore) MarkRead(id string) error {
	err := database.DB.Model(&models.Message{}).
		Where("id = ? AND read = ?", id, false).
		Update("read", true).Error
	if err != nil {
		return errors.TransientIO("Failed to mark message read")
	}
	database.PublishFeedEvent(database.FeedEvent{Kind: "read"})
	return nil
}

func (GormMessageStore) UpdateGroupSummary(groupID, lastMessage string, at *time.Time) error {
	// Unconditional overwrite. Two interleaved writers can leave the older
	// summary in place; accepted last-write-wins race.
	err := database.DB.Model(&models.Group{}).
		Where("id = ?", groupID).
		Updates(map[string]interface{}{
			"last_message":      lastMessage,
			"last_message_time": at,
		}).Error
	if err != nil {
		return errors.TransientIO("Failed to update group summary")
	}
	return nil
}

// --- Notifiers ---

// RedisNotifier adapts the Redis pub/sub feed channel.
type RedisNotifier struct{}

func (RedisNotifier) Changed(ctx context.Context) (<-chan struct{}, error) {
	events, err := database.SubscribeFeed(ctx)
	if err != nil {
		return nil, errors.TransientIO("Failed to subscribe to message feed")
	}
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for range events {
			// Coalesce bursts: a pending signal already forces a re-query.
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out, nil
}

// ManualNotifier lets callers (and tests) drive snapshot refreshes directly.
type ManualNotifier struct {
	ch chan struct{}
}

func NewManualNotifier() *ManualNotifier {
	return &ManualNotifier{ch: make(chan struct{}, 1)}
}

func (n *ManualNotifier) Changed(ctx context.Context) (<-chan struct{}, error) {
	return n.ch, nil
}

func (n *ManualNotifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// SubscribeConversations delivers the folded conversation list for a
// principal, once immediately and again after every collection change. Both
// returned channels close when ctx is cancelled or the feed errors; a feed
// error is sent before closing and stops the feed (no silent retry loop).
func SubscribeConversations(ctx context.Context, principalID string, store MessageStore, notifier Notifier, resolver ParticipantResolver) (<-chan []Conversation, <-chan error) {
	out := make(chan []Conversation, 1)
	errc := make(chan error, 1)

	deliver := func() error {
		msgs, err := store.ListForParticipant(principalID)
		if err != nil {
			return err
		}
		select {
		case out <- FoldConversations(principalID, msgs, resolver):
		case <-ctx.Done():
		}
		return nil
	}

	go func() {
		defer close(out)
		defer close(errc)

		if err := deliver(); err != nil {
			errc <- err
			return
		}

		changes, err := notifier.Changed(ctx)
		if err != nil {
			errc <- err
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				if err := deliver(); err != nil {
					logger.Warn().Err(err).Str("principal", principalID).Msg("Conversation feed stopped")
					errc <- err
					return
				}
			}
		}
	}()

	return out, errc
}
