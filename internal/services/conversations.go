package services

import (
	"sort"
	"strings"
	"time"

	"github.com/Akin1234dot/Fifthlasb/internal/models"
)

// Conversation is the derived view of a direct message thread. It is never
// persisted; its identity is the sorted participant-pair key and all of its
// attributes are recomputed from the current message snapshot on every fold.
type Conversation struct {
	ID               string              `json:"id"`
	Participants     models.StringList   `json:"participants"`
	OtherParticipant models.MemberDetail `json:"otherParticipant"`
	LastMessage      string              `json:"lastMessage"`
	LastMessageTime  *time.Time          `json:"lastMessageTime"`
	UnreadCount      int                 `json:"unreadCount"`
}

// ParticipantResolver maps a user id to its display projection.
type ParticipantResolver interface {
	Resolve(id string) (models.MemberDetail, bool)
}

// ConversationKey builds the dedup key for a direct conversation: the
// participant ids sorted and joined with an underscore. Symmetric in its
// arguments.
func ConversationKey(ids ...string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return strings.Join(sorted, "_")
}

// unknownParticipant is the placeholder used when the directory cannot
// resolve the other side of a conversation. Resolution must never fail the
// fold.
func unknownParticipant(id string) models.MemberDetail {
	return models.MemberDetail{
		ID:          id,
		DisplayName: "Unknown User",
		PhotoURL:    models.DefaultAvatarURL,
	}
}

// FoldConversations folds a full message snapshot into the deduplicated
// direct-conversation list for principalID. Pure and idempotent: each call
// starts from the given snapshot only, so replaying the same input always
// yields the same output regardless of delivery order.
//
// Group-tagged and malformed (fewer than two participants) messages are
// dropped. Unread counts once per message authored by someone else and not
// yet read. Output is ordered by last message time descending, entries with
// no timestamp last.
func FoldConversations(principalID string, messages []models.Message, resolver ParticipantResolver) []Conversation {
	byKey := make(map[string]*Conversation)
	order := make([]string, 0)

	for i := range messages {
		msg := &messages[i]
		if len(msg.Participants) < 2 {
			continue
		}
		if msg.Kind == models.KindGroup || msg.IsSystem {
			continue
		}

		key := ConversationKey(msg.Participants...)
		entry, ok := byKey[key]
		if !ok {
			otherID := principalID
			for _, id := range msg.Participants {
				if id != principalID {
					otherID = id
					break
				}
			}
			other, found := models.MemberDetail{}, false
			if resolver != nil {
				other, found = resolver.Resolve(otherID)
			}
			if !found {
				other = unknownParticipant(otherID)
			}

			entry = &Conversation{
				ID:               key,
				Participants:     msg.Participants.Sorted(),
				OtherParticipant: other,
				LastMessage:      msg.Content,
				LastMessageTime:  msg.Timestamp,
			}
			byKey[key] = entry
			order = append(order, key)
		} else if msg.Timestamp != nil &&
			(entry.LastMessageTime == nil || msg.Timestamp.After(*entry.LastMessageTime)) {
			// Only strictly newer messages move the summary; guards against
			// out-of-order delivery within the snapshot.
			entry.LastMessage = msg.Content
			entry.LastMessageTime = msg.Timestamp
		}

		if msg.SenderID != principalID && !msg.Read {
			entry.UnreadCount++
		}
	}

	out := make([]Conversation, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastMessageTime, out[j].LastMessageTime
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})

	return out
}

// NewDirectConversation produces the pre-first-message placeholder a user
// sees after selecting someone from the directory. Nothing is persisted
// until the first send.
func NewDirectConversation(principalID string, other models.MemberDetail) Conversation {
	return Conversation{
		ID:               ConversationKey(principalID, other.ID),
		Participants:     models.StringList{principalID, other.ID}.Sorted(),
		OtherParticipant: other,
	}
}
