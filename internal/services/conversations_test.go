package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Akin1234dot/Fifthlasb/internal/models"
)

type stubResolver map[string]models.MemberDetail

func (r stubResolver) Resolve(id string) (models.MemberDetail, bool) {
	d, ok := r[id]
	return d, ok
}

func ts(t *testing.T, offset time.Duration) *time.Time {
	t.Helper()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(offset)
	return &at
}

func directMessage(id, sender, recipient, content string, at *time.Time, read bool) models.Message {
	return models.Message{
		ID:             id,
		ConversationID: ConversationKey(sender, recipient),
		Content:        content,
		SenderID:       sender,
		Participants:   models.StringList{sender, recipient},
		Timestamp:      at,
		Read:           read,
		Kind:           models.KindDirect,
	}
}

func TestConversationKeySymmetry(t *testing.T) {
	assert.Equal(t, ConversationKey("u1", "u2"), ConversationKey("u2", "u1"))
	assert.Equal(t, "u1_u2", ConversationKey("u2", "u1"))
}

func TestFoldDeduplicatesByParticipantPair(t *testing.T) {
	msgs := []models.Message{
		directMessage("m3", "u2", "u1", "latest", ts(t, 2*time.Minute), false),
		directMessage("m2", "u1", "u2", "middle", ts(t, time.Minute), true),
		directMessage("m1", "u2", "u1", "oldest", ts(t, 0), true),
		directMessage("m4", "u3", "u1", "from u3", ts(t, 30*time.Second), false),
	}

	resolver := stubResolver{
		"u2": {ID: "u2", DisplayName: "Sarah Miller", PhotoURL: "p2"},
		"u3": {ID: "u3", DisplayName: "Jamie Wilson", PhotoURL: "p3"},
	}

	convos := FoldConversations("u1", msgs, resolver)

	assert.Len(t, convos, 2)
	assert.Equal(t, "u1_u2", convos[0].ID)
	assert.Equal(t, "latest", convos[0].LastMessage)
	assert.Equal(t, "Sarah Miller", convos[0].OtherParticipant.DisplayName)
	assert.Equal(t, 1, convos[0].UnreadCount)

	assert.Equal(t, "u1_u3", convos[1].ID)
	assert.Equal(t, 1, convos[1].UnreadCount)
}

func TestFoldIsIdempotent(t *testing.T) {
	msgs := []models.Message{
		directMessage("m1", "u2", "u1", "hello", ts(t, 0), false),
		directMessage("m2", "u1", "u2", "hi back", ts(t, time.Minute), false),
		directMessage("m3", "u3", "u1", "hey", ts(t, 2*time.Minute), false),
	}
	resolver := stubResolver{}

	first := FoldConversations("u1", msgs, resolver)
	second := FoldConversations("u1", msgs, resolver)

	assert.Equal(t, first, second)
}

func TestFoldOutOfOrderSnapshotDoesNotRegressSummary(t *testing.T) {
	// Ascending delivery: the newest message arrives last but must win.
	msgs := []models.Message{
		directMessage("m1", "u2", "u1", "old", ts(t, 0), true),
		directMessage("m2", "u2", "u1", "new", ts(t, time.Hour), true),
	}

	convos := FoldConversations("u1", msgs, stubResolver{})
	assert.Len(t, convos, 1)
	assert.Equal(t, "new", convos[0].LastMessage)

	// Equal timestamps are not "strictly newer"; the first seen stays.
	same := ts(t, 0)
	msgs = []models.Message{
		directMessage("m1", "u2", "u1", "first seen", same, true),
		directMessage("m2", "u2", "u1", "tied", same, true),
	}
	convos = FoldConversations("u1", msgs, stubResolver{})
	assert.Equal(t, "first seen", convos[0].LastMessage)
}

func TestFoldUnknownParticipantPlaceholder(t *testing.T) {
	msgs := []models.Message{
		directMessage("m1", "ghost", "u1", "boo", ts(t, 0), false),
	}

	convos := FoldConversations("u1", msgs, stubResolver{})

	assert.Len(t, convos, 1)
	assert.Equal(t, "Unknown User", convos[0].OtherParticipant.DisplayName)
	assert.Equal(t, models.DefaultAvatarURL, convos[0].OtherParticipant.PhotoURL)
}

func TestFoldDropsMalformedAndGroupMessages(t *testing.T) {
	lonely := models.Message{
		ID:           "bad",
		Content:      "malformed",
		SenderID:     "u2",
		Participants: models.StringList{"u2"},
		Timestamp:    ts(t, 0),
	}
	groupMsg := models.Message{
		ID:           "g1",
		Content:      "group chatter",
		SenderID:     "u2",
		Participants: models.StringList{"u1", "u2", "u3"},
		Timestamp:    ts(t, 0),
		Kind:         models.KindGroup,
	}

	convos := FoldConversations("u1", []models.Message{lonely, groupMsg}, stubResolver{})
	assert.Empty(t, convos)
}

func TestFoldOrdersByActivityWithNilTimestampsLast(t *testing.T) {
	msgs := []models.Message{
		directMessage("m1", "u2", "u1", "older", ts(t, 0), true),
		directMessage("m2", "u3", "u1", "newer", ts(t, time.Hour), true),
		directMessage("m3", "u4", "u1", "pending", nil, true),
	}

	convos := FoldConversations("u1", msgs, stubResolver{})

	assert.Len(t, convos, 3)
	assert.Equal(t, "u1_u3", convos[0].ID)
	assert.Equal(t, "u1_u2", convos[1].ID)
	assert.Equal(t, "u1_u4", convos[2].ID)
	assert.Nil(t, convos[2].LastMessageTime)
}

func TestNewDirectConversationBootstrap(t *testing.T) {
	convo := NewDirectConversation("u1", models.MemberDetail{ID: "u2", DisplayName: "Sarah Miller"})

	assert.Equal(t, "u1_u2", convo.ID)
	assert.Equal(t, models.StringList{"u1", "u2"}, convo.Participants)
	assert.Empty(t, convo.LastMessage)
	assert.Nil(t, convo.LastMessageTime)
	assert.Zero(t, convo.UnreadCount)
}
